package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	ServerURL          string        `yaml:"serverUrl"`
	ProbeTimeoutMs     int           `yaml:"probeTimeoutMs"`
	TransferTimeoutSec int           `yaml:"transferTimeoutSec"` // 0 = no timeout on upload/download
	DownloadFolder     string        `yaml:"downloadFolder"`
	UIListen           string        `yaml:"uiListen"`
	PingOnProbeFailure bool          `yaml:"pingOnProbeFailure"`
	NotifySocket       string        `yaml:"notifySocket,omitempty"` // optional unix socket for desktop notifications
	ProgressPerSecond  float64       `yaml:"progressPerSecond"`      // progress pushes per second to observers
	History            HistoryConfig `yaml:"history"`
	Share              ShareDefaults `yaml:"share"`
}

// HistoryConfig selects and configures the history backend.
type HistoryConfig struct {
	Backend       string `yaml:"backend"` // file | memory | redis
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redisAddr,omitempty"`
	RedisPassword string `yaml:"redisPassword,omitempty"`
	RedisDB       int    `yaml:"redisDB,omitempty"`
	Key           string `yaml:"key"`
}

// ShareDefaults are the advanced share parameters used when a flag or form field is absent.
type ShareDefaults struct {
	ExpiryMinutes int  `yaml:"expiryMinutes"`
	OneTime       bool `yaml:"oneTime"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log               string
	UseConfigPath     string
	UseServerURL      string
	UseDownloadFolder string
}
