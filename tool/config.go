package tool

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moyoez/shareit-go/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

func DefaultConfig() types.AppConfig {
	return types.AppConfig{
		ServerURL:          "http://localhost:8080", // where the transfer service listens by default
		ProbeTimeoutMs:     5000,
		TransferTimeoutSec: 0, // no timeout on the transfer itself, a hung backend blocks that session
		DownloadFolder:     "downloads",
		UIListen:           "127.0.0.1:8090",
		PingOnProbeFailure: false,
		ProgressPerSecond:  10,
		History: types.HistoryConfig{
			Backend: "file",
			Path:    "p2p-history.json",
			Key:     "p2p-history",
		},
		Share: types.ShareDefaults{
			ExpiryMinutes: 15,
			OneTime:       false,
		},
	}
}

// LoadConfig reads the YAML config at path, writing a default one when the file does not exist.
// Zero values left by a partial file are filled from the defaults.
func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := DefaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}
	fillDefaults(&cfg)

	CurrentConfig = cfg
	return cfg, nil
}

func fillDefaults(cfg *types.AppConfig) {
	def := DefaultConfig()
	if cfg.ServerURL == "" {
		cfg.ServerURL = def.ServerURL
	}
	if cfg.ProbeTimeoutMs <= 0 {
		cfg.ProbeTimeoutMs = def.ProbeTimeoutMs
	}
	if cfg.TransferTimeoutSec < 0 {
		cfg.TransferTimeoutSec = 0
	}
	if cfg.DownloadFolder == "" {
		cfg.DownloadFolder = def.DownloadFolder
	}
	if cfg.UIListen == "" {
		cfg.UIListen = def.UIListen
	}
	if cfg.ProgressPerSecond <= 0 {
		cfg.ProgressPerSecond = def.ProgressPerSecond
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = def.History.Backend
	}
	if cfg.History.Path == "" {
		cfg.History.Path = def.History.Path
	}
	if cfg.History.Key == "" {
		cfg.History.Key = def.History.Key
	}
	if cfg.Share.ExpiryMinutes < 0 {
		cfg.Share.ExpiryMinutes = 0
	}
}

// ApplyFlags merges CLI flag overrides into cfg.
func ApplyFlags(cfg *types.AppConfig, flags types.Config) {
	if flags.UseServerURL != "" {
		cfg.ServerURL = flags.UseServerURL
	}
	if flags.UseDownloadFolder != "" {
		cfg.DownloadFolder = flags.UseDownloadFolder
	}
	CurrentConfig = *cfg
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}
