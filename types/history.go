package types

// HistoryType is the kind of a recorded transfer.
type HistoryType string

const (
	HistoryShare    HistoryType = "share"
	HistoryDownload HistoryType = "download"
)

// HistoryEntry is one persisted, immutable record of a finished transfer.
type HistoryEntry struct {
	Type HistoryType `json:"type"`
	Name string      `json:"name"`
	Time string      `json:"time"`
}
