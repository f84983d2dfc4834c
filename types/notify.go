package types

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "status", "progress"
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

// Notification types pushed to observers.
const (
	NotifyTypeStatus   = "status"
	NotifyTypeProgress = "progress"
	NotifyTypeHistory  = "history"
)
