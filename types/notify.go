package types

const (
	NotifyTypeBatchStart     = "batch_start"
	NotifyTypeUploadAttempt  = "upload_attempt"
	NotifyTypeUploadProgress = "upload_progress"
	NotifyTypeBatchEnd       = "batch_end"
	NotifyTypeInfo           = "info"
)

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "batch_start", "upload_progress", etc.
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

// NotifyHub broadcasts notifications to connected UI clients.
type NotifyHub interface {
	Broadcast(notification *Notification)
}
