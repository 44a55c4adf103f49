package domain

// Severity is the display class of a toast notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is an ephemeral, user-visible message.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
