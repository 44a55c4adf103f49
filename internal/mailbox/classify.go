package mailbox

import (
	"strings"

	"github.com/ashureev/notifyhub/internal/domain"
)

var (
	highKeywords   = []string{"interview", "offer", "urgent", "deadline", "exam", "emergency", "important", "asap", "critical"}
	mediumKeywords = []string{"meeting", "reminder", "schedule", "appointment", "update", "notification", "alert"}
	lowKeywords    = []string{"sale", "discount", "promotion", "newsletter", "unsubscribe", "marketing"}
)

// Classify assigns a priority from keywords in the subject and body. The
// first matching tier wins, checked from HIGH down; no match is MEDIUM.
func Classify(subject, body string) domain.Priority {
	content := strings.ToLower(subject + " " + body)
	switch {
	case containsAny(content, highKeywords):
		return domain.PriorityHigh
	case containsAny(content, mediumKeywords):
		return domain.PriorityMedium
	case containsAny(content, lowKeywords):
		return domain.PriorityLow
	}
	return domain.PriorityMedium
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
