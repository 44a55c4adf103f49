package feed

import (
	"time"

	"github.com/ashureev/notifyhub/internal/domain"
)

// DemoMessages returns the placeholder feed shown when no live mailbox is
// available. Timestamps are relative to now.
func DemoMessages(now time.Time) []domain.Message {
	ago := func(h int) time.Time { return now.Add(-time.Duration(h) * time.Hour) }
	return []domain.Message{
		{
			ID:        "1",
			Sender:    "hr@techcorp.com",
			Subject:   "Interview Invitation - Senior Developer Position",
			Body:      "We would like to invite you for a technical interview tomorrow at 2 PM...",
			Timestamp: ago(2),
			Priority:  domain.PriorityHigh,
		},
		{
			ID:        "2",
			Sender:    "admissions@university.edu",
			Subject:   "Urgent: Final Exam Schedule Change",
			Body:      "Important update regarding your final examination schedule...",
			Timestamp: ago(4),
			Priority:  domain.PriorityHigh,
		},
		{
			ID:        "3",
			Sender:    "team@company.com",
			Subject:   "Weekly Team Meeting Reminder",
			Body:      "Don't forget about our weekly standup meeting tomorrow at 10 AM...",
			Timestamp: ago(6),
			Priority:  domain.PriorityMedium,
		},
		{
			ID:        "4",
			Sender:    "calendar@google.com",
			Subject:   "Event Reminder: Project Deadline",
			Body:      "Your project deadline is approaching in 2 days...",
			Timestamp: ago(8),
			Priority:  domain.PriorityMedium,
		},
		{
			ID:        "5",
			Sender:    "newsletter@techblog.com",
			Subject:   "Weekly Tech Newsletter - Latest Trends",
			Body:      "Check out the latest trends in web development and AI...",
			Timestamp: ago(12),
			Priority:  domain.PriorityLow,
		},
		{
			ID:        "6",
			Sender:    "deals@shopping.com",
			Subject:   "50% Off Sale - Limited Time Offer",
			Body:      "Don't miss out on our biggest sale of the year...",
			Timestamp: ago(24),
			Priority:  domain.PriorityLow,
		},
	}
}
