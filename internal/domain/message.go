package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Priority is the urgency tier of a message.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Priorities lists the tiers in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority parses a tier name case-insensitively.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return "", false
}

// Message is a single notification in the feed.
type Message struct {
	ID        ID        `json:"id"`
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	Priority  Priority  `json:"priority"`
}

var localTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
}

// UnmarshalJSON tolerates the timestamp encodings the backend has used:
// RFC 3339, zone-less local date-times and epoch milliseconds. An
// unparseable timestamp decodes as the zero time rather than failing.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var raw struct {
		alias
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Message(raw.alias)
	m.Timestamp = parseTimestamp(raw.Timestamp)
	if p, ok := ParsePriority(string(m.Priority)); ok {
		m.Priority = p
	}
	return nil
}

func parseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}
		}
		for _, layout := range localTimeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return time.Time{}
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Source identifies where a feed's messages came from.
type Source string

const (
	SourceLive Source = "live"
	SourceDemo Source = "demo"
)

// Counts are the per-tier totals of what is currently displayed.
type Counts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Total  int `json:"total"`
}

// FeedSnapshot is a fully recomputed, priority-partitioned feed.
type FeedSnapshot struct {
	High   []Message `json:"high"`
	Medium []Message `json:"medium"`
	Low    []Message `json:"low"`
	Counts Counts    `json:"counts"`
	Source Source    `json:"source"`
}

// Tier returns the messages of one priority tier.
func (f *FeedSnapshot) Tier(p Priority) []Message {
	switch p {
	case PriorityHigh:
		return f.High
	case PriorityMedium:
		return f.Medium
	case PriorityLow:
		return f.Low
	}
	return nil
}

// Empty returns true if no tier has any message.
func (f *FeedSnapshot) Empty() bool {
	return f.Counts.Total == 0
}
