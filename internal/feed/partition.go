package feed

import "github.com/ashureev/notifyhub/internal/domain"

// Renderer decides what each tier actually displays. Counts are taken from
// its output.
type Renderer interface {
	RenderTier(p domain.Priority, msgs []domain.Message) []domain.Message
}

// PassThrough renders every message it is given.
type PassThrough struct{}

func (PassThrough) RenderTier(_ domain.Priority, msgs []domain.Message) []domain.Message {
	return msgs
}

// Partition splits msgs into tiers, keeping input order within each tier.
// Messages with an unrecognized priority are dropped.
func Partition(msgs []domain.Message) map[domain.Priority][]domain.Message {
	tiers := make(map[domain.Priority][]domain.Message, len(domain.Priorities))
	for _, m := range msgs {
		switch m.Priority {
		case domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
			tiers[m.Priority] = append(tiers[m.Priority], m)
		}
	}
	return tiers
}

// Build partitions msgs, renders each tier and counts the rendered result.
func Build(msgs []domain.Message, source domain.Source, r Renderer) domain.FeedSnapshot {
	if r == nil {
		r = PassThrough{}
	}
	tiers := Partition(msgs)
	snap := domain.FeedSnapshot{Source: source}
	for _, p := range domain.Priorities {
		rendered := r.RenderTier(p, tiers[p])
		if rendered == nil {
			rendered = []domain.Message{}
		}
		switch p {
		case domain.PriorityHigh:
			snap.High = rendered
			snap.Counts.High = len(rendered)
		case domain.PriorityMedium:
			snap.Medium = rendered
			snap.Counts.Medium = len(rendered)
		case domain.PriorityLow:
			snap.Low = rendered
			snap.Counts.Low = len(rendered)
		}
	}
	snap.Counts.Total = snap.Counts.High + snap.Counts.Medium + snap.Counts.Low
	return snap
}
