package pubsub

import (
	"cloud.google.com/go/pubsub"
	"github.com/mauv0809/racket-ladder/internal/domain"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
// The value doubles as the topic name.
type EventType string

const (
	EventPendingMatchCreated EventType = "pending-match-created"
	EventMatchCommitted      EventType = "match-committed"
	EventMatchDeleted        EventType = "match-deleted"
	EventMatchEdited         EventType = "match-edited"
	EventStatsRecalculated   EventType = "stats-recalculated"
	EventSeasonEnded         EventType = "season-ended"
)

// MatchEvent is published when a match enters, leaves or changes in the ledger.
type MatchEvent struct {
	Match *domain.Match
	// Source is "direct", "confirmed", "expired", "force-confirmed", "edit" or "delete".
	Source string
}

// PendingMatchEvent is published when a result awaits confirmation.
type PendingMatchEvent struct {
	Pending *domain.PendingMatch
}

// RecalculatedEvent is published after a full replay.
type RecalculatedEvent struct {
	Summary *domain.RecalcSummary
}

// SeasonEvent is published when a season is archived.
type SeasonEvent struct {
	Season *domain.Season
}
