package league

import (
	"time"

	"github.com/mauv0809/racket-ladder/internal/confirmation"
	"github.com/mauv0809/racket-ladder/internal/projector"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
)

// Config holds the tunables of an Engine.
type Config struct {
	Policy     projector.Policy
	PendingTTL time.Duration
}

// DefaultConfig returns the standard ladder rules.
func DefaultConfig() Config {
	return Config{Policy: projector.DefaultPolicy(), PendingTTL: confirmation.DefaultTTL}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now in the engine and every store it owns.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// event is a message queued during a locked section and published after it.
type event struct {
	topic pubsub.EventType
	data  any
}

// Direct-path and resolution sources reported on match events.
const (
	SourceDirect         = "direct"
	SourceConfirmed      = "confirmed"
	SourceExpired        = "expired"
	SourceForceConfirmed = "force-confirmed"
	SourceEdit           = "edit"
	SourceDelete         = "delete"
)
