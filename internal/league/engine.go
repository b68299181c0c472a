package league

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/racket-ladder/internal/confirmation"
	"github.com/mauv0809/racket-ladder/internal/domain"
	"github.com/mauv0809/racket-ladder/internal/ledger"
	"github.com/mauv0809/racket-ladder/internal/metrics"
	"github.com/mauv0809/racket-ladder/internal/projector"
	"github.com/mauv0809/racket-ladder/internal/pubsub"
	"github.com/mauv0809/racket-ladder/internal/season"
)

// Engine is the single entry point for every ladder operation. Mutations of
// one league are serialized; reads are not.
type Engine struct {
	ledger    ledger.Store
	projector *projector.Projector
	workflow  confirmation.Workflow
	seasons   season.Controller
	publisher pubsub.PubSubClient
	metrics   metrics.Metrics
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New wires the ledger, projector, confirmation workflow and season
// controller over db.
func New(db *sql.DB, cfg Config, publisher pubsub.PubSubClient, m metrics.Metrics, opts ...Option) *Engine {
	e := &Engine{
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ledger = ledger.New(db, cfg.Policy, ledger.WithClock(e.now))
	e.projector = projector.New(e.ledger, cfg.Policy)
	e.workflow = confirmation.New(db, e.ledger, confirmation.WithTTL(cfg.PendingTTL), confirmation.WithClock(e.now))
	e.seasons = season.New(db, e.ledger, season.WithClock(e.now))
	return e
}

// lock acquires the writer lock of leagueID and returns its release.
func (e *Engine) lock(leagueID string) func() {
	e.mu.Lock()
	l, ok := e.locks[leagueID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[leagueID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// publish sends events best-effort. A failed publish never undoes the
// mutation it reports.
func (e *Engine) publish(events ...event) {
	for _, ev := range events {
		if err := e.publisher.SendMessage(ev.topic, ev.data); err != nil {
			log.Error("Failed to publish event", "topic", ev.topic, "error", err)
		}
	}
}

func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Millisecond)
}

// resolved turns a workflow resolution into metrics and events.
func (e *Engine) resolved(res *confirmation.Resolution, source string) []event {
	if res == nil {
		return nil
	}
	e.metrics.IncPendingResolved(string(res.Pending.Status))
	if res.Match == nil {
		return nil
	}
	e.metrics.IncMatchesCommitted()
	log.Info("Committed pending match", "pendingID", res.Pending.ID, "matchID", res.Match.ID, "source", source)
	return []event{{topic: pubsub.EventMatchCommitted, data: pubsub.MatchEvent{Match: res.Match, Source: source}}}
}

// Names resolves display names for the given player ids. Unknown ids are
// left out.
func (e *Engine) Names(ctx context.Context, ids ...string) map[string]string {
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if _, ok := names[id]; ok {
			continue
		}
		p, err := e.ledger.GetPlayer(ctx, id)
		if err != nil {
			if !domain.IsNotFound(err) {
				log.Warn("Failed to resolve player name", "playerID", id, "error", err)
			}
			continue
		}
		names[id] = p.Name
	}
	return names
}
