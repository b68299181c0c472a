package league

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Sweeper periodically auto-confirms pending matches past their deadline.
type Sweeper struct {
	engine   *Engine
	interval time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex
}

// NewSweeper creates a sweeper that runs every interval. A non-positive
// interval disables it.
func NewSweeper(engine *Engine, interval time.Duration) *Sweeper {
	return &Sweeper{engine: engine, interval: interval}
}

// Start begins sweeping in the background. Calling it twice is a no-op.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 {
		log.Info("Expiry sweeper disabled")
		return
	}
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.stop)
	log.Info("Expiry sweeper started", "interval", s.interval)
}

// Stop halts the sweeper and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}
	close(s.stop)
	s.wg.Wait()
	s.stop = nil
	log.Info("Expiry sweeper stopped")
}

// Run sweeps until ctx is done. It blocks, for use in an errgroup.
func (s *Sweeper) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Sweeper) run(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	s.sweep(ctx)
	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-stop:
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.engine.ExpireDue(ctx); err != nil && ctx.Err() == nil {
		s.engine.metrics.IncSweepFailures()
		log.Error("Expiry sweep failed", "error", err)
	}
}
