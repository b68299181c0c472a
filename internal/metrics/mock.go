package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	matchesCommitted int
	matchesDeleted   int
	matchesEdited    int
	pendingCreated   int
	pendingResolved  map[string]int
	recalculations   int
	recalcDurations  []float64
	sweepFailures    int
	slackNotifSent   int
	slackNotifFailed int
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		pendingResolved: make(map[string]int),
		recalcDurations: make([]float64, 0),
	}
}

func (m *Mock) IncMatchesCommitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesCommitted++
}

func (m *Mock) IncMatchesDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesDeleted++
}

func (m *Mock) IncMatchesEdited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesEdited++
}

func (m *Mock) IncPendingCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingCreated++
}

func (m *Mock) IncPendingResolved(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingResolved[outcome]++
}

func (m *Mock) IncRecalculations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recalculations++
}

func (m *Mock) ObserveRecalcDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recalcDurations = append(m.recalcDurations, duration)
}

func (m *Mock) IncSweepFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepFailures++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// MatchesCommitted returns the number of times IncMatchesCommitted was called.
func (m *Mock) MatchesCommitted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesCommitted
}

// MatchesDeleted returns the number of times IncMatchesDeleted was called.
func (m *Mock) MatchesDeleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesDeleted
}

// MatchesEdited returns the number of times IncMatchesEdited was called.
func (m *Mock) MatchesEdited() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesEdited
}

// PendingCreated returns the number of times IncPendingCreated was called.
func (m *Mock) PendingCreated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingCreated
}

// PendingResolved returns how often a pending match resolved with outcome.
func (m *Mock) PendingResolved(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingResolved[outcome]
}

// Recalculations returns the number of times IncRecalculations was called.
func (m *Mock) Recalculations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recalculations
}

// SweepFailures returns the number of times IncSweepFailures was called.
func (m *Mock) SweepFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepFailures
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
