package inngest

import (
	"context"
	"net/http"
	"sync"
)

// Mock is a mock InngestClient that records sent events.
type Mock struct {
	mu     sync.Mutex
	Events []string

	SendEventFunc func(ctx context.Context, name string, data map[string]any) error
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Serve() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (m *Mock) SendEvent(ctx context.Context, name string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, name)
	if m.SendEventFunc != nil {
		return m.SendEventFunc(ctx, name, data)
	}
	return nil
}
