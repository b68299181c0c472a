package inngest

import (
	"context"
	"net/http"
)

type InngestClient interface {
	Serve() http.Handler
	SendEvent(ctx context.Context, name string, data map[string]any) error
}

// Expirer auto-confirms pending matches past their deadline.
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}
