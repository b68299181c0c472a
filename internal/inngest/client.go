package inngest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
)

// New registers the ladder's durable functions on inngestClient.
func New(inngestClient inngestgo.Client, expirer Expirer) InngestClient {
	c := &client{
		inngestClient: inngestClient,
		expirer:       expirer,
	}
	c.createExpirePendingFunction()
	return c
}

func (i *client) createExpirePendingFunction() inngestgo.ServableFunction {
	config := inngestgo.FunctionOpts{
		ID:   "expire-pending-matches",
		Name: "Auto-confirm expired pending matches",
	}
	f, err := inngestgo.CreateFunction(
		i.inngestClient,
		config,
		inngestgo.EventTrigger(EventExpirePending, nil),
		func(ctx context.Context, input inngestgo.Input[map[string]any]) (any, error) {
			// Retried as a whole on failure; ExpireDue is idempotent.
			expired, err := step.Run(ctx, "expire-due", func(ctx context.Context) (int, error) {
				return i.expirer.ExpireDue(ctx)
			})
			if err != nil {
				return nil, err
			}
			log.Info("Inngest expiry run finished", "expired", expired)
			return ExpireResult{Expired: expired}, nil
		},
	)
	if err != nil {
		log.Fatal("Failed to create function", "error", err)
	}
	return f
}

func (i *client) Serve() http.Handler {
	return i.inngestClient.Serve()
}

func (i *client) SendEvent(ctx context.Context, name string, data map[string]any) error {
	if _, err := i.inngestClient.Send(ctx, inngestgo.Event{Name: name, Data: data}); err != nil {
		return fmt.Errorf("failed to send inngest event %s: %w", name, err)
	}
	return nil
}
