package confirmation

import (
	"time"

	"github.com/mauv0809/racket-ladder/internal/domain"
)

// DefaultTTL is how long a pending match waits for confirmations.
const DefaultTTL = 24 * time.Hour

// Resolution is the outcome of a transition. Match is set when the
// transition committed the result to the ledger.
type Resolution struct {
	Pending *domain.PendingMatch `json:"pending"`
	Match   *domain.Match        `json:"match,omitempty"`
}

// Action names a transition request.
type Action string

const (
	ActionConfirm      Action = "confirm"
	ActionDispute      Action = "dispute"
	ActionForceConfirm Action = "force-confirm"
	ActionReject       Action = "reject"
	ActionExpire       Action = "expire"
)

// allowedFrom lists the non-terminal states each action may start from.
var allowedFrom = map[Action][]domain.PendingStatus{
	ActionConfirm:      {domain.PendingStatusPending},
	ActionDispute:      {domain.PendingStatusPending},
	ActionForceConfirm: {domain.PendingStatusPending, domain.PendingStatusDisputed},
	ActionReject:       {domain.PendingStatusPending, domain.PendingStatusDisputed},
	ActionExpire:       {domain.PendingStatusPending},
}

// CheckTransition reports whether action is allowed on p.
func CheckTransition(p *domain.PendingMatch, action Action) error {
	if p.Status.Terminal() {
		return &domain.AlreadyResolvedError{PendingID: p.ID, Status: p.Status}
	}
	for _, from := range allowedFrom[action] {
		if p.Status == from {
			return nil
		}
	}
	return &domain.TransitionError{PendingID: p.ID, From: p.Status, Action: string(action)}
}
