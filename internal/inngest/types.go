package inngest

import (
	"github.com/inngest/inngestgo"
)

type client struct {
	inngestClient inngestgo.Client
	expirer       Expirer
}

// EventExpirePending asks the durable function to sweep due pending matches.
const EventExpirePending = "ladder/pending.expire"

// ExpireResult is returned by the expiry function run.
type ExpireResult struct {
	Expired int `json:"expired"`
}
