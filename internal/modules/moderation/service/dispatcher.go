package service

import (
	"context"

	"github.com/samber/oops"
)

// Banner is the platform's ban primitive.
type Banner interface {
	BanMember(ctx context.Context, chatID int64, userID int64) error
}

// Dispatcher executes ban actions. One platform call per invocation, no
// retry and no backoff: permission revoked between check and act, transient
// network failures and rate limits all surface to the caller as a wrapped
// ban failure.
type Dispatcher struct {
	banner Banner
}

// NewDispatcher creates a ban dispatcher.
func NewDispatcher(banner Banner) *Dispatcher {
	return &Dispatcher{banner: banner}
}

// Ban removes userID from chatID. Calls the platform exactly once.
func (d *Dispatcher) Ban(ctx context.Context, chatID int64, userID int64) error {
	if err := d.banner.BanMember(ctx, chatID, userID); err != nil {
		return oops.With("chat_id", chatID, "user_id", userID, "context", "ban failed").Wrap(err)
	}
	return nil
}
