package chat

import (
	"classrent/src/types"
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("assistant is not configured")

type Requester struct {
	ID   uint
	Name string
	Role types.UserRole
}

// Assistant answers free-text messages. Implementations backed by a language model
// plug in here; the mediator falls back to keyword matching when one fails.
type Assistant interface {
	Respond(ctx context.Context, message string, who Requester) (Reply, error)
}

type NotConfigured struct{}

func (NotConfigured) Respond(context.Context, string, Requester) (Reply, error) {
	return nil, ErrNotConfigured
}
