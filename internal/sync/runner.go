// Package sync pulls provider records through registered adapters on a
// schedule, one batched fetch per connection and entity.
package sync

import (
	"context"
	"errors"
)

// Runner executes a single sync pass.
type Runner interface {
	RunOnce(context.Context) error
}

// ErrNoConnections is returned when a sync pass finds nothing to do.
var ErrNoConnections = errors.New("no connections are configured")
