// Package store persists per-frame measurements outside the CSV summary.
package store

import (
	"context"

	"github.com/cellframe/internal/summary"
)

// Store receives the measurements of a run in frame order.
type Store interface {
	// Add queues measurements; implementations may write them in batches.
	Add(ctx context.Context, ms ...summary.Measurement) error

	// Close writes anything still pending and releases the connection.
	Close(ctx context.Context) error

	// Abort discards the measurements of a failed run and releases the
	// connection.
	Abort(ctx context.Context) error
}
