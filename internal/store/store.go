// Package store persists run state checkpoints.
package store

import (
	"context"
	"errors"
	"fmt"

	"newsgraph/internal/config"
	"newsgraph/internal/core"
)

// ErrNotFound is returned when no checkpoint exists for a run.
var ErrNotFound = errors.New("run not found")

// Checkpointer saves and restores the full state of a run. Save replaces
// the latest checkpoint atomically.
type Checkpointer interface {
	Save(ctx context.Context, state *core.RunState) error
	Load(ctx context.Context, runID string) (*core.RunState, error)
	Close() error
}

const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// New opens the checkpointer selected by the configured driver.
func New(cfg config.Checkpoint) (Checkpointer, error) {
	switch cfg.Driver {
	case "", DriverNone:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(cfg.Directory)
	case DriverPostgres:
		return NewPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported checkpoint driver: %s", cfg.Driver)
	}
}
