// Package store defines the composite storage interface backends implement.
package store

import (
	"context"

	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/decisionlog"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/relation"
)

// Store is the composite persistence interface. A backend provides every
// subsystem; the engine and managers only see the slices they need.
type Store interface {
	grant.Store
	block.Store
	relation.Store
	decisionlog.Store

	// Migrate runs any pending schema migrations.
	Migrate(ctx context.Context) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
