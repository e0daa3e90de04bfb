// Package plugin defines the plugin system for Palisade.
// Plugins are notified of lifecycle events (check evaluated, grant added,
// block deleted, etc.) and can react, for example with logging or metrics.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
	"github.com/classboard/palisade/relation"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Check lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before an authorization check is evaluated.
// The req parameter is *palisade.CheckRequest (passed as any to avoid import cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after an authorization check completes.
// The req parameter is *palisade.CheckRequest; result is *palisade.CheckResult.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Grant lifecycle hooks
// ──────────────────────────────────────────────────

// GrantAdded is called after a direct grant is created.
type GrantAdded interface {
	OnGrantAdded(ctx context.Context, g *grant.Grant) error
}

// GrantRevoked is called after a direct grant is revoked.
type GrantRevoked interface {
	OnGrantRevoked(ctx context.Context, grantID id.GrantID) error
}

// ──────────────────────────────────────────────────
// Block lifecycle hooks
// ──────────────────────────────────────────────────

// BlockCreated is called after a block is created.
type BlockCreated interface {
	OnBlockCreated(ctx context.Context, b *block.Block) error
}

// BlockUpdated is called after a block's attributes are updated.
type BlockUpdated interface {
	OnBlockUpdated(ctx context.Context, b *block.Block) error
}

// BlockDeleted is called after a block is deleted.
type BlockDeleted interface {
	OnBlockDeleted(ctx context.Context, key string) error
}

// ──────────────────────────────────────────────────
// Relation lifecycle hooks
// ──────────────────────────────────────────────────

// RelationsUpdated is called after a source block's relation sets change.
type RelationsUpdated interface {
	OnRelationsUpdated(ctx context.Context, sourceID string, upd *relation.Update) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
