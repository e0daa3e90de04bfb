package plugin

import (
	"context"
	"log/slog"

	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
	"github.com/classboard/palisade/relation"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeCheckEntry struct {
	name string
	hook BeforeCheck
}
type afterCheckEntry struct {
	name string
	hook AfterCheck
}
type grantAddedEntry struct {
	name string
	hook GrantAdded
}
type grantRevokedEntry struct {
	name string
	hook GrantRevoked
}
type blockCreatedEntry struct {
	name string
	hook BlockCreated
}
type blockUpdatedEntry struct {
	name string
	hook BlockUpdated
}
type blockDeletedEntry struct {
	name string
	hook BlockDeleted
}
type relationsUpdatedEntry struct {
	name string
	hook RelationsUpdated
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck      []beforeCheckEntry
	afterCheck       []afterCheckEntry
	grantAdded       []grantAddedEntry
	grantRevoked     []grantRevokedEntry
	blockCreated     []blockCreatedEntry
	blockUpdated     []blockUpdatedEntry
	blockDeleted     []blockDeletedEntry
	relationsUpdated []relationsUpdatedEntry
	shutdown         []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeCheck); ok {
		r.beforeCheck = append(r.beforeCheck, beforeCheckEntry{name, h})
	}
	if h, ok := p.(AfterCheck); ok {
		r.afterCheck = append(r.afterCheck, afterCheckEntry{name, h})
	}
	if h, ok := p.(GrantAdded); ok {
		r.grantAdded = append(r.grantAdded, grantAddedEntry{name, h})
	}
	if h, ok := p.(GrantRevoked); ok {
		r.grantRevoked = append(r.grantRevoked, grantRevokedEntry{name, h})
	}
	if h, ok := p.(BlockCreated); ok {
		r.blockCreated = append(r.blockCreated, blockCreatedEntry{name, h})
	}
	if h, ok := p.(BlockUpdated); ok {
		r.blockUpdated = append(r.blockUpdated, blockUpdatedEntry{name, h})
	}
	if h, ok := p.(BlockDeleted); ok {
		r.blockDeleted = append(r.blockDeleted, blockDeletedEntry{name, h})
	}
	if h, ok := p.(RelationsUpdated); ok {
		r.relationsUpdated = append(r.relationsUpdated, relationsUpdatedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Check event emitters
// ──────────────────────────────────────────────────

// EmitBeforeCheck notifies all plugins that implement BeforeCheck.
func (r *Registry) EmitBeforeCheck(ctx context.Context, req any) {
	for _, e := range r.beforeCheck {
		if err := e.hook.OnBeforeCheck(ctx, req); err != nil {
			r.logHookError("OnBeforeCheck", e.name, err)
		}
	}
}

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, req, result any) {
	for _, e := range r.afterCheck {
		if err := e.hook.OnAfterCheck(ctx, req, result); err != nil {
			r.logHookError("OnAfterCheck", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Grant event emitters
// ──────────────────────────────────────────────────

// EmitGrantAdded notifies all plugins that implement GrantAdded.
func (r *Registry) EmitGrantAdded(ctx context.Context, g *grant.Grant) {
	for _, e := range r.grantAdded {
		if err := e.hook.OnGrantAdded(ctx, g); err != nil {
			r.logHookError("OnGrantAdded", e.name, err)
		}
	}
}

// EmitGrantRevoked notifies all plugins that implement GrantRevoked.
func (r *Registry) EmitGrantRevoked(ctx context.Context, grantID id.GrantID) {
	for _, e := range r.grantRevoked {
		if err := e.hook.OnGrantRevoked(ctx, grantID); err != nil {
			r.logHookError("OnGrantRevoked", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Block event emitters
// ──────────────────────────────────────────────────

// EmitBlockCreated notifies all plugins that implement BlockCreated.
func (r *Registry) EmitBlockCreated(ctx context.Context, b *block.Block) {
	for _, e := range r.blockCreated {
		if err := e.hook.OnBlockCreated(ctx, b); err != nil {
			r.logHookError("OnBlockCreated", e.name, err)
		}
	}
}

// EmitBlockUpdated notifies all plugins that implement BlockUpdated.
func (r *Registry) EmitBlockUpdated(ctx context.Context, b *block.Block) {
	for _, e := range r.blockUpdated {
		if err := e.hook.OnBlockUpdated(ctx, b); err != nil {
			r.logHookError("OnBlockUpdated", e.name, err)
		}
	}
}

// EmitBlockDeleted notifies all plugins that implement BlockDeleted.
func (r *Registry) EmitBlockDeleted(ctx context.Context, key string) {
	for _, e := range r.blockDeleted {
		if err := e.hook.OnBlockDeleted(ctx, key); err != nil {
			r.logHookError("OnBlockDeleted", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Relation event emitters
// ──────────────────────────────────────────────────

// EmitRelationsUpdated notifies all plugins that implement RelationsUpdated.
func (r *Registry) EmitRelationsUpdated(ctx context.Context, sourceID string, upd *relation.Update) {
	for _, e := range r.relationsUpdated {
		if err := e.hook.OnRelationsUpdated(ctx, sourceID, upd); err != nil {
			r.logHookError("OnRelationsUpdated", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated; they must not block the pipeline.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
