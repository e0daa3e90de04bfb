package palisade

import (
	"log/slog"

	"github.com/classboard/palisade/plugin"
	"github.com/classboard/palisade/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithTree sets the protected-resource layer tree.
func WithTree(t *Tree) Option { return func(e *Engine) { e.tree = t } }

// WithRoleMapper sets the role→category mapper.
func WithRoleMapper(m RoleMapper) Option { return func(e *Engine) { e.roles = m } }

// WithCache sets the check result cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) {
		if e.plugins == nil {
			e.plugins = plugin.NewRegistry(e.logger)
		}
		e.plugins.Register(x)
	}
}
