package extension

import (
	"log/slog"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/plugin"
	"github.com/classboard/palisade/store"
)

// ExtOption configures the Palisade Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.palisadeOpts = append(e.palisadeOpts, palisade.WithStore(s))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithEngineOptions adds engine-level options.
func WithEngineOptions(opts ...palisade.Option) ExtOption {
	return func(e *Extension) {
		e.palisadeOpts = append(e.palisadeOpts, opts...)
	}
}

// WithTree sets the layer tree the engine resolves against.
func WithTree(t *palisade.Tree) ExtOption {
	return func(e *Extension) {
		e.palisadeOpts = append(e.palisadeOpts, palisade.WithTree(t))
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables auto-migration on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
