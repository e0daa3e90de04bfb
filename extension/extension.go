// Package extension provides a Forge extension entry point for Palisade.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/vessel"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/api"
	"github.com/classboard/palisade/plugin"
	"github.com/classboard/palisade/store"
	"github.com/classboard/palisade/store/mongo"
	"github.com/classboard/palisade/store/postgres"
	"github.com/classboard/palisade/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "palisade"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Hierarchical layer-tree authorization engine with direct grants"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Palisade as a Forge extension.
type Extension struct {
	config       Config
	eng          *palisade.Engine
	apiHandler   *api.API
	logger       *slog.Logger
	palisadeOpts []palisade.Option
	plugins      []plugin.Plugin
}

// New creates a Palisade Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Engine returns the underlying Palisade engine.
func (e *Extension) Engine() *palisade.Engine { return e.eng }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the engine,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	// Register the engine in the DI container.
	if err := vessel.Provide(fapp.Container(), func() (*palisade.Engine, error) {
		return e.eng, nil
	}); err != nil {
		return fmt.Errorf("palisade: register engine in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Build engine options.
	opts := make([]palisade.Option, 0, len(e.palisadeOpts)+len(e.plugins)+2)
	opts = append(opts, palisade.WithLogger(logger))

	// Resolve a store from the DI container: an explicit store.Store wins,
	// otherwise a registered grove.DB auto-constructs the backend matching
	// its driver.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, palisade.WithStore(s))
	} else if db, err := forge.Inject[*grove.DB](fapp.Container()); err == nil {
		s, err := storeFromGrove(db)
		if err != nil {
			return err
		}
		opts = append(opts, palisade.WithStore(s))
	}

	// Load a layer tree from YAML when configured.
	if e.config.TreeFile != "" {
		tree, err := palisade.LoadTree(e.config.TreeFile)
		if err != nil {
			return fmt.Errorf("palisade: load layer tree: %w", err)
		}
		opts = append(opts, palisade.WithTree(tree))
	}

	// Append user-provided options (may override store and tree).
	opts = append(opts, e.palisadeOpts...)

	// Register extension hooks.
	for _, x := range e.plugins {
		opts = append(opts, palisade.WithPlugin(x))
	}

	eng, err := palisade.NewEngine(opts...)
	if err != nil {
		return fmt.Errorf("palisade: create engine: %w", err)
	}
	e.eng = eng

	// Create API handler.
	e.apiHandler = api.New(eng, fapp.Router())

	// Register HTTP routes unless disabled.
	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("palisade: register routes: %w", err)
		}
	}

	return nil
}

// storeFromGrove builds the store backend matching the grove driver.
func storeFromGrove(db *grove.DB) (store.Store, error) {
	if pgdb := pgdriver.Unwrap(db); pgdb != nil {
		return postgres.New(db), nil
	}
	if sdb := sqlitedriver.Unwrap(db); sdb != nil {
		return sqlite.New(db), nil
	}
	if mdb := mongodriver.Unwrap(db); mdb != nil {
		return mongo.New(db), nil
	}
	return nil, errors.New("palisade: unsupported grove driver")
}

// Start begins the engine and runs migrations if enabled.
func (e *Extension) Start(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("palisade: extension not initialized")
	}

	// Run migrations unless disabled.
	if !e.config.DisableMigrate {
		s := e.eng.Store()
		if s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("palisade: migration failed: %w", err)
			}
		}
	}

	return e.eng.Start(ctx)
}

// Stop gracefully shuts down the engine.
func (e *Extension) Stop(ctx context.Context) error {
	if e.eng == nil {
		return nil
	}
	return e.eng.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.eng == nil {
		return errors.New("palisade: extension not initialized")
	}
	s := e.eng.Store()
	if s == nil {
		return errors.New("palisade: no store configured")
	}
	return s.Ping(ctx)
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all Palisade API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
