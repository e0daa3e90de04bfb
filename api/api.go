// Package api provides HTTP handlers for the Palisade authorization engine.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/classboard/palisade"
)

// API wires all Palisade HTTP handlers together.
type API struct {
	eng    *palisade.Engine
	router forge.Router
}

// New creates an API from an Engine and a Forge router.
func New(eng *palisade.Engine, router forge.Router) *API {
	return &API{eng: eng, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("palisade: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerCheckRoutes,
		a.registerGrantRoutes,
		a.registerBlockRoutes,
		a.registerRelationRoutes,
		a.registerDecisionLogRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
