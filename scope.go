package palisade

import (
	"context"

	"github.com/xraph/forge"
)

type tenantScope struct {
	appID    string
	tenantID string
}

// scopeFromContext extracts tenant scope from forge.Scope or standalone
// context. A board is the tenant; every grant, block, relation and decision
// log row is keyed by it. Falls back to the explicit tenant when Forge
// scope is not set (standalone mode).
// TenantFromContext returns the app and tenant (board) IDs seen by the
// engine for this context. Domain managers and HTTP handlers use it to key
// store calls the same way the engine does.
func TenantFromContext(ctx context.Context) (appID, tenantID string) {
	s := scopeFromContext(ctx)
	return s.appID, s.tenantID
}

func scopeFromContext(ctx context.Context) tenantScope {
	s, ok := forge.ScopeFrom(ctx)
	if ok {
		return tenantScope{
			appID:    s.AppID(),
			tenantID: s.OrgID(),
		}
	}
	return tenantScope{
		appID:    appIDFromContext(ctx),
		tenantID: tenantIDFromContext(ctx),
	}
}
