package palisade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/classboard/palisade/decisionlog"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
	"github.com/classboard/palisade/plugin"
	"github.com/classboard/palisade/store"
)

// Engine is the central authorization engine. It resolves checks against the
// layer tree, applies per-user direct-grant overrides, manages the store,
// and fires extension hooks.
type Engine struct {
	store   store.Store
	tree    *Tree
	roles   RoleMapper
	cache   Cache
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config
}

// NewEngine creates a new Palisade engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		tree:   DefaultSchoolTree(),
		roles:  DefaultRoleMapper(),
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("palisade: store is required")
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Tree returns the layer tree the engine resolves against.
func (e *Engine) Tree() *Tree { return e.tree }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Check performs an authorization check. This is the hot path.
//
// Malformed requests (unknown action, empty layer, unmapped role) deny with
// a diagnostic decision; Check returns an error only on store failure.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()
	scope := scopeFromContext(ctx)

	if req.Layer.Variant == "" {
		req.Layer.Variant = e.config.defaultVariant()
	}

	// 1. Malformed input denies, it never raises.
	if !req.Action.Valid() || req.Action == ActionBlocked || req.Layer.ID == "" {
		res := deny(DecisionDenyInvalid, fmt.Sprintf("invalid request: action=%q layer=%q", req.Action, req.Layer.ID))
		return e.finish(ctx, scope, req, CategoryAnyone, res, start), nil
	}

	// 2. Cache hit?
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, scope.tenantID, req); ok {
			cached.EvalTimeNs = time.Since(start).Nanoseconds()
			return cached, nil
		}
	}

	// 3. Extension hook: before check.
	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	// 4. Direct grants override tree resolution entirely. The lookup is
	// keyed by user id alone, so it runs before role mapping and a subject
	// with an unmapped role can still hold one.
	if e.config.directGrantsEnabled() && req.Subject.ID != "" {
		res, err := e.checkDirectGrants(ctx, scope, req)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return e.cacheAndFinish(ctx, scope, req, e.auditCategory(req), res, start), nil
		}
	}

	// 5. Map the role to a category. Callers set Category directly for
	// owner checks; otherwise the mapper decides.
	category := req.Subject.Category
	if category == "" {
		mapped, ok := e.roles.Category(req.Subject.Role)
		if !ok {
			res := deny(DecisionDenyUnknownRole, fmt.Sprintf("role %q has no category mapping", req.Subject.Role))
			return e.finish(ctx, scope, req, CategoryAnyone, res, start), nil
		}
		category = mapped
	}

	// 6. Resolve the layer tree.
	permitted := e.tree.Resolve(req.Layer.ID, req.Layer.Variant, category)

	var res *CheckResult
	switch {
	case permitted == ActionBlocked:
		res = deny(DecisionDenyBlocked, fmt.Sprintf("category %q is blocked at layer %q", category, req.Layer.ID))
	case AtLeast(permitted, req.Action):
		res = &CheckResult{
			Granted:  true,
			Decision: DecisionGrant,
			Reason:   fmt.Sprintf("category %q holds %q at layer %q", category, permitted, req.Layer.ID),
			MatchedBy: []MatchInfo{{
				Source: "rule",
				Rule:   string(permitted),
				Detail: req.Layer.ID,
			}},
		}
	default:
		res = deny(DecisionDenyThreshold, fmt.Sprintf("category %q holds %q, request needs %q", category, permitted, req.Action))
	}

	return e.cacheAndFinish(ctx, scope, req, category, res, start), nil
}

// auditCategory maps the subject for the decision log only. Grant results
// do not depend on it; an unmapped role logs an empty category.
func (e *Engine) auditCategory(req *CheckRequest) Category {
	if req.Subject.Category != "" {
		return req.Subject.Category
	}
	c, _ := e.roles.Category(req.Subject.Role)
	return c
}

// checkDirectGrants returns a grant_direct result when a grant covers the
// request, nil when no grant applies.
func (e *Engine) checkDirectGrants(ctx context.Context, scope tenantScope, req *CheckRequest) (*CheckResult, error) {
	grants, err := e.store.ListGrantsForUser(ctx, scope.tenantID, req.Subject.ID)
	if err != nil {
		return nil, fmt.Errorf("palisade grants: %w", err)
	}
	for _, g := range grants {
		if !matchLayer(g.LayerID, req.Layer.ID) {
			continue
		}
		if AtLeast(Action(g.Action), req.Action) {
			return &CheckResult{
				Granted:  true,
				Decision: DecisionGrantDirect,
				Reason:   fmt.Sprintf("direct grant %s covers %q at layer %q", g.ID, req.Action, req.Layer.ID),
				MatchedBy: []MatchInfo{{
					Source: "direct",
					Rule:   g.Action,
					Detail: g.LayerID,
				}},
			}, nil
		}
	}
	return nil, nil
}

// cacheAndFinish stores the result in the cache, then runs the shared
// completion path.
func (e *Engine) cacheAndFinish(ctx context.Context, scope tenantScope, req *CheckRequest, category Category, res *CheckResult, start time.Time) *CheckResult {
	if e.cache != nil {
		e.cache.Set(ctx, scope.tenantID, req, res)
	}
	return e.finish(ctx, scope, req, category, res, start)
}

// finish stamps the eval time, writes the decision log, and fires the
// after-check hook. Audit failures are logged, never propagated.
func (e *Engine) finish(ctx context.Context, scope tenantScope, req *CheckRequest, category Category, res *CheckResult, start time.Time) *CheckResult {
	res.EvalTimeNs = time.Since(start).Nanoseconds()

	if e.config.decisionLogEnabled() {
		entry := &decisionlog.Entry{
			ID:         id.NewDecisionLogID(),
			TenantID:   scope.tenantID,
			AppID:      scope.appID,
			UserID:     req.Subject.ID,
			Role:       req.Subject.Role,
			Category:   string(category),
			LayerID:    req.Layer.ID,
			Variant:    string(req.Layer.Variant),
			Action:     string(req.Action),
			Decision:   string(res.Decision),
			Reason:     res.Reason,
			EvalTimeNs: res.EvalTimeNs,
			CreatedAt:  time.Now(),
		}
		if err := e.store.CreateDecisionLog(ctx, entry); err != nil {
			e.logger.Warn("decision log write failed",
				slog.String("layer", req.Layer.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, res)
	}
	return res
}

func deny(d Decision, reason string) *CheckResult {
	return &CheckResult{Decision: d, Reason: reason}
}

// IsGranted reports whether the check is granted, discarding diagnostics.
func (e *Engine) IsGranted(ctx context.Context, req *CheckRequest) (bool, error) {
	res, err := e.Check(ctx, req)
	if err != nil {
		return false, err
	}
	return res.Granted, nil
}

// BatchCheck evaluates multiple checks in order. Denies are values in the
// results like in Check; the first store failure aborts the batch.
func (e *Engine) BatchCheck(ctx context.Context, reqs []*CheckRequest) ([]*CheckResult, error) {
	results := make([]*CheckResult, len(reqs))
	for i, req := range reqs {
		res, err := e.Check(ctx, req)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

// Enforce returns an error if the authorization check is denied.
func (e *Engine) Enforce(ctx context.Context, req *CheckRequest) error {
	res, err := e.Check(ctx, req)
	if err != nil {
		return fmt.Errorf("palisade check: %w", err)
	}
	if !res.Granted {
		return fmt.Errorf("%w: %s: %s", ErrAccessDenied, res.Decision, res.Reason)
	}
	return nil
}

// CanI is a shorthand for a simple authorization check.
func (e *Engine) CanI(ctx context.Context, role, userID string, action Action, layerID string) (bool, error) {
	return e.IsGranted(ctx, &CheckRequest{
		Subject: Subject{Role: role, ID: userID},
		Action:  action,
		Layer:   Layer{ID: layerID},
	})
}

// Grant creates a direct grant giving userID the given action level at
// layerID, invalidating the user's cached results so the override applies
// immediately.
func (e *Engine) Grant(ctx context.Context, userID, layerID string, action Action, grantedBy string) (*grant.Grant, error) {
	if userID == "" || layerID == "" || !action.Valid() || action == ActionBlocked {
		return nil, fmt.Errorf("%w: user=%q layer=%q action=%q", ErrInvalidGrant, userID, layerID, action)
	}
	scope := scopeFromContext(ctx)

	g := &grant.Grant{
		ID:        id.NewGrantID(),
		TenantID:  scope.tenantID,
		AppID:     scope.appID,
		UserID:    userID,
		LayerID:   layerID,
		Action:    string(action),
		GrantedBy: grantedBy,
		CreatedAt: time.Now(),
	}
	if err := e.store.CreateGrant(ctx, g); err != nil {
		return nil, fmt.Errorf("palisade grant: %w", err)
	}

	if e.cache != nil {
		e.cache.InvalidateUser(ctx, scope.tenantID, userID)
	}
	if e.plugins != nil {
		e.plugins.EmitGrantAdded(ctx, g)
	}

	e.logger.Info("direct grant created",
		slog.String("grant_id", g.ID.String()),
		slog.String("user_id", userID),
		slog.String("layer_id", layerID),
		slog.String("action", string(action)),
	)
	return g, nil
}

// Revoke removes a direct grant by id and invalidates the holder's cached
// results. Revocation is always explicit; grants never expire on their own.
func (e *Engine) Revoke(ctx context.Context, grantID id.GrantID) error {
	scope := scopeFromContext(ctx)

	g, err := e.store.GetGrant(ctx, grantID)
	if err != nil {
		return fmt.Errorf("palisade revoke: %w", err)
	}
	if err := e.store.DeleteGrant(ctx, grantID); err != nil {
		return fmt.Errorf("palisade revoke: %w", err)
	}

	if e.cache != nil {
		e.cache.InvalidateUser(ctx, scope.tenantID, g.UserID)
	}
	if e.plugins != nil {
		e.plugins.EmitGrantRevoked(ctx, grantID)
	}

	e.logger.Info("direct grant revoked",
		slog.String("grant_id", grantID.String()),
		slog.String("user_id", g.UserID),
	)
	return nil
}

// RevokeFor removes the grant a user holds on an exact layer id, if any.
// Revoking an absent grant is not an error.
func (e *Engine) RevokeFor(ctx context.Context, userID, layerID string) error {
	scope := scopeFromContext(ctx)
	g, err := e.store.FindGrant(ctx, scope.tenantID, userID, layerID)
	if err != nil {
		return fmt.Errorf("palisade revoke: %w", err)
	}
	if g == nil {
		return nil
	}
	return e.Revoke(ctx, g.ID)
}
