package palisade

import "context"

// Cache provides caching for authorization check results.
type Cache interface {
	// Get returns a cached check result, if available. The result must be
	// safe for the caller to mutate; the engine stamps eval time into it.
	Get(ctx context.Context, tenantID string, req *CheckRequest) (*CheckResult, bool)

	// Set stores a check result in the cache.
	Set(ctx context.Context, tenantID string, req *CheckRequest, result *CheckResult)

	// InvalidateTenant removes all cached results for a tenant.
	InvalidateTenant(ctx context.Context, tenantID string)

	// InvalidateUser removes all cached results for a specific user.
	// Called after grant writes so overrides take effect immediately.
	InvalidateUser(ctx context.Context, tenantID, userID string)
}
