package grant

import (
	"context"

	"github.com/classboard/palisade/id"
)

// Store defines persistence operations for direct grants.
type Store interface {
	// CreateGrant persists a new grant.
	CreateGrant(ctx context.Context, g *Grant) error

	// GetGrant retrieves a grant by ID.
	GetGrant(ctx context.Context, grantID id.GrantID) (*Grant, error)

	// DeleteGrant removes a grant by ID.
	DeleteGrant(ctx context.Context, grantID id.GrantID) error

	// FindGrant returns the grant for an exact (user, layer) pair, or nil.
	FindGrant(ctx context.Context, tenantID, userID, layerID string) (*Grant, error)

	// ListGrantsForUser returns all grants held by a user, including
	// pattern grants whose layer id carries a trailing glob.
	ListGrantsForUser(ctx context.Context, tenantID, userID string) ([]*Grant, error)

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// CountGrants returns the number of grants matching the filter.
	CountGrants(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteGrantsByUser removes all grants held by a user.
	DeleteGrantsByUser(ctx context.Context, tenantID, userID string) error

	// DeleteGrantsByLayer removes all grants on an exact layer id.
	DeleteGrantsByLayer(ctx context.Context, tenantID, layerID string) error

	// DeleteGrantsByTenant removes all grants for a tenant.
	DeleteGrantsByTenant(ctx context.Context, tenantID string) error
}
