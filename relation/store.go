package relation

import "context"

// Store defines persistence operations for relation edge sets.
type Store interface {
	// UpdateRelations applies an Update to the source block's relation
	// sets. Operations within one call are atomic relative to concurrent
	// readers of the same source id.
	UpdateRelations(ctx context.Context, tenantID, sourceID string, upd *Update) error

	// NavRelation returns the member set of one named relation as
	// memberID→score. labelFilter, when non-empty, keeps only members
	// whose key carries that label prefix ("class" keeps "class:12").
	// A missing relation is an empty map, not an error.
	NavRelation(ctx context.Context, tenantID, sourceID, name, labelFilter string) (map[string]int, error)

	// DeleteRelations removes every relation set keyed by this source id.
	// Inbound edges pointing at sourceID are untouched; the explicit
	// cascade step in the domain managers handles those.
	DeleteRelations(ctx context.Context, tenantID, sourceID string) error

	// ListInboundRelations returns all edges whose member is the given
	// block. This is the primitive the managers' cascade step uses to find
	// inbound references before a block disappears.
	ListInboundRelations(ctx context.Context, tenantID, memberID string) ([]*Edge, error)

	// ListRelations returns edges matching the filter.
	ListRelations(ctx context.Context, filter *ListFilter) ([]*Edge, error)

	// CountRelations returns the number of edges matching the filter.
	CountRelations(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteRelationsByTenant removes all relation edges for a tenant.
	DeleteRelationsByTenant(ctx context.Context, tenantID string) error
}
