// Package relation defines named, score-weighted edge sets between blocks.
//
// A relation is keyed by (source block key, relation name) and maps member
// block keys to integer scores:
//
//	school:7  #classes   → {class:12: 1, class:13: 1}
//	class:12  #students  → {user:401: 1, user:402: 1}
//	school:7  #admins    → {user:55: 1}
//
// Scores are opaque to the store; callers use 1 for direct membership and
// higher tiers as they see fit. The store does not enforce referential
// integrity. Cascading cleanup of inbound edges belongs to the domain
// managers.
package relation

// Member is one target of a relation, with its score.
type Member struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}

// Update describes changes to a source block's relation sets, applied in a
// single call. Add unions members into each named set, Remove subtracts by
// member id, Set replaces the named set wholesale. All three may be
// combined; together they apply atomically relative to concurrent readers
// of the same source.
type Update struct {
	Add    map[string][]Member `json:"add,omitempty"`
	Remove map[string][]string `json:"remove,omitempty"`
	Set    map[string][]Member `json:"set,omitempty"`
}

// Edge is one stored relation edge. List operations return edges; callers
// usually want the aggregated map form from NavRelation instead.
type Edge struct {
	TenantID string `json:"tenant_id" db:"tenant_id"`
	SourceID string `json:"source_id" db:"source_id"`
	Name     string `json:"name" db:"name"`
	MemberID string `json:"member_id" db:"member_id"`
	Score    int    `json:"score" db:"score"`
}

// ListFilter contains filters for listing relation edges.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	SourceID string `json:"source_id,omitempty"`
	Name     string `json:"name,omitempty"`
	MemberID string `json:"member_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
