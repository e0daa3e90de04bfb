package api

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for an authorization check.
type CheckRequest struct {
	Role     string `json:"role,omitempty" description:"Caller role (mapped to a category)"`
	UserID   string `json:"user_id,omitempty" description:"Caller identifier, required for direct-grant lookups"`
	Category string `json:"category,omitempty" description:"Category override (e.g. owner)"`
	Action   string `json:"action" description:"Requested action (read, create, audit, config, delete, update)"`
	LayerID  string `json:"layer_id" description:"Dot-path of the target layer"`
	Variant  string `json:"variant,omitempty" description:"Rule variant (default, public, private, store)"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" description:"List of authorization checks"`
}

// ──────────────────────────────────────────────────
// Grant requests
// ──────────────────────────────────────────────────

// CreateGrantRequest is the body for creating a direct grant.
type CreateGrantRequest struct {
	UserID    string `json:"user_id" description:"Grant holder"`
	LayerID   string `json:"layer_id" description:"Layer pattern (exact, prefix.*, or *)"`
	Action    string `json:"action" description:"Granted action level"`
	GrantedBy string `json:"granted_by,omitempty" description:"Who issued the grant"`
}

// GetGrantRequest is the path parameter for getting a grant.
type GetGrantRequest struct {
	GrantID string `path:"grantId" description:"Grant ID"`
}

// ListGrantsRequest holds query parameters for listing grants.
type ListGrantsRequest struct {
	UserID  string `query:"user_id" description:"Filter by holder"`
	LayerID string `query:"layer_id" description:"Filter by layer pattern"`
	Limit   int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset  int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Block requests
// ──────────────────────────────────────────────────

// CreateBlockRequest is the body for creating a block.
type CreateBlockRequest struct {
	ID         string         `json:"id" description:"Entity identifier"`
	Label      string         `json:"label" description:"Entity label (e.g. school, class, user)"`
	Attributes map[string]any `json:"attributes,omitempty" description:"Free-form attributes"`
	CreatedBy  string         `json:"created_by,omitempty" description:"Who created the block"`
}

// GetBlockRequest holds the path parameters addressing a block.
type GetBlockRequest struct {
	Label   string `path:"label" description:"Entity label"`
	BlockID string `path:"blockId" description:"Entity identifier"`
}

// UpdateBlockRequest is the body for merging attributes into a block.
type UpdateBlockRequest struct {
	Attributes map[string]any `json:"attributes" description:"Attributes to merge"`
	UpdatedBy  string         `json:"updated_by,omitempty" description:"Who updated the block"`
}

// ListBlocksRequest holds query parameters for listing blocks.
type ListBlocksRequest struct {
	Label  string `query:"label" description:"Filter by label"`
	Search string `query:"search" description:"Search by key or name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Relation requests
// ──────────────────────────────────────────────────

// RelationMember is a scored member in a relation update.
type RelationMember struct {
	ID    string `json:"id" description:"Member key (e.g. class:101)"`
	Score int    `json:"score" description:"Domain-defined score"`
}

// UpdateRelationsRequest applies set/add/remove operations to the relations
// of one source entity.
type UpdateRelationsRequest struct {
	SourceID string                      `path:"sourceId" description:"Source entity key"`
	Set      map[string][]RelationMember `json:"set,omitempty" description:"Replace named member sets"`
	Add      map[string][]RelationMember `json:"add,omitempty" description:"Union members into named sets"`
	Remove   map[string][]string         `json:"remove,omitempty" description:"Subtract member keys from named sets"`
}

// NavRelationRequest addresses one named relation of a source entity.
type NavRelationRequest struct {
	SourceID string `path:"sourceId" description:"Source entity key"`
	Name     string `path:"name" description:"Relation name"`
	Label    string `query:"label" description:"Keep only members with this label prefix"`
}

// DeleteRelationsRequest addresses all outbound relations of a source.
type DeleteRelationsRequest struct {
	SourceID string `path:"sourceId" description:"Source entity key"`
}

// ──────────────────────────────────────────────────
// Decision log requests
// ──────────────────────────────────────────────────

// ListDecisionLogsRequest holds query parameters for the decision audit log.
type ListDecisionLogsRequest struct {
	UserID   string `query:"user_id" description:"Filter by subject"`
	LayerID  string `query:"layer_id" description:"Filter by layer"`
	Action   string `query:"action" description:"Filter by action"`
	Decision string `query:"decision" description:"Filter by decision code"`
	After    string `query:"after" description:"Only entries after this time (RFC3339)"`
	Before   string `query:"before" description:"Only entries before this time (RFC3339)"`
	Limit    int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// PurgeDecisionLogsRequest is the body for purging old audit entries.
type PurgeDecisionLogsRequest struct {
	Before string `json:"before" description:"Delete entries created before this time (RFC3339)"`
}
