// Package grant defines the direct-grant entity: a per-user, per-layer
// override that bypasses layer tree resolution.
package grant

import (
	"time"

	"github.com/classboard/palisade/id"
)

// Grant gives a user a specific action level at a specific layer, outside
// the static tree. Grants are created by domain managers (e.g. on
// school-admin assignment) and never expire on their own; revocation is
// always explicit.
type Grant struct {
	ID        id.GrantID     `json:"id" db:"id"`
	TenantID  string         `json:"tenant_id" db:"tenant_id"`
	AppID     string         `json:"app_id" db:"app_id"`
	UserID    string         `json:"user_id" db:"user_id"`
	LayerID   string         `json:"layer_id" db:"layer_id"`
	Action    string         `json:"action" db:"action"`
	GrantedBy string         `json:"granted_by,omitempty" db:"granted_by"`
	Metadata  map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	LayerID  string `json:"layer_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
