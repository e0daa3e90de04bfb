// Package block defines the Block entity: a stored domain object keyed by
// "label:id", with free-form attributes and creation/update stamps.
package block

import "time"

// Block is a domain entity node in the entity/relation store. The store
// never interprets attributes; domain managers own their meaning.
type Block struct {
	ID         string         `json:"id" db:"id"`
	Label      string         `json:"label" db:"label"`
	Attributes map[string]any `json:"attributes,omitempty" db:"attributes"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	CreatedBy  string         `json:"created_by,omitempty" db:"created_by"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty" db:"updated_at"`
	UpdatedBy  string         `json:"updated_by,omitempty" db:"updated_by"`
}

// Key returns the block's storage identity, "label:id".
func (b *Block) Key() string {
	return b.Label + ":" + b.ID
}

// ListFilter contains filters for listing blocks.
type ListFilter struct {
	TenantID string `json:"tenant_id,omitempty"`
	Label    string `json:"label,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
