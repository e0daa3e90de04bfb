// Package decisionlog defines the authorization decision audit Entry.
package decisionlog

import (
	"time"

	"github.com/classboard/palisade/id"
)

// Entry is a single authorization decision audit record.
type Entry struct {
	ID         id.DecisionLogID `json:"id" db:"id"`
	TenantID   string           `json:"tenant_id" db:"tenant_id"`
	AppID      string           `json:"app_id" db:"app_id"`
	UserID     string           `json:"user_id" db:"user_id"`
	Role       string           `json:"role" db:"role"`
	Category   string           `json:"category" db:"category"`
	LayerID    string           `json:"layer_id" db:"layer_id"`
	Variant    string           `json:"variant" db:"variant"`
	Action     string           `json:"action" db:"action"`
	Decision   string           `json:"decision" db:"decision"`
	Reason     string           `json:"reason,omitempty" db:"reason"`
	EvalTimeNs int64            `json:"eval_time_ns" db:"eval_time_ns"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying decision logs.
type QueryFilter struct {
	TenantID string     `json:"tenant_id,omitempty"`
	UserID   string     `json:"user_id,omitempty"`
	LayerID  string     `json:"layer_id,omitempty"`
	Action   string     `json:"action,omitempty"`
	Decision string     `json:"decision,omitempty"`
	After    *time.Time `json:"after,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}
