package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/decisionlog"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
	"github.com/classboard/palisade/relation"
)

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:palisade_grants"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	AppID           string    `grove:"app_id,notnull"`
	UserID          string    `grove:"user_id,notnull"`
	LayerID         string    `grove:"layer_id,notnull"`
	Action          string    `grove:"action,notnull"`
	GrantedBy       string    `grove:"granted_by"`
	Metadata        string    `grove:"metadata"` // JSON text
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func grantToModel(g *grant.Grant) (*grantModel, error) {
	metadata, err := json.Marshal(g.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal grant metadata: %w", err)
	}
	return &grantModel{
		ID:        g.ID.String(),
		TenantID:  g.TenantID,
		AppID:     g.AppID,
		UserID:    g.UserID,
		LayerID:   g.LayerID,
		Action:    g.Action,
		GrantedBy: g.GrantedBy,
		Metadata:  string(metadata),
		CreatedAt: g.CreatedAt,
	}, nil
}

func grantFromModel(m *grantModel) (*grant.Grant, error) {
	gid, _ := id.ParseGrantID(m.ID) //nolint:errcheck // stored IDs are always valid
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal grant metadata: %w", err)
		}
	}
	return &grant.Grant{
		ID:        gid,
		TenantID:  m.TenantID,
		AppID:     m.AppID,
		UserID:    m.UserID,
		LayerID:   m.LayerID,
		Action:    m.Action,
		GrantedBy: m.GrantedBy,
		Metadata:  metadata,
		CreatedAt: m.CreatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Block model
// ──────────────────────────────────────────────────

type blockModel struct {
	grove.BaseModel `grove:"table:palisade_blocks"`
	TenantID        string     `grove:"tenant_id,pk"`
	BlockKey        string     `grove:"block_key,pk"` // "label:id"
	BlockID         string     `grove:"block_id,notnull"`
	Label           string     `grove:"label,notnull"`
	Attributes      string     `grove:"attributes"` // JSON text
	CreatedAt       time.Time  `grove:"created_at,notnull"`
	CreatedBy       string     `grove:"created_by"`
	UpdatedAt       *time.Time `grove:"updated_at"`
	UpdatedBy       string     `grove:"updated_by"`
}

func blockToModel(tenantID string, b *block.Block) (*blockModel, error) {
	attrs, err := json.Marshal(b.Attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal block attributes: %w", err)
	}
	return &blockModel{
		TenantID:   tenantID,
		BlockKey:   b.Key(),
		BlockID:    b.ID,
		Label:      b.Label,
		Attributes: string(attrs),
		CreatedAt:  b.CreatedAt,
		CreatedBy:  b.CreatedBy,
		UpdatedAt:  b.UpdatedAt,
		UpdatedBy:  b.UpdatedBy,
	}, nil
}

func blockFromModel(m *blockModel) (*block.Block, error) {
	var attrs map[string]any
	if m.Attributes != "" {
		if err := json.Unmarshal([]byte(m.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("unmarshal block attributes: %w", err)
		}
	}
	return &block.Block{
		ID:         m.BlockID,
		Label:      m.Label,
		Attributes: attrs,
		CreatedAt:  m.CreatedAt,
		CreatedBy:  m.CreatedBy,
		UpdatedAt:  m.UpdatedAt,
		UpdatedBy:  m.UpdatedBy,
	}, nil
}

// ──────────────────────────────────────────────────
// Relation edge model
// ──────────────────────────────────────────────────

type relationModel struct {
	grove.BaseModel `grove:"table:palisade_relations"`
	TenantID        string `grove:"tenant_id,pk"`
	SourceID        string `grove:"source_id,pk"`
	Name            string `grove:"name,pk"`
	MemberID        string `grove:"member_id,pk"`
	Score           int    `grove:"score,notnull"`
}

func relationFromModel(m *relationModel) *relation.Edge {
	return &relation.Edge{
		TenantID: m.TenantID,
		SourceID: m.SourceID,
		Name:     m.Name,
		MemberID: m.MemberID,
		Score:    m.Score,
	}
}

// ──────────────────────────────────────────────────
// Decision log model
// ──────────────────────────────────────────────────

type decisionLogModel struct {
	grove.BaseModel `grove:"table:palisade_decision_logs"`
	ID              string    `grove:"id,pk"`
	TenantID        string    `grove:"tenant_id,notnull"`
	AppID           string    `grove:"app_id,notnull"`
	UserID          string    `grove:"user_id"`
	Role            string    `grove:"role"`
	Category        string    `grove:"category,notnull"`
	LayerID         string    `grove:"layer_id,notnull"`
	Variant         string    `grove:"variant,notnull"`
	Action          string    `grove:"action,notnull"`
	Decision        string    `grove:"decision,notnull"`
	Reason          string    `grove:"reason"`
	EvalTimeNs      int64     `grove:"eval_time_ns,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func decisionLogToModel(e *decisionlog.Entry) *decisionLogModel {
	return &decisionLogModel{
		ID:         e.ID.String(),
		TenantID:   e.TenantID,
		AppID:      e.AppID,
		UserID:     e.UserID,
		Role:       e.Role,
		Category:   e.Category,
		LayerID:    e.LayerID,
		Variant:    e.Variant,
		Action:     e.Action,
		Decision:   e.Decision,
		Reason:     e.Reason,
		EvalTimeNs: e.EvalTimeNs,
		CreatedAt:  e.CreatedAt,
	}
}

func decisionLogFromModel(m *decisionLogModel) *decisionlog.Entry {
	lid, _ := id.ParseDecisionLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &decisionlog.Entry{
		ID:         lid,
		TenantID:   m.TenantID,
		AppID:      m.AppID,
		UserID:     m.UserID,
		Role:       m.Role,
		Category:   m.Category,
		LayerID:    m.LayerID,
		Variant:    m.Variant,
		Action:     m.Action,
		Decision:   m.Decision,
		Reason:     m.Reason,
		EvalTimeNs: m.EvalTimeNs,
		CreatedAt:  m.CreatedAt,
	}
}
