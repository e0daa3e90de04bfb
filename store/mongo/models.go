package mongo

import (
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
	ID              string         `grove:"id,pk"      bson:"_id"`
	TenantID        string         `grove:"tenant_id"  bson:"tenant_id"`
	AppID           string         `grove:"app_id"     bson:"app_id"`
	UserID          string         `grove:"user_id"    bson:"user_id"`
	LayerID         string         `grove:"layer_id"   bson:"layer_id"`
	Action          string         `grove:"action"     bson:"action"`
	GrantedBy       string         `grove:"granted_by" bson:"granted_by,omitempty"`
	Metadata        map[string]any `grove:"metadata"   bson:"metadata,omitempty"`
	CreatedAt       time.Time      `grove:"created_at" bson:"created_at"`
}

func grantToModel(g *grant.Grant) *grantModel {
	return &grantModel{
		ID:        g.ID.String(),
		TenantID:  g.TenantID,
		AppID:     g.AppID,
		UserID:    g.UserID,
		LayerID:   g.LayerID,
		Action:    g.Action,
		GrantedBy: g.GrantedBy,
		Metadata:  g.Metadata,
		CreatedAt: g.CreatedAt,
	}
}

func grantFromModel(m *grantModel) *grant.Grant {
	gid, _ := id.ParseGrantID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &grant.Grant{
		ID:        gid,
		TenantID:  m.TenantID,
		AppID:     m.AppID,
		UserID:    m.UserID,
		LayerID:   m.LayerID,
		Action:    m.Action,
		GrantedBy: m.GrantedBy,
		Metadata:  m.Metadata,
		CreatedAt: m.CreatedAt,
	}
}

// ──────────────────────────────────────────────────
// Block model
// ──────────────────────────────────────────────────

type blockModel struct {
	grove.BaseModel `grove:"table:palisade_blocks"`
	DocID           string         `grove:"id,pk"      bson:"_id"` // "tenant/label:id"
	TenantID        string         `grove:"tenant_id"  bson:"tenant_id"`
	BlockKey        string         `grove:"block_key"  bson:"block_key"`
	BlockID         string         `grove:"block_id"   bson:"block_id"`
	Label           string         `grove:"label"      bson:"label"`
	Attributes      map[string]any `grove:"attributes" bson:"attributes,omitempty"`
	CreatedAt       time.Time      `grove:"created_at" bson:"created_at"`
	CreatedBy       string         `grove:"created_by" bson:"created_by,omitempty"`
	UpdatedAt       *time.Time     `grove:"updated_at" bson:"updated_at,omitempty"`
	UpdatedBy       string         `grove:"updated_by" bson:"updated_by,omitempty"`
}

func blockDocID(tenantID, key string) string {
	return tenantID + "/" + key
}

func blockToModel(tenantID string, b *block.Block) *blockModel {
	return &blockModel{
		DocID:      blockDocID(tenantID, b.Key()),
		TenantID:   tenantID,
		BlockKey:   b.Key(),
		BlockID:    b.ID,
		Label:      b.Label,
		Attributes: b.Attributes,
		CreatedAt:  b.CreatedAt,
		CreatedBy:  b.CreatedBy,
		UpdatedAt:  b.UpdatedAt,
		UpdatedBy:  b.UpdatedBy,
	}
}

func blockFromModel(m *blockModel) *block.Block {
	return &block.Block{
		ID:         m.BlockID,
		Label:      m.Label,
		Attributes: m.Attributes,
		CreatedAt:  m.CreatedAt,
		CreatedBy:  m.CreatedBy,
		UpdatedAt:  m.UpdatedAt,
		UpdatedBy:  m.UpdatedBy,
	}
}

// ──────────────────────────────────────────────────
// Relation edge model
// ──────────────────────────────────────────────────

type relationModel struct {
	grove.BaseModel `grove:"table:palisade_relations"`
	DocID           string `grove:"id,pk"     bson:"_id"` // "tenant/source#name#member"
	TenantID        string `grove:"tenant_id" bson:"tenant_id"`
	SourceID        string `grove:"source_id" bson:"source_id"`
	Name            string `grove:"name"      bson:"name"`
	MemberID        string `grove:"member_id" bson:"member_id"`
	Score           int    `grove:"score"     bson:"score"`
}

func relationDocID(tenantID, sourceID, name, memberID string) string {
	return tenantID + "/" + sourceID + "#" + name + "#" + memberID
}

func relationToModel(tenantID, sourceID, name string, m relation.Member) *relationModel {
	return &relationModel{
		DocID:    relationDocID(tenantID, sourceID, name, m.ID),
		TenantID: tenantID,
		SourceID: sourceID,
		Name:     name,
		MemberID: m.ID,
		Score:    m.Score,
	}
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
	ID              string    `grove:"id,pk"        bson:"_id"`
	TenantID        string    `grove:"tenant_id"    bson:"tenant_id"`
	AppID           string    `grove:"app_id"       bson:"app_id"`
	UserID          string    `grove:"user_id"      bson:"user_id,omitempty"`
	Role            string    `grove:"role"         bson:"role,omitempty"`
	Category        string    `grove:"category"     bson:"category"`
	LayerID         string    `grove:"layer_id"     bson:"layer_id"`
	Variant         string    `grove:"variant"      bson:"variant"`
	Action          string    `grove:"action"       bson:"action"`
	Decision        string    `grove:"decision"     bson:"decision"`
	Reason          string    `grove:"reason"       bson:"reason,omitempty"`
	EvalTimeNs      int64     `grove:"eval_time_ns" bson:"eval_time_ns"`
	CreatedAt       time.Time `grove:"created_at"   bson:"created_at"`
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
