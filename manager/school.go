package manager

import (
	"context"
	"log/slog"
	"time"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/relation"
)

// Schools manages school entities. Schools live at the board.school layer;
// a concrete school resolves through the runtime leaf
// "board.school.<schoolID>".
type Schools struct {
	base
}

// NewSchools creates a school manager bound to an engine.
func NewSchools(eng *palisade.Engine, logger *slog.Logger) *Schools {
	return &Schools{base: newBase(eng, logger)}
}

func schoolKey(schoolID string) string { return LabelSchool + ":" + schoolID }
func schoolLayer(schoolID string) string {
	return "board.school." + schoolID
}

// Create stores a new school block after an authorization check at the
// board.school layer.
func (m *Schools) Create(ctx context.Context, actor Actor, schoolID, name string, attrs map[string]any) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionCreate, "board.school"); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	if attrs == nil {
		attrs = make(map[string]any, 1)
	}
	attrs["name"] = name
	b := &block.Block{
		ID:         schoolID,
		Label:      LabelSchool,
		Attributes: attrs,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  actor.UserID,
	}
	if err := m.eng.Store().AddBlock(ctx, tenantID, b); err != nil {
		return nil, err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitBlockCreated(ctx, b)
	}
	m.logger.Info("school created", "school_id", schoolID, "tenant_id", tenantID)
	return b, nil
}

// Get returns a school block.
func (m *Schools) Get(ctx context.Context, actor Actor, schoolID string) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionRead, schoolLayer(schoolID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	return m.eng.Store().GetBlock(ctx, tenantID, schoolKey(schoolID))
}

// Update merges attributes into a school block.
func (m *Schools) Update(ctx context.Context, actor Actor, schoolID string, attrs map[string]any) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionUpdate, schoolLayer(schoolID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	b, err := m.eng.Store().UpdateBlock(ctx, tenantID, schoolKey(schoolID), attrs, actor.UserID)
	if err != nil {
		return nil, err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitBlockUpdated(ctx, b)
	}
	return b, nil
}

// Delete removes a school and cascades its relation edges. Classrooms and
// students the school pointed at remain as blocks; only the edges go.
func (m *Schools) Delete(ctx context.Context, actor Actor, schoolID string) error {
	if err := m.enforce(ctx, actor, palisade.ActionDelete, schoolLayer(schoolID)); err != nil {
		return err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	if err := m.deleteEntity(ctx, tenantID, schoolKey(schoolID)); err != nil {
		return err
	}
	m.logger.Info("school deleted", "school_id", schoolID, "tenant_id", tenantID)
	return nil
}

// Classes returns the school's classroom member set, keyed by "class:<id>".
func (m *Schools) Classes(ctx context.Context, actor Actor, schoolID string) (map[string]int, error) {
	if err := m.enforce(ctx, actor, palisade.ActionRead, schoolLayer(schoolID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	return m.eng.Store().NavRelation(ctx, tenantID, schoolKey(schoolID), RelClasses, LabelClass)
}

// AssignAdmin makes userID an administrator of the school: it records the
// admins relation edge and issues a direct grant so the user can update the
// school regardless of their role mapping.
func (m *Schools) AssignAdmin(ctx context.Context, actor Actor, schoolID, userID string) (*grant.Grant, error) {
	layerID := schoolLayer(schoolID)
	if err := m.enforce(ctx, actor, palisade.ActionConfig, layerID); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	upd := &relation.Update{
		Add: map[string][]relation.Member{
			RelAdmins: {{ID: LabelUser + ":" + userID, Score: 1}},
		},
	}
	if err := m.eng.Store().UpdateRelations(ctx, tenantID, schoolKey(schoolID), upd); err != nil {
		return nil, err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitRelationsUpdated(ctx, schoolKey(schoolID), upd)
	}

	g, err := m.eng.Grant(ctx, userID, layerID, palisade.ActionUpdate, actor.UserID)
	if err != nil {
		return nil, err
	}
	m.logger.Info("school admin assigned",
		"school_id", schoolID, "user_id", userID, "grant_id", g.ID)
	return g, nil
}

// RemoveAdmin drops the admins edge and revokes the matching direct grant.
func (m *Schools) RemoveAdmin(ctx context.Context, actor Actor, schoolID, userID string) error {
	layerID := schoolLayer(schoolID)
	if err := m.enforce(ctx, actor, palisade.ActionConfig, layerID); err != nil {
		return err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	upd := &relation.Update{
		Remove: map[string][]string{
			RelAdmins: {LabelUser + ":" + userID},
		},
	}
	if err := m.eng.Store().UpdateRelations(ctx, tenantID, schoolKey(schoolID), upd); err != nil {
		return err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitRelationsUpdated(ctx, schoolKey(schoolID), upd)
	}
	return m.eng.RevokeFor(ctx, userID, layerID)
}
