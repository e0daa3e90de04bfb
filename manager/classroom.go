package manager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/block"
	"github.com/classboard/palisade/relation"
)

// Classrooms manages classroom entities under board.school.class. Each
// classroom belongs to a school via the school's "classes" relation and
// carries its enrolled students in its own "students" relation.
type Classrooms struct {
	base
}

// NewClassrooms creates a classroom manager bound to an engine.
func NewClassrooms(eng *palisade.Engine, logger *slog.Logger) *Classrooms {
	return &Classrooms{base: newBase(eng, logger)}
}

func classKey(classID string) string { return LabelClass + ":" + classID }
func classLayer(classID string) string {
	return "board.school.class." + classID
}

// Create stores a new classroom block and links it into the school's
// classes relation.
func (m *Classrooms) Create(ctx context.Context, actor Actor, schoolID, classID, name string) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionCreate, "board.school.class"); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	b := &block.Block{
		ID:    classID,
		Label: LabelClass,
		Attributes: map[string]any{
			"name":      name,
			"school_id": schoolID,
		},
		CreatedAt: time.Now().UTC(),
		CreatedBy: actor.UserID,
	}
	if err := m.eng.Store().AddBlock(ctx, tenantID, b); err != nil {
		return nil, err
	}

	upd := &relation.Update{
		Add: map[string][]relation.Member{
			RelClasses: {{ID: b.Key(), Score: 1}},
		},
	}
	if err := m.eng.Store().UpdateRelations(ctx, tenantID, schoolKey(schoolID), upd); err != nil {
		return nil, err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitBlockCreated(ctx, b)
		m.eng.Plugins().EmitRelationsUpdated(ctx, schoolKey(schoolID), upd)
	}
	m.logger.Info("classroom created",
		"class_id", classID, "school_id", schoolID, "tenant_id", tenantID)
	return b, nil
}

// Get returns a classroom block.
func (m *Classrooms) Get(ctx context.Context, actor Actor, classID string) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionRead, classLayer(classID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	return m.eng.Store().GetBlock(ctx, tenantID, classKey(classID))
}

// Update merges attributes into a classroom block.
func (m *Classrooms) Update(ctx context.Context, actor Actor, classID string, attrs map[string]any) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionUpdate, classLayer(classID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	b, err := m.eng.Store().UpdateBlock(ctx, tenantID, classKey(classID), attrs, actor.UserID)
	if err != nil {
		return nil, err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitBlockUpdated(ctx, b)
	}
	return b, nil
}

// Delete removes a classroom. A classroom with enrolled students refuses to
// delete; unenroll them first. The bare store would delete regardless, so
// the guard lives here.
func (m *Classrooms) Delete(ctx context.Context, actor Actor, classID string) error {
	if err := m.enforce(ctx, actor, palisade.ActionDelete, classLayer(classID)); err != nil {
		return err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	students, err := m.eng.Store().NavRelation(ctx, tenantID, classKey(classID), RelStudents, "")
	if err != nil {
		return err
	}
	if len(students) > 0 {
		return fmt.Errorf("classroom %s has %d students: %w",
			classID, len(students), palisade.ErrRelationMembers)
	}

	if err := m.deleteEntity(ctx, tenantID, classKey(classID)); err != nil {
		return err
	}
	m.logger.Info("classroom deleted", "class_id", classID, "tenant_id", tenantID)
	return nil
}

// Enroll adds a student to the classroom's students relation. Score carries
// domain meaning (seat number, ordering); re-enrolling overwrites it.
func (m *Classrooms) Enroll(ctx context.Context, actor Actor, classID, studentID string, score int) error {
	if err := m.enforce(ctx, actor, palisade.ActionUpdate, classLayer(classID)); err != nil {
		return err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	upd := &relation.Update{
		Add: map[string][]relation.Member{
			RelStudents: {{ID: LabelUser + ":" + studentID, Score: score}},
		},
	}
	if err := m.eng.Store().UpdateRelations(ctx, tenantID, classKey(classID), upd); err != nil {
		return err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitRelationsUpdated(ctx, classKey(classID), upd)
	}
	return nil
}

// Unenroll removes a student from the classroom. Removing an absent member
// is a no-op.
func (m *Classrooms) Unenroll(ctx context.Context, actor Actor, classID, studentID string) error {
	if err := m.enforce(ctx, actor, palisade.ActionUpdate, classLayer(classID)); err != nil {
		return err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	upd := &relation.Update{
		Remove: map[string][]string{
			RelStudents: {LabelUser + ":" + studentID},
		},
	}
	if err := m.eng.Store().UpdateRelations(ctx, tenantID, classKey(classID), upd); err != nil {
		return err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitRelationsUpdated(ctx, classKey(classID), upd)
	}
	return nil
}

// Students returns the classroom's student member set keyed by "user:<id>".
func (m *Classrooms) Students(ctx context.Context, actor Actor, classID string) (map[string]int, error) {
	if err := m.enforce(ctx, actor, palisade.ActionRead, classLayer(classID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	return m.eng.Store().NavRelation(ctx, tenantID, classKey(classID), RelStudents, LabelUser)
}
