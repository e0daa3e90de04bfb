package manager

import (
	"context"
	"log/slog"
	"time"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/block"
)

// Students manages user blocks for enrolled students. Students live at the
// board.user layer; a concrete student resolves through the runtime leaf
// "board.user.<studentID>".
type Students struct {
	base
}

// NewStudents creates a student manager bound to an engine.
func NewStudents(eng *palisade.Engine, logger *slog.Logger) *Students {
	return &Students{base: newBase(eng, logger)}
}

func userKey(studentID string) string { return LabelUser + ":" + studentID }
func userLayer(studentID string) string {
	return "board.user." + studentID
}

// Register stores a new student block.
func (m *Students) Register(ctx context.Context, actor Actor, studentID, name string, attrs map[string]any) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionCreate, "board.user"); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	if attrs == nil {
		attrs = make(map[string]any, 1)
	}
	attrs["name"] = name
	b := &block.Block{
		ID:         studentID,
		Label:      LabelUser,
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
	m.logger.Info("student registered", "student_id", studentID, "tenant_id", tenantID)
	return b, nil
}

// Get returns a student block.
func (m *Students) Get(ctx context.Context, actor Actor, studentID string) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionRead, userLayer(studentID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	return m.eng.Store().GetBlock(ctx, tenantID, userKey(studentID))
}

// Update merges attributes into a student block.
func (m *Students) Update(ctx context.Context, actor Actor, studentID string, attrs map[string]any) (*block.Block, error) {
	if err := m.enforce(ctx, actor, palisade.ActionUpdate, userLayer(studentID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)
	b, err := m.eng.Store().UpdateBlock(ctx, tenantID, userKey(studentID), attrs, actor.UserID)
	if err != nil {
		return nil, err
	}
	if m.eng.Plugins() != nil {
		m.eng.Plugins().EmitBlockUpdated(ctx, b)
	}
	return b, nil
}

// Remove deletes a student. Inbound edges cascade, so the student drops out
// of every classroom roster; the student's direct grants go with them.
func (m *Students) Remove(ctx context.Context, actor Actor, studentID string) error {
	if err := m.enforce(ctx, actor, palisade.ActionDelete, userLayer(studentID)); err != nil {
		return err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	if err := m.deleteEntity(ctx, tenantID, userKey(studentID)); err != nil {
		return err
	}
	if err := m.eng.Store().DeleteGrantsByUser(ctx, tenantID, studentID); err != nil {
		return err
	}
	m.logger.Info("student removed", "student_id", studentID, "tenant_id", tenantID)
	return nil
}

// Classrooms lists the classrooms a student is enrolled in by scanning
// inbound students edges.
func (m *Students) Classrooms(ctx context.Context, actor Actor, studentID string) ([]string, error) {
	if err := m.enforce(ctx, actor, palisade.ActionRead, userLayer(studentID)); err != nil {
		return nil, err
	}
	_, tenantID := palisade.TenantFromContext(ctx)

	edges, err := m.eng.Store().ListInboundRelations(ctx, tenantID, userKey(studentID))
	if err != nil {
		return nil, err
	}
	var classes []string
	for _, e := range edges {
		if e.Name == RelStudents {
			classes = append(classes, e.SourceID)
		}
	}
	return classes, nil
}
