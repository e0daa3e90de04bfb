// Package manager provides the domain services built on top of the
// authorization engine: schools, classrooms and students. Every mutation is
// checked against the engine before it touches the store, and delete paths
// run an explicit cascade over inbound relation edges because the store
// keeps no referential integrity of its own.
package manager

import (
	"context"
	"log/slog"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/relation"
)

// Block labels and relation names used by the managers.
const (
	LabelSchool = "school"
	LabelClass  = "class"
	LabelUser   = "user"

	RelClasses  = "classes"
	RelStudents = "students"
	RelAdmins   = "admins"
)

// Actor is the caller performing a manager operation. Role is mapped to a
// category by the engine; Category overrides the mapping when the caller
// knows it is the owner.
type Actor struct {
	Role     string
	UserID   string
	Category palisade.Category
}

// base carries the engine handle shared by all managers.
type base struct {
	eng    *palisade.Engine
	logger *slog.Logger
}

func newBase(eng *palisade.Engine, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{eng: eng, logger: logger}
}

// enforce runs an authorization check for the actor and returns
// palisade.ErrAccessDenied when the action is not permitted.
func (b *base) enforce(ctx context.Context, actor Actor, action palisade.Action, layerID string) error {
	return b.eng.Enforce(ctx, &palisade.CheckRequest{
		Subject: palisade.Subject{
			Role:     actor.Role,
			ID:       actor.UserID,
			Category: actor.Category,
		},
		Action: action,
		Layer:  palisade.Layer{ID: layerID},
	})
}

// removeInboundEdges strips every relation edge pointing at key. Blocks
// delete without touching edges, so delete paths call this first.
func (b *base) removeInboundEdges(ctx context.Context, tenantID, key string) error {
	edges, err := b.eng.Store().ListInboundRelations(ctx, tenantID, key)
	if err != nil {
		return err
	}
	bySource := make(map[string]*relation.Update)
	for _, e := range edges {
		upd := bySource[e.SourceID]
		if upd == nil {
			upd = &relation.Update{Remove: make(map[string][]string)}
			bySource[e.SourceID] = upd
		}
		upd.Remove[e.Name] = append(upd.Remove[e.Name], e.MemberID)
	}
	for sourceID, upd := range bySource {
		if err := b.eng.Store().UpdateRelations(ctx, tenantID, sourceID, upd); err != nil {
			return err
		}
		if b.eng.Plugins() != nil {
			b.eng.Plugins().EmitRelationsUpdated(ctx, sourceID, upd)
		}
	}
	return nil
}

// deleteEntity removes a block together with its outbound relations after
// the inbound cascade has run.
func (b *base) deleteEntity(ctx context.Context, tenantID, key string) error {
	if err := b.removeInboundEdges(ctx, tenantID, key); err != nil {
		return err
	}
	if err := b.eng.Store().DeleteRelations(ctx, tenantID, key); err != nil {
		return err
	}
	if err := b.eng.Store().DeleteBlock(ctx, tenantID, key); err != nil {
		return err
	}
	if b.eng.Plugins() != nil {
		b.eng.Plugins().EmitBlockDeleted(ctx, key)
	}
	return nil
}
