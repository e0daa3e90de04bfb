package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/relation"
)

func (a *API) registerRelationRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("relations"))

	if err := g.POST("/relations/:sourceId", a.updateRelations,
		forge.WithSummary("Update relations"),
		forge.WithDescription("Applies set, add, and remove operations to one entity's relations atomically."),
		forge.WithOperationID("updateRelations"),
		forge.WithRequestSchema(UpdateRelationsRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/relations/:sourceId/:name", a.navRelation,
		forge.WithSummary("Navigate relation"),
		forge.WithDescription("Returns one named member set with scores. A missing relation returns an empty set."),
		forge.WithOperationID("navRelation"),
		forge.WithRequestSchema(NavRelationRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Member set", NavRelationResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/relations/:sourceId", a.deleteRelations,
		forge.WithSummary("Delete relations"),
		forge.WithDescription("Deletes every outbound relation of the source entity. Inbound edges are untouched."),
		forge.WithOperationID("deleteRelations"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) updateRelations(ctx forge.Context, req *UpdateRelationsRequest) (*struct{}, error) {
	sourceID := ctx.Param("sourceId")
	if sourceID == "" {
		return nil, forge.BadRequest("sourceId is required")
	}
	if len(req.Set) == 0 && len(req.Add) == 0 && len(req.Remove) == 0 {
		return nil, forge.BadRequest("update must contain at least one of set, add, remove")
	}
	_, tenantID := palisade.TenantFromContext(ctx.Context())

	upd := toRelationUpdate(req)
	if err := a.eng.Store().UpdateRelations(ctx.Context(), tenantID, sourceID, upd); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitRelationsUpdated(ctx.Context(), sourceID, upd)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) navRelation(ctx forge.Context, req *NavRelationRequest) (*NavRelationResponse, error) {
	sourceID := ctx.Param("sourceId")
	name := ctx.Param("name")
	if sourceID == "" || name == "" {
		return nil, forge.BadRequest("sourceId and name are required")
	}
	_, tenantID := palisade.TenantFromContext(ctx.Context())

	members, err := a.eng.Store().NavRelation(ctx.Context(), tenantID, sourceID, name, req.Label)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &NavRelationResponse{Members: members}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) deleteRelations(ctx forge.Context, _ *DeleteRelationsRequest) (*struct{}, error) {
	sourceID := ctx.Param("sourceId")
	if sourceID == "" {
		return nil, forge.BadRequest("sourceId is required")
	}
	_, tenantID := palisade.TenantFromContext(ctx.Context())

	if err := a.eng.Store().DeleteRelations(ctx.Context(), tenantID, sourceID); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func toRelationUpdate(req *UpdateRelationsRequest) *relation.Update {
	upd := &relation.Update{Remove: req.Remove}
	if len(req.Set) > 0 {
		upd.Set = make(map[string][]relation.Member, len(req.Set))
		for name, members := range req.Set {
			upd.Set[name] = toMembers(members)
		}
	}
	if len(req.Add) > 0 {
		upd.Add = make(map[string][]relation.Member, len(req.Add))
		for name, members := range req.Add {
			upd.Add[name] = toMembers(members)
		}
	}
	return upd
}

func toMembers(in []RelationMember) []relation.Member {
	out := make([]relation.Member, len(in))
	for i, m := range in {
		out[i] = relation.Member{ID: m.ID, Score: m.Score}
	}
	return out
}
