package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/grant"
	"github.com/classboard/palisade/id"
)

func (a *API) registerGrantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("grants"))

	if err := g.POST("/grants", a.createGrant,
		forge.WithSummary("Create grant"),
		forge.WithDescription("Issues a direct grant overriding tree resolution for one user."),
		forge.WithOperationID("createGrant"),
		forge.WithRequestSchema(CreateGrantRequest{}),
		forge.WithCreatedResponse(&grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/grants/:grantId", a.getGrant,
		forge.WithSummary("Get grant"),
		forge.WithDescription("Returns details of a specific grant."),
		forge.WithOperationID("getGrant"),
		forge.WithResponseSchema(http.StatusOK, "Grant details", &grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/grants/:grantId", a.revokeGrant,
		forge.WithSummary("Revoke grant"),
		forge.WithDescription("Revokes a direct grant."),
		forge.WithOperationID("revokeGrant"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/grants", a.listGrants,
		forge.WithSummary("List grants"),
		forge.WithDescription("Lists grants with optional filters."),
		forge.WithOperationID("listGrants"),
		forge.WithRequestSchema(ListGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Grant list", ListResponse[*grant.Grant]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createGrant(ctx forge.Context, req *CreateGrantRequest) (*grant.Grant, error) {
	if req.UserID == "" || req.LayerID == "" || req.Action == "" {
		return nil, forge.BadRequest("user_id, layer_id, and action are required")
	}

	g, err := a.eng.Grant(ctx.Context(), req.UserID, req.LayerID, palisade.Action(req.Action), req.GrantedBy)
	if err != nil {
		return nil, mapError(err)
	}
	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) getGrant(ctx forge.Context, _ *GetGrantRequest) (*grant.Grant, error) {
	grantID, err := id.ParseGrantID(ctx.Param("grantId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid grant ID: %v", err))
	}

	g, err := a.eng.Store().GetGrant(ctx.Context(), grantID)
	if err != nil {
		return nil, mapError(err)
	}
	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) revokeGrant(ctx forge.Context, _ *GetGrantRequest) (*struct{}, error) {
	grantID, err := id.ParseGrantID(ctx.Param("grantId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid grant ID: %v", err))
	}

	if err := a.eng.Revoke(ctx.Context(), grantID); err != nil {
		return nil, mapError(err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listGrants(ctx forge.Context, req *ListGrantsRequest) (*ListResponse[*grant.Grant], error) {
	_, tenantID := palisade.TenantFromContext(ctx.Context())
	filter := &grant.ListFilter{
		TenantID: tenantID,
		UserID:   req.UserID,
		LayerID:  req.LayerID,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	grants, err := a.eng.Store().ListGrants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.Store().CountGrants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*grant.Grant]{
		Items:  grants,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
