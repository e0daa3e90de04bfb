package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/classboard/palisade"
	"github.com/classboard/palisade/block"
)

func (a *API) registerBlockRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("blocks"))

	if err := g.POST("/blocks", a.createBlock,
		forge.WithSummary("Create block"),
		forge.WithDescription("Stores a new entity block keyed by label:id."),
		forge.WithOperationID("createBlock"),
		forge.WithRequestSchema(CreateBlockRequest{}),
		forge.WithCreatedResponse(&block.Block{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/blocks/:label/:blockId", a.getBlock,
		forge.WithSummary("Get block"),
		forge.WithDescription("Returns an entity block."),
		forge.WithOperationID("getBlock"),
		forge.WithResponseSchema(http.StatusOK, "Block details", &block.Block{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PATCH("/blocks/:label/:blockId", a.updateBlock,
		forge.WithSummary("Update block"),
		forge.WithDescription("Merges attributes into an existing block."),
		forge.WithOperationID("updateBlock"),
		forge.WithRequestSchema(UpdateBlockRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated block", &block.Block{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/blocks/:label/:blockId", a.deleteBlock,
		forge.WithSummary("Delete block"),
		forge.WithDescription("Deletes an entity block. Deleting an absent block succeeds."),
		forge.WithOperationID("deleteBlock"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/blocks", a.listBlocks,
		forge.WithSummary("List blocks"),
		forge.WithDescription("Lists blocks with optional filters."),
		forge.WithOperationID("listBlocks"),
		forge.WithRequestSchema(ListBlocksRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Block list", ListResponse[*block.Block]{}),
		forge.WithErrorResponses(),
	)
}

func blockKeyFromPath(ctx forge.Context) string {
	return ctx.Param("label") + ":" + ctx.Param("blockId")
}

func (a *API) createBlock(ctx forge.Context, req *CreateBlockRequest) (*block.Block, error) {
	if req.ID == "" || req.Label == "" {
		return nil, forge.BadRequest("id and label are required")
	}
	_, tenantID := palisade.TenantFromContext(ctx.Context())

	b := &block.Block{
		ID:         req.ID,
		Label:      req.Label,
		Attributes: req.Attributes,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  req.CreatedBy,
	}
	if err := a.eng.Store().AddBlock(ctx.Context(), tenantID, b); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitBlockCreated(ctx.Context(), b)
	}
	return b, ctx.JSON(http.StatusCreated, b)
}

func (a *API) getBlock(ctx forge.Context, _ *GetBlockRequest) (*block.Block, error) {
	_, tenantID := palisade.TenantFromContext(ctx.Context())

	b, err := a.eng.Store().GetBlock(ctx.Context(), tenantID, blockKeyFromPath(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return b, ctx.JSON(http.StatusOK, b)
}

func (a *API) updateBlock(ctx forge.Context, req *UpdateBlockRequest) (*block.Block, error) {
	if len(req.Attributes) == 0 {
		return nil, forge.BadRequest("attributes are required")
	}
	_, tenantID := palisade.TenantFromContext(ctx.Context())

	b, err := a.eng.Store().UpdateBlock(ctx.Context(), tenantID, blockKeyFromPath(ctx), req.Attributes, req.UpdatedBy)
	if err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitBlockUpdated(ctx.Context(), b)
	}
	return b, ctx.JSON(http.StatusOK, b)
}

func (a *API) deleteBlock(ctx forge.Context, _ *GetBlockRequest) (*struct{}, error) {
	_, tenantID := palisade.TenantFromContext(ctx.Context())
	key := blockKeyFromPath(ctx)

	if err := a.eng.Store().DeleteBlock(ctx.Context(), tenantID, key); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitBlockDeleted(ctx.Context(), key)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listBlocks(ctx forge.Context, req *ListBlocksRequest) (*ListResponse[*block.Block], error) {
	_, tenantID := palisade.TenantFromContext(ctx.Context())
	filter := &block.ListFilter{
		TenantID: tenantID,
		Label:    req.Label,
		Search:   req.Search,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	blocks, err := a.eng.Store().ListBlocks(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.Store().CountBlocks(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*block.Block]{
		Items:  blocks,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
