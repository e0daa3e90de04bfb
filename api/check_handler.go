package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/classboard/palisade"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Authorization check"),
		forge.WithDescription("Evaluates whether the subject can perform the action on the layer."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if granted, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Granted", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch authorization check"),
		forge.WithDescription("Evaluates multiple authorization checks in one request."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if req.Action == "" || req.LayerID == "" {
		return nil, forge.BadRequest("action and layer_id are required")
	}

	result, err := a.eng.Check(ctx.Context(), toCheckRequest(req))
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(result)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if req.Action == "" || req.LayerID == "" {
		return nil, forge.BadRequest("action and layer_id are required")
	}

	result, err := a.eng.Check(ctx.Context(), toCheckRequest(req))
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(result)
	if !result.Granted {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	reqs := make([]*palisade.CheckRequest, len(req.Checks))
	for i := range req.Checks {
		reqs[i] = toCheckRequest(&req.Checks[i])
	}
	checked, err := a.eng.BatchCheck(ctx.Context(), reqs)
	if err != nil {
		return nil, mapError(err)
	}
	results := make([]CheckResponse, len(checked))
	for i, result := range checked {
		results[i] = *toCheckResponse(result)
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func toCheckRequest(r *CheckRequest) *palisade.CheckRequest {
	return &palisade.CheckRequest{
		Subject: palisade.Subject{
			Role:     r.Role,
			ID:       r.UserID,
			Category: palisade.Category(r.Category),
		},
		Action: palisade.Action(r.Action),
		Layer: palisade.Layer{
			ID:      r.LayerID,
			Variant: palisade.Variant(r.Variant),
		},
	}
}

func toCheckResponse(r *palisade.CheckResult) *CheckResponse {
	resp := &CheckResponse{
		Granted:    r.Granted,
		Decision:   string(r.Decision),
		Reason:     r.Reason,
		EvalTimeNs: r.EvalTimeNs,
	}
	for _, m := range r.MatchedBy {
		resp.MatchedBy = append(resp.MatchedBy, MatchInfo{
			Source: m.Source,
			Rule:   m.Rule,
			Detail: m.Detail,
		})
	}
	return resp
}
