// Package middleware provides HTTP authorization middleware for Palisade.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/classboard/palisade"
)

// Require enforces authorization against one layer. It resolves the subject
// from the request context (Authsome user > anonymous) and appends the "id"
// path parameter to the layer as a runtime segment when present, so a route
// like /schools/:id can guard "board.school" and have the concrete school
// resolve through the tree.
func Require(eng *palisade.Engine, action palisade.Action, layerID string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			layer := layerID
			if id := ctx.Param("id"); id != "" {
				layer = layerID + "." + id
			}

			err := eng.Enforce(ctx.Context(), &palisade.CheckRequest{
				Subject: resolveSubject(ctx),
				Action:  action,
				Layer:   palisade.Layer{ID: layer},
			})
			if err != nil {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the checks pass.
func RequireAny(eng *palisade.Engine, checks ...palisade.CheckRequest) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			subject := resolveSubject(ctx)
			for i := range checks {
				c := checks[i]
				c.Subject = subject
				result, err := eng.Check(ctx.Context(), &c)
				if err == nil && result.Granted {
					return next(ctx)
				}
			}
			return denyResponse(ctx)
		}
	}
}

// RequireAll allows the request only if ALL checks pass.
func RequireAll(eng *palisade.Engine, checks ...palisade.CheckRequest) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			subject := resolveSubject(ctx)
			for i := range checks {
				c := checks[i]
				c.Subject = subject
				if err := eng.Enforce(ctx.Context(), &c); err != nil {
					return denyResponse(ctx)
				}
			}
			return next(ctx)
		}
	}
}

// resolveSubject extracts the subject from context.
// Priority: Forge user ID (from Authsome) → anonymous. The role stays
// empty: anonymous callers map to CategoryAnyone, and identified callers
// still pick up their direct grants by user ID.
func resolveSubject(ctx forge.Context) palisade.Subject {
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return palisade.Subject{ID: userID}
	}
	return palisade.Subject{}
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": "access denied"})
}
