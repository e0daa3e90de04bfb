// Package palisade provides layered, hierarchical authorization for Go.
//
// Palisade guards a tree of protected resource "layers" (dot-paths such as
// board.school.class), each carrying per-viewer-category rule sets that
// inherit down the tree, plus per-user direct grants that override tree
// resolution. It is tenant-scoped by default via forge.Scope and ships a
// block/relation entity store for the domain objects the layers protect.
//
//	eng, err := palisade.NewEngine(
//	    palisade.WithStore(memStore),
//	)
//	result, err := eng.Check(ctx, &palisade.CheckRequest{
//	    Subject: palisade.Subject{Role: "schoolAdmin", ID: "user_123"},
//	    Action:  palisade.ActionRead,
//	    Layer:   palisade.Layer{ID: "board.school.42"},
//	})
package palisade

// Category classifies the viewer in an authorization check. Rule sets are
// keyed by category, never by raw role names.
type Category string

const (
	// CategoryAnyone covers unauthenticated viewers and any role without a
	// more privileged mapping.
	CategoryAnyone Category = "anyone"

	// CategoryOwner is the creator of the specific instance being checked.
	// Ownership is situational, so callers set it on the request directly;
	// no role maps to it.
	CategoryOwner Category = "owner"

	// CategoryAdmin is a resource-scoped administrator, e.g. the school
	// admin of the school under check.
	CategoryAdmin Category = "admin"

	// CategorySuperAdmin is a system-wide administrator.
	CategorySuperAdmin Category = "superAdmin"
)

// Variant selects which visibility regime of a layer's rules applies.
type Variant string

const (
	// VariantDefault applies when the caller does not specify a regime.
	VariantDefault Variant = "default"

	// VariantPublic applies to publicly visible views of a layer.
	VariantPublic Variant = "public"

	// VariantPrivate applies to private views of a layer.
	VariantPrivate Variant = "private"

	// VariantStore applies to raw persistence-level access.
	VariantStore Variant = "store"
)

// Subject represents the actor in an authorization check.
type Subject struct {
	// Role is the actor's domain role (e.g. "student", "schoolAdmin").
	// The engine maps it to a Category via its RoleMapper.
	Role string `json:"role"`

	// ID identifies the user; required for direct-grant lookups,
	// empty for anonymous checks.
	ID string `json:"id,omitempty"`

	// Category overrides role mapping when set. Callers use this for
	// CategoryOwner, which only they can determine.
	Category Category `json:"category,omitempty"`
}

// Layer identifies the protected resource layer being checked.
type Layer struct {
	// ID is the dot-path of the layer, e.g. "board.school.class.42".
	// Trailing runtime segments resolve through their static ancestors.
	ID string `json:"id"`

	// Variant selects the rule regime; empty means VariantDefault.
	Variant Variant `json:"variant,omitempty"`
}

// CheckRequest is the input to an authorization check. Check normalizes
// the request in place: an empty Layer.Variant is rewritten to the engine's
// default variant so cache keys stay uniform.
type CheckRequest struct {
	Subject Subject `json:"subject"`
	Action  Action  `json:"action"`
	Layer   Layer   `json:"layer"`
}

// CheckResult is the outcome of an authorization check.
type CheckResult struct {
	Granted    bool        `json:"granted"`
	Decision   Decision    `json:"decision"`
	Reason     string      `json:"reason,omitempty"`
	MatchedBy  []MatchInfo `json:"matched_by,omitempty"`
	EvalTimeNs int64       `json:"eval_time_ns"`
}

// Decision is the authorization outcome.
type Decision string

const (
	// DecisionGrant means a layer rule permitted the action.
	DecisionGrant Decision = "grant"

	// DecisionGrantDirect means a direct grant overrode tree resolution.
	DecisionGrantDirect Decision = "grant_direct"

	// DecisionDenyBlocked means rule resolution ended in the blocked
	// sentinel (explicit deny or no applicable rule anywhere).
	DecisionDenyBlocked Decision = "deny_blocked"

	// DecisionDenyThreshold means a rule exists but its permitted level
	// does not cover the requested action.
	DecisionDenyThreshold Decision = "deny_threshold"

	// DecisionDenyUnknownRole means the subject's role has no category
	// mapping and no category was supplied.
	DecisionDenyUnknownRole Decision = "deny_unknown_role"

	// DecisionDenyInvalid means the request was malformed (unknown action
	// or empty layer). Invalid never raises; it denies.
	DecisionDenyInvalid Decision = "deny_invalid"
)

// MatchInfo describes what granted access during evaluation.
type MatchInfo struct {
	Source string `json:"source"` // "direct" or "rule"
	Rule   string `json:"rule,omitempty"`
	Detail string `json:"detail,omitempty"`
}
