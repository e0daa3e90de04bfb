package palisade

import "time"

// Config holds configuration for the Palisade engine.
type Config struct {
	// CacheTTL is the time-to-live for cached check results.
	// Zero means no caching.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// DefaultVariant applies when a check request leaves the layer
	// variant empty. Defaults to VariantDefault.
	DefaultVariant Variant `json:"default_variant,omitempty"`

	// EnableDirectGrants enables per-user direct-grant overrides.
	// Defaults to true.
	EnableDirectGrants *bool `json:"enable_direct_grants,omitempty"`

	// EnableDecisionLog enables audit logging of every check.
	// Defaults to true.
	EnableDecisionLog *bool `json:"enable_decision_log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		DefaultVariant:     VariantDefault,
		EnableDirectGrants: &t,
		EnableDecisionLog:  &t,
	}
}

func (c Config) directGrantsEnabled() bool {
	return c.EnableDirectGrants == nil || *c.EnableDirectGrants
}

func (c Config) decisionLogEnabled() bool {
	return c.EnableDecisionLog == nil || *c.EnableDecisionLog
}

func (c Config) defaultVariant() Variant {
	if c.DefaultVariant == "" {
		return VariantDefault
	}
	return c.DefaultVariant
}
