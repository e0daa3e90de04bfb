package api

// CheckResponse is the response for an authorization check.
type CheckResponse struct {
	Granted    bool        `json:"granted" description:"Whether the request is granted"`
	Decision   string      `json:"decision" description:"Decision code"`
	Reason     string      `json:"reason,omitempty" description:"Human-readable reason"`
	MatchedBy  []MatchInfo `json:"matched_by,omitempty" description:"Matched rules"`
	EvalTimeNs int64       `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// MatchInfo identifies a matched rule.
type MatchInfo struct {
	Source string `json:"source" description:"Match source (rule, direct)"`
	Rule   string `json:"rule,omitempty" description:"Action level that matched"`
	Detail string `json:"detail,omitempty" description:"Layer or pattern that matched"`
}

// BatchCheckResponse contains results for multiple checks.
type BatchCheckResponse struct {
	Results []CheckResponse `json:"results" description:"Check results in order"`
}

// NavRelationResponse carries one relation member set.
type NavRelationResponse struct {
	Members map[string]int `json:"members" description:"Member key to score"`
}

// PurgeResponse reports how many audit entries a purge removed.
type PurgeResponse struct {
	Purged int64 `json:"purged" description:"Number of entries deleted"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
