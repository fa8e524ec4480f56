// Package grounding implements the pure algorithms of the retrieval-context
// pipeline: placeholder template rendering, token estimation, and
// budget-constrained block assembly.
package grounding

// Context is the assembled grounding text handed to the downstream chat
// caller. It is a value constructed per request, never mutated afterwards.
type Context struct {
	Text          string   `json:"context"`
	TokenEstimate int      `json:"token_estimate"`
	Sections      []string `json:"sections_included"`
}

// EstimateTokens returns an approximate token count for a string.
// Uses the heuristic 1 token ≈ 4 characters; swap here for a real tokenizer.
func EstimateTokens(s string) int {
	n := len(s) / 4
	if n == 0 && s != "" {
		return 1
	}
	return n
}
