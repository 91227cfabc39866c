// Package research resolves an entity to its official web page: candidate gathering, URL
// scoring, page verification, and the dispersed-venue rule.
package research

import (
	"fmt"

	"github.com/jonathan/venue-scout/internal/types"
)

// Candidate is a URL under consideration as the official page.
type Candidate struct {
	URL    string `json:"url"`
	Score  int    `json:"score"`
	Source string `json:"source"` // search, known_link
}

// SkippedURL is a URL that was filtered out before verification.
type SkippedURL struct {
	URL    string `json:"url"`
	Reason string `json:"reason"` // aggregator, invalid
}

// Resolution is the outcome of official-URL resolution.
type Resolution struct {
	// OfficialURL is empty when no candidate verified or the entity is dispersed
	OfficialURL string                  `json:"official_url,omitempty"`
	Candidates  []types.ScoredCandidate `json:"candidates"`
	Verified    []string                `json:"verified"`
	Skipped     []SkippedURL            `json:"skipped,omitempty"`
	Dispersed   bool                    `json:"dispersed"`
}

// Resolved reports whether an official URL was chosen.
func (r *Resolution) Resolved() bool {
	return r != nil && r.OfficialURL != ""
}

// SearchQueries returns the search queries issued for an entity.
func SearchQueries(entity *types.Entity) []string {
	queries := []string{
		fmt.Sprintf("%s official website", entity.Name),
		fmt.Sprintf("%s opening hours", entity.Name),
	}
	if entity.Location != "" {
		queries[0] = fmt.Sprintf("%s %s official website", entity.Name, entity.Location)
	}
	return queries
}

// Error represents a research failure.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("research error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("research error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
