package manufacturing

import (
	"context"

	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/tokens"
)

// Matcher implements the manufacturing domain's exact matching and
// substitution logic.
type Matcher struct{}

// NewMatcher creates a manufacturing matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match pairs requirements with capabilities by exact case-insensitive
// process name equality. The overall confidence is the matched fraction.
func (m *Matcher) Match(_ context.Context, reqs []model.Requirement, caps []model.Capability) (*model.MatchResult, error) {
	result := &model.MatchResult{
		MatchedCapabilities: make(map[string]model.Capability),
		Layers:              make(map[string]model.MatchType),
	}

	for _, req := range reqs {
		name := req.ProcessName
		if name == "" {
			name = req.Name
		}
		found := false
		for _, c := range caps {
			if tokens.Equal(name, c.Name) {
				result.MatchedCapabilities[req.Name] = c
				result.Layers[req.Name] = model.MatchDirect
				found = true
				break
			}
		}
		if !found {
			result.MissingRequirements = append(result.MissingRequirements, req)
		}
	}

	if len(reqs) > 0 {
		result.Confidence = float64(len(result.MatchedCapabilities)) / float64(len(reqs))
	}
	return result, nil
}
