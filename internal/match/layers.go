package match

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/supplygraph/matching-engine/internal/domain"
	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/tokens"
)

// layerHit records one requirement satisfied by a pipeline layer. The
// layer's scoring credit comes from the score engine, not the hit.
type layerHit struct {
	capability model.Capability
	layer      model.MatchType
}

// matchHeuristic applies the rule-based near-match layer: bounded edit
// distance between process names, a substring rule, and explicit
// substitution markers declared on the capability.
func matchHeuristic(req model.Requirement, caps []model.Capability, editLimit int) *layerHit {
	rn := processName(req)
	if rn == "" {
		return nil
	}

	for _, c := range caps {
		cn := tokens.Normalize(c.Name)
		if cn == "" {
			continue
		}
		if strings.Contains(rn, cn) || strings.Contains(cn, rn) {
			return &layerHit{capability: c, layer: model.MatchHeuristic}
		}
		if levenshtein.Distance(rn, cn, nil) <= editLimit {
			return &layerHit{capability: c, layer: model.MatchHeuristic}
		}
		if declaresSubstituteFor(c, req) {
			return &layerHit{capability: c, layer: model.MatchHeuristic}
		}
	}
	return nil
}

// matchSemantic checks whether the requirement and a capability name fall
// in the same synonym group of the domain vocabulary.
func matchSemantic(req model.Requirement, caps []model.Capability, vocab map[string][]string) *layerHit {
	rn := processName(req)
	if rn == "" || len(vocab) == 0 {
		return nil
	}

	rGroups := vocabGroups(rn, vocab)
	if len(rGroups) == 0 {
		return nil
	}

	for _, c := range caps {
		cn := tokens.Normalize(c.Name)
		for g := range vocabGroups(cn, vocab) {
			if rGroups[g] {
				return &layerHit{capability: c, layer: model.MatchNLP}
			}
		}
	}
	return nil
}

// vocabGroups returns the synonym groups a normalized name belongs to.
func vocabGroups(name string, vocab map[string][]string) map[string]bool {
	groups := make(map[string]bool)
	for group, members := range vocab {
		if tokens.Equal(group, name) {
			groups[group] = true
			continue
		}
		for _, m := range members {
			if tokens.Equal(m, name) || tokens.ContainsFold(name, m) {
				groups[group] = true
				break
			}
		}
	}
	return groups
}

// declaresSubstituteFor reports whether the capability's parameters carry a
// substitutes_for entry naming the requirement.
func declaresSubstituteFor(c model.Capability, req model.Requirement) bool {
	_, ok := domain.DeclaredSubstitute(c, req)
	return ok
}

func processName(req model.Requirement) string {
	if n := tokens.Normalize(req.ProcessName); n != "" {
		return n
	}
	return tokens.Normalize(req.Name)
}
