package domain

import (
	"github.com/spf13/cast"

	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/tokens"
)

// SubstituteDeclaration is the parsed form of a capability's
// substitutes_for parameter entry naming a requirement.
type SubstituteDeclaration struct {
	// Confidence is the declared confidence, or -1 when the declaration
	// carries no explicit value.
	Confidence float64
}

// DeclaredSubstitute checks whether a capability's parameters declare it as
// a substitute for the requirement. Accepted shapes: a direct string, a
// list of names, or a map of name to explicit confidence.
func DeclaredSubstitute(c model.Capability, req model.Requirement) (SubstituteDeclaration, bool) {
	raw, ok := c.Parameters["substitutes_for"]
	if !ok {
		return SubstituteDeclaration{}, false
	}

	names := []string{req.Name, req.ProcessName}

	switch v := raw.(type) {
	case string:
		for _, n := range names {
			if tokens.Equal(v, n) {
				return SubstituteDeclaration{Confidence: -1}, true
			}
		}
	case map[string]any:
		for key, val := range v {
			for _, n := range names {
				if !tokens.Equal(key, n) {
					continue
				}
				if conf, err := cast.ToFloat64E(val); err == nil {
					return SubstituteDeclaration{Confidence: conf}, true
				}
				return SubstituteDeclaration{Confidence: -1}, true
			}
		}
	default:
		if list, err := cast.ToStringSliceE(raw); err == nil {
			for _, entry := range list {
				for _, n := range names {
					if tokens.Equal(entry, n) {
						return SubstituteDeclaration{Confidence: -1}, true
					}
				}
			}
		}
	}
	return SubstituteDeclaration{}, false
}
