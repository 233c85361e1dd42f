package manufacturing

import (
	"context"
	"strings"

	"github.com/spf13/cast"

	"github.com/supplygraph/matching-engine/internal/domain"
	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/tokens"
)

// Substitution confidence ladder. Multi-factor agreement is rewarded, but
// speculative matches never reach near-certainty.
const (
	substituteBase     = 0.70
	substituteExplicit = 0.90
	substituteBonus    = 0.05
	substituteCap      = 0.95
)

// materialGroups clusters materials that can generally stand in for each
// other. Membership is checked by token containment in both directions, so
// "aluminum 6061" falls in the aluminum group.
var materialGroups = [][]string{
	{"steel", "stainless steel", "carbon steel", "alloy steel", "mild steel"},
	{"aluminum", "aluminium"},
	{"abs", "pla", "petg", "plastic", "nylon"},
	{"brass", "bronze", "copper"},
	{"plywood", "mdf", "hardwood", "softwood", "wood"},
	{"titanium", "ti-6al-4v"},
}

// processGroups clusters process names by the capability family that can
// perform them.
var processGroups = map[string][]string{
	"machining": {"milling", "turning", "drilling", "boring", "cnc machining", "cnc milling", "lathe"},
	"additive":  {"3d printing", "fdm", "sla", "sls", "fused deposition"},
	"joining":   {"welding", "brazing", "soldering", "riveting"},
	"forming":   {"bending", "stamping", "forging", "rolling"},
	"cutting":   {"laser cutting", "plasma cutting", "waterjet cutting", "sawing", "shearing"},
	"finishing": {"anodizing", "painting", "powder coating", "polishing", "plating"},
}

// ProcessVocabulary exposes the process groups as the semantic-layer
// synonym vocabulary for this domain.
func ProcessVocabulary() map[string][]string {
	return processGroups
}

// FindSubstitute checks whether any capability can stand in for an unmet
// requirement. Factors, in priority order: an explicit substitutes_for
// declaration, material compatibility, process similarity, tool overlap,
// and specification (tolerance/dimension) match. An explicit declaration
// with a confidence value is used verbatim; otherwise confidence starts at
// the base (higher when explicitly declared) and gains a small bonus per
// corroborating factor, capped.
func (m *Matcher) FindSubstitute(_ context.Context, req model.Requirement, caps []model.Capability) (*model.Substitution, error) {
	var best *model.Substitution
	for _, c := range caps {
		sub := evaluateSubstitute(req, c)
		if sub == nil {
			continue
		}
		if best == nil || sub.Confidence > best.Confidence {
			best = sub
		}
	}
	return best, nil
}

func evaluateSubstitute(req model.Requirement, c model.Capability) *model.Substitution {
	var factors []string
	explicitConf := -1.0

	if decl, ok := domain.DeclaredSubstitute(c, req); ok {
		factors = append(factors, "explicit declaration")
		explicitConf = decl.Confidence
	}
	if materialsCompatible(req, c) {
		factors = append(factors, "material compatibility")
	}
	if processesSimilar(req, c) {
		factors = append(factors, "process similarity")
	}
	if toolsCompatible(req, c) {
		factors = append(factors, "tool compatibility")
	}
	if specificationsMatch(req, c) {
		factors = append(factors, "specification match")
	}

	if len(factors) == 0 {
		return nil
	}

	var conf float64
	switch {
	case explicitConf >= 0:
		// Declared confidence wins verbatim.
		conf = model.RoundScore(explicitConf)
	case factors[0] == "explicit declaration":
		conf = substituteExplicit + substituteBonus*float64(len(factors)-1)
	default:
		conf = substituteBase + substituteBonus*float64(len(factors)-1)
	}
	if conf > substituteCap {
		conf = substituteCap
	}

	return &model.Substitution{
		Original:    req,
		Substitute:  c,
		Confidence:  conf,
		Constraints: c.Limitations,
		Notes:       "substitution factors: " + strings.Join(factors, ", "),
	}
}

// materialsCompatible reports whether any required material matches a
// capability material exactly or through the compatibility groups, checked
// in both directions.
func materialsCompatible(req model.Requirement, c model.Capability) bool {
	capMats := capabilityStrings(c, "materials", "material")
	if len(req.Materials) == 0 || len(capMats) == 0 {
		return false
	}
	for _, rm := range req.Materials {
		for _, cm := range capMats {
			if tokens.Equal(rm, cm) || sameMaterialGroup(rm, cm) {
				return true
			}
		}
	}
	return false
}

func sameMaterialGroup(a, b string) bool {
	na, nb := tokens.Normalize(a), tokens.Normalize(b)
	for _, group := range materialGroups {
		inA, inB := false, false
		for _, member := range group {
			if strings.Contains(na, member) || strings.Contains(member, na) {
				inA = true
			}
			if strings.Contains(nb, member) || strings.Contains(member, nb) {
				inB = true
			}
		}
		if inA && inB {
			return true
		}
	}
	return false
}

// processesSimilar reports whether the process names fall in the same
// similarity group or one is a substring of the other.
func processesSimilar(req model.Requirement, c model.Capability) bool {
	rn := tokens.Normalize(req.ProcessName)
	if rn == "" {
		rn = tokens.Normalize(req.Name)
	}
	cn := tokens.Normalize(c.Name)
	if rn == "" || cn == "" {
		return false
	}
	if strings.Contains(rn, cn) || strings.Contains(cn, rn) {
		return true
	}
	for _, members := range processGroups {
		inR, inC := false, false
		for _, member := range members {
			if strings.Contains(rn, member) || strings.Contains(member, rn) {
				inR = true
			}
			if strings.Contains(cn, member) || strings.Contains(member, cn) {
				inC = true
			}
		}
		if inR && inC {
			return true
		}
	}
	return false
}

// toolsCompatible reports whether any required tool token matches a
// declared capability tool or equipment token.
func toolsCompatible(req model.Requirement, c model.Capability) bool {
	if len(req.RequiredTools) == 0 {
		return false
	}
	capTools := capabilityStrings(c, "tools", "equipment")
	return tokens.AnyOverlap(req.RequiredTools, capTools)
}

// specificationsMatch checks declared tolerances (tighter-or-equal
// qualifies) and dimensions (within tolerance fraction on overlapping named
// axes).
func specificationsMatch(req model.Requirement, c model.Capability) bool {
	const dimensionTolerance = 0.10

	reqTol, reqHasTol := paramFloat(req.Parameters, "tolerance")
	capTol, capHasTol := paramFloat(c.Parameters, "tolerance")
	if reqHasTol && capHasTol && capTol <= reqTol {
		return true
	}

	reqDims, okR := paramMap(req.Parameters, "dimensions")
	capDims, okC := paramMap(c.Parameters, "dimensions")
	if okR && okC {
		for axis, rv := range reqDims {
			rf, err := cast.ToFloat64E(rv)
			if err != nil || rf == 0 {
				continue
			}
			cvRaw, ok := capDims[axis]
			if !ok {
				continue
			}
			cf, err := cast.ToFloat64E(cvRaw)
			if err != nil {
				continue
			}
			diff := cf - rf
			if diff < 0 {
				diff = -diff
			}
			if diff/rf <= dimensionTolerance {
				return true
			}
		}
	}
	return false
}

func capabilityStrings(c model.Capability, keys ...string) []string {
	var out []string
	for _, key := range keys {
		raw, ok := c.Parameters[key]
		if !ok {
			continue
		}
		if list, err := cast.ToStringSliceE(raw); err == nil {
			out = append(out, list...)
		} else if s, err := cast.ToStringE(raw); err == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func paramFloat(params map[string]any, key string) (float64, bool) {
	raw, ok := params[key]
	if !ok {
		return 0, false
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func paramMap(params map[string]any, key string) (map[string]any, bool) {
	raw, ok := params[key]
	if !ok {
		return nil, false
	}
	m, ok := raw.(map[string]any)
	return m, ok
}
