// Package cooking implements the cooking domain: recipes on the
// requirement side, kitchen inventories on the capability side. It is the
// second registered domain and keeps the engine honest about staying
// domain-agnostic.
package cooking

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cast"

	"github.com/supplygraph/matching-engine/internal/domain"
	"github.com/supplygraph/matching-engine/internal/model"
	"github.com/supplygraph/matching-engine/internal/tokens"
)

// DomainName identifies this domain in the registry.
const DomainName = "cooking"

// InputTypes lists the document types this domain claims.
var InputTypes = []string{"recipe", "kitchen", "cooking"}

// techniqueGroups clusters cooking techniques by the appliance family that
// performs them. Doubles as the semantic-layer vocabulary.
var techniqueGroups = map[string][]string{
	"oven":     {"bake", "baking", "roast", "roasting", "broil", "broiling"},
	"stovetop": {"fry", "frying", "saute", "sear", "searing", "simmer", "boil", "boiling"},
	"blender":  {"blend", "blending", "puree", "mix", "mixing", "whip", "whipping"},
	"grill":    {"grill", "grilling", "barbecue", "char"},
	"chill":    {"freeze", "freezing", "chill", "refrigerate"},
}

// ingredientGroups clusters ingredients that can generally stand in for
// each other.
var ingredientGroups = [][]string{
	{"butter", "margarine", "shortening", "coconut oil"},
	{"sugar", "honey", "maple syrup", "agave"},
	{"milk", "cream", "half-and-half", "oat milk", "soy milk"},
	{"all-purpose flour", "bread flour", "flour"},
	{"vegetable oil", "canola oil", "sunflower oil", "olive oil"},
}

// Register adds the cooking domain to the registry. The validator uses the
// legacy boolean shape and is adapted at registration.
func Register(registry *domain.Registry) error {
	return registry.Register(DomainName, domain.Registration{
		Extractor: NewExtractor(),
		Matcher:   NewMatcher(),
		Validator: domain.AdaptBoolValidator(NewValidator()),
		Metadata: domain.Metadata{
			DisplayName: "Cooking",
			InputTypes:  InputTypes,
			Synonyms:    techniqueGroups,
		},
	})
}

// Extractor normalizes recipe and kitchen documents.
type Extractor struct{}

// NewExtractor creates a cooking extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractRequirements reads recipe steps as requirements. Each step's
// technique becomes the process name; the recipe's ingredients become the
// materials of every step unless the step declares its own.
func (e *Extractor) ExtractRequirements(_ context.Context, doc map[string]any) ([]model.Requirement, error) {
	if len(doc) == 0 {
		return nil, eris.New("cooking: empty recipe document")
	}

	recipeIngredients, _ := cast.ToStringSliceE(doc["ingredients"])

	rawSteps, ok := doc["steps"].([]any)
	if !ok || len(rawSteps) == 0 {
		return nil, eris.New("cooking: recipe declares no steps")
	}

	reqs := make([]model.Requirement, 0, len(rawSteps))
	for i, raw := range rawSteps {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, eris.Errorf("cooking: step %d is not a map", i)
		}
		req := model.Requirement{
			Name:        cast.ToString(m["name"]),
			ProcessName: cast.ToString(m["technique"]),
			Domain:      DomainName,
		}
		if req.Name == "" {
			req.Name = req.ProcessName
		}
		if req.ProcessName == "" {
			req.ProcessName = req.Name
		}
		if req.Name == "" {
			return nil, eris.Errorf("cooking: step %d has no name or technique", i)
		}
		if own, err := cast.ToStringSliceE(m["ingredients"]); err == nil && len(own) > 0 {
			req.Materials = own
		} else {
			req.Materials = recipeIngredients
		}
		req.RequiredTools, _ = cast.ToStringSliceE(m["equipment"])
		if params, ok := m["parameters"].(map[string]any); ok {
			req.Parameters = params
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// ExtractCapabilities reads a kitchen's appliances with the pantry attached
// as the material pool.
func (e *Extractor) ExtractCapabilities(_ context.Context, doc map[string]any) ([]model.Capability, error) {
	if len(doc) == 0 {
		return nil, eris.New("cooking: empty kitchen document")
	}

	appliances, err := cast.ToStringSliceE(doc["appliances"])
	if err != nil || len(appliances) == 0 {
		return nil, eris.New("cooking: kitchen declares no appliances")
	}
	pantry, _ := cast.ToStringSliceE(doc["pantry"])

	caps := make([]model.Capability, 0, len(appliances))
	for _, a := range appliances {
		caps = append(caps, model.Capability{
			Name:   a,
			Type:   "appliance",
			Domain: DomainName,
			Parameters: map[string]any{
				"materials": pantry,
			},
		})
	}
	return caps, nil
}

// Matcher implements the cooking domain's matching and substitution logic.
type Matcher struct{}

// NewMatcher creates a cooking matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match pairs recipe steps with appliances by exact technique equality.
func (m *Matcher) Match(_ context.Context, reqs []model.Requirement, caps []model.Capability) (*model.MatchResult, error) {
	result := &model.MatchResult{
		MatchedCapabilities: make(map[string]model.Capability),
		Layers:              make(map[string]model.MatchType),
	}
	for _, req := range reqs {
		found := false
		for _, c := range caps {
			if tokens.Equal(req.ProcessName, c.Name) {
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

// FindSubstitute checks appliances for a stand-in: explicit declarations,
// technique-family similarity, and ingredient compatibility.
func (m *Matcher) FindSubstitute(_ context.Context, req model.Requirement, caps []model.Capability) (*model.Substitution, error) {
	var best *model.Substitution
	for _, c := range caps {
		var factors []string
		explicitConf := -1.0

		if decl, ok := domain.DeclaredSubstitute(c, req); ok {
			factors = append(factors, "explicit declaration")
			explicitConf = decl.Confidence
		}
		if sameTechniqueFamily(req.ProcessName, c.Name) {
			factors = append(factors, "technique family")
		}
		if ingredientsCompatible(req.Materials, c) {
			factors = append(factors, "ingredient compatibility")
		}
		if len(factors) == 0 {
			continue
		}

		var conf float64
		switch {
		case explicitConf >= 0:
			conf = model.RoundScore(explicitConf)
		case factors[0] == "explicit declaration":
			conf = 0.90 + 0.05*float64(len(factors)-1)
		default:
			conf = 0.70 + 0.05*float64(len(factors)-1)
		}
		if conf > 0.95 {
			conf = 0.95
		}

		sub := &model.Substitution{
			Original:    req,
			Substitute:  c,
			Confidence:  conf,
			Constraints: c.Limitations,
			Notes:       "substitution factors: " + strings.Join(factors, ", "),
		}
		if best == nil || sub.Confidence > best.Confidence {
			best = sub
		}
	}
	return best, nil
}

func sameTechniqueFamily(technique, appliance string) bool {
	nt, na := tokens.Normalize(technique), tokens.Normalize(appliance)
	if nt == "" || na == "" {
		return false
	}
	if strings.Contains(nt, na) || strings.Contains(na, nt) {
		return true
	}
	for family, members := range techniqueGroups {
		inT, inA := false, false
		if strings.Contains(na, family) {
			inA = true
		}
		for _, member := range members {
			if strings.Contains(nt, member) || strings.Contains(member, nt) {
				inT = true
			}
			if strings.Contains(na, member) || strings.Contains(member, na) {
				inA = true
			}
		}
		if inT && inA {
			return true
		}
	}
	return false
}

func ingredientsCompatible(required []string, c model.Capability) bool {
	available, _ := cast.ToStringSliceE(c.Parameters["materials"])
	if len(required) == 0 || len(available) == 0 {
		return false
	}
	for _, r := range required {
		for _, a := range available {
			if tokens.Equal(r, a) || sameIngredientGroup(r, a) {
				return true
			}
		}
	}
	return false
}

func sameIngredientGroup(a, b string) bool {
	na, nb := tokens.Normalize(a), tokens.Normalize(b)
	for _, group := range ingredientGroups {
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

// Validator is the cooking domain's legacy pass/fail validator. It is
// wrapped by domain.AdaptBoolValidator at registration.
type Validator struct{}

// NewValidator creates a cooking validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns a plain verdict: trees must be structurally valid, and
// professional kitchens reject low-confidence plans.
func (v *Validator) Validate(entity any, level model.QualityLevel) (bool, error) {
	switch e := entity.(type) {
	case *model.SupplyTree:
		if err := e.Validate(); err != nil {
			return false, nil
		}
		if level.AtLeast(model.QualityProfessional) && e.ConfidenceScore < 0.5 {
			return false, nil
		}
		return true, nil
	case model.Requirement:
		return e.Name != "" || e.ProcessName != "", nil
	case model.Capability:
		return e.Name != "", nil
	default:
		return false, eris.Errorf("cooking: unsupported entity type %T", entity)
	}
}
