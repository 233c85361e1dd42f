package cooking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplygraph/matching-engine/internal/domain"
	"github.com/supplygraph/matching-engine/internal/model"
)

func recipeDoc() map[string]any {
	return map[string]any{
		"name":        "banana bread",
		"ingredients": []any{"flour", "butter", "sugar"},
		"steps": []any{
			map[string]any{
				"name":      "mix batter",
				"technique": "mixing",
				"equipment": []any{"stand mixer"},
			},
			map[string]any{
				"technique":   "baking",
				"ingredients": []any{"batter"},
				"parameters":  map[string]any{"temperature_c": 175},
			},
		},
	}
}

func TestExtractRequirementsFromRecipe(t *testing.T) {
	reqs, err := NewExtractor().ExtractRequirements(context.Background(), recipeDoc())
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "mix batter", reqs[0].Name)
	assert.Equal(t, "mixing", reqs[0].ProcessName)
	// Steps without their own ingredients inherit the recipe's.
	assert.Equal(t, []string{"flour", "butter", "sugar"}, reqs[0].Materials)
	assert.Equal(t, []string{"stand mixer"}, reqs[0].RequiredTools)

	assert.Equal(t, "baking", reqs[1].Name)
	assert.Equal(t, []string{"batter"}, reqs[1].Materials)
	assert.Equal(t, 175, reqs[1].Parameters["temperature_c"])
	assert.Equal(t, DomainName, reqs[1].Domain)
}

func TestExtractRequirementsErrors(t *testing.T) {
	ex := NewExtractor()
	ctx := context.Background()

	_, err := ex.ExtractRequirements(ctx, map[string]any{})
	assert.ErrorContains(t, err, "empty recipe")

	_, err = ex.ExtractRequirements(ctx, map[string]any{"name": "toast"})
	assert.ErrorContains(t, err, "declares no steps")

	_, err = ex.ExtractRequirements(ctx, map[string]any{
		"steps": []any{map[string]any{"ingredients": []any{"bread"}}},
	})
	assert.ErrorContains(t, err, "no name or technique")
}

func TestExtractCapabilitiesFromKitchen(t *testing.T) {
	doc := map[string]any{
		"appliances": []any{"oven", "blender"},
		"pantry":     []any{"flour", "honey"},
	}

	caps, err := NewExtractor().ExtractCapabilities(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, caps, 2)
	assert.Equal(t, "oven", caps[0].Name)
	assert.Equal(t, "appliance", caps[0].Type)
	assert.Equal(t, []string{"flour", "honey"}, caps[0].Parameters["materials"])
}

func TestExtractCapabilitiesErrors(t *testing.T) {
	_, err := NewExtractor().ExtractCapabilities(context.Background(), map[string]any{"name": "studio"})
	assert.ErrorContains(t, err, "declares no appliances")
}

func TestMatchTechniques(t *testing.T) {
	reqs := []model.Requirement{
		{Name: "mix batter", ProcessName: "Blender"},
		{Name: "bake loaf", ProcessName: "baking"},
	}
	caps := []model.Capability{{Name: "blender"}}

	res, err := NewMatcher().Match(context.Background(), reqs, caps)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Confidence, 0.0001)
	assert.Equal(t, model.MatchDirect, res.Layers["mix batter"])
	require.Len(t, res.MissingRequirements, 1)
	assert.Equal(t, "bake loaf", res.MissingRequirements[0].Name)
}

func TestFindSubstituteTechniqueFamily(t *testing.T) {
	req := model.Requirement{Name: "bake loaf", ProcessName: "baking"}
	caps := []model.Capability{{Name: "oven"}}

	sub, err := NewMatcher().FindSubstitute(context.Background(), req, caps)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.InDelta(t, 0.70, sub.Confidence, 0.0001)
	assert.Contains(t, sub.Notes, "technique family")
}

func TestFindSubstituteIngredientBonus(t *testing.T) {
	req := model.Requirement{
		Name:        "cream butter",
		ProcessName: "whipping",
		Materials:   []string{"butter"},
	}
	caps := []model.Capability{{
		Name:       "blender",
		Parameters: map[string]any{"materials": []any{"margarine"}},
	}}

	sub, err := NewMatcher().FindSubstitute(context.Background(), req, caps)
	require.NoError(t, err)
	require.NotNil(t, sub)
	// technique family + ingredient compatibility: 0.70 + 0.05.
	assert.InDelta(t, 0.75, sub.Confidence, 0.0001)
}

func TestFindSubstituteExplicitDeclaration(t *testing.T) {
	req := model.Requirement{Name: "grill patties", ProcessName: "grilling"}
	caps := []model.Capability{{
		Name:       "cast iron pan",
		Parameters: map[string]any{"substitutes_for": map[string]any{"grilling": 0.8}},
	}}

	sub, err := NewMatcher().FindSubstitute(context.Background(), req, caps)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.InDelta(t, 0.8, sub.Confidence, 0.0001)
}

func TestFindSubstituteNone(t *testing.T) {
	req := model.Requirement{Name: "freeze sorbet", ProcessName: "freezing"}
	caps := []model.Capability{{Name: "toaster"}}

	sub, err := NewMatcher().FindSubstitute(context.Background(), req, caps)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestBoolValidatorThroughAdapter(t *testing.T) {
	registry := domain.NewRegistry()
	require.NoError(t, Register(registry))

	validator, err := registry.GetValidator(DomainName)
	require.NoError(t, err)

	tree := model.NewSupplyTree("Home Kitchen", "recipe-bread", "kitchen-home", 0.9)
	res, err := validator.Validate(context.Background(), tree, model.QualityProfessional)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.InDelta(t, 1.0, res.Score, 0.0001)

	weak := model.NewSupplyTree("Home Kitchen", "recipe-bread", "kitchen-home", 0.4)
	res, err = validator.Validate(context.Background(), weak, model.QualityProfessional)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "validation failed", res.Errors[0])
}

func TestValidatorVerdicts(t *testing.T) {
	v := NewValidator()

	ok, err := v.Validate(model.Requirement{Name: "bake"}, model.QualityHobby)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.Validate(model.Requirement{}, model.QualityHobby)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = v.Validate(model.Capability{Name: "oven"}, model.QualityHobby)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = v.Validate("soup", model.QualityHobby)
	assert.ErrorContains(t, err, "unsupported entity type")
}
