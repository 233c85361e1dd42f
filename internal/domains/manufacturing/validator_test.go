package manufacturing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplygraph/matching-engine/internal/model"
)

func validTree(confidence float64) *model.SupplyTree {
	tree := model.NewSupplyTree("Acme Fabrication", "okh-widget", "okw-acme", confidence)
	tree.CapabilitiesUsed = []string{"CNC Milling"}
	return tree
}

func TestValidateTreePassesAtHobby(t *testing.T) {
	res, err := NewValidator().Validate(context.Background(), validTree(0.4), model.QualityHobby)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.InDelta(t, 1.0, res.Score, 0.0001)
}

func TestValidateTreeThresholds(t *testing.T) {
	cases := []struct {
		level      model.QualityLevel
		confidence float64
		valid      bool
	}{
		{model.QualityHobby, 0.3, true},
		{model.QualityHobby, 0.29, false},
		{model.QualityProfessional, 0.5, true},
		{model.QualityProfessional, 0.49, false},
		{model.QualityMedical, 0.7, true},
		{model.QualityMedical, 0.69, false},
	}
	for _, tc := range cases {
		res, err := NewValidator().Validate(context.Background(), validTree(tc.confidence), tc.level)
		require.NoError(t, err)
		assert.Equal(t, tc.valid, res.Valid, "level %s confidence %.2f", tc.level, tc.confidence)
	}
}

func TestValidateTreeSubstitutionsByLevel(t *testing.T) {
	tree := validTree(0.9)
	tree.Substitutions = []model.Substitution{{
		Original:   model.Requirement{Name: "Injection Molding"},
		Substitute: model.Capability{Name: "3D Printing"},
		Confidence: 0.7,
	}}

	v := NewValidator()
	ctx := context.Background()

	hobby, err := v.Validate(ctx, tree, model.QualityHobby)
	require.NoError(t, err)
	assert.True(t, hobby.Valid)
	assert.Empty(t, hobby.Warnings)

	pro, err := v.Validate(ctx, tree, model.QualityProfessional)
	require.NoError(t, err)
	assert.True(t, pro.Valid)
	require.Len(t, pro.Warnings, 1)
	assert.Contains(t, pro.Warnings[0], "substitution(s) require engineering review")
	assert.InDelta(t, 0.95, pro.Score, 0.0001)

	med, err := v.Validate(ctx, tree, model.QualityMedical)
	require.NoError(t, err)
	assert.False(t, med.Valid)
	require.NotEmpty(t, med.Errors)
	assert.Contains(t, med.Errors[0], "not acceptable at medical quality")
}

func TestValidateTreeLLMWarning(t *testing.T) {
	tree := validTree(0.8)
	tree.MatchType = model.MatchLLM

	pro, err := NewValidator().Validate(context.Background(), tree, model.QualityProfessional)
	require.NoError(t, err)
	assert.True(t, pro.Valid)
	require.Len(t, pro.Warnings, 1)
	assert.Contains(t, pro.Warnings[0], "AI-assisted")

	hobby, err := NewValidator().Validate(context.Background(), tree, model.QualityHobby)
	require.NoError(t, err)
	assert.Empty(t, hobby.Warnings)
}

func TestValidateTreeIncompleteIdentity(t *testing.T) {
	tree := validTree(0.9)
	tree.OKWReference = ""

	res, err := NewValidator().Validate(context.Background(), tree, model.QualityHobby)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}

func TestValidateTreeSuggestsCapabilities(t *testing.T) {
	tree := model.NewSupplyTree("Acme Fabrication", "okh-widget", "okw-acme", 0.9)

	res, err := NewValidator().Validate(context.Background(), tree, model.QualityHobby)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.Len(t, res.Suggestions, 1)
	assert.Contains(t, res.Suggestions[0], "no capabilities recorded")
}

func TestValidateScoreFormula(t *testing.T) {
	// Two errors: 1.0 - 2*0.2.
	tree := validTree(0.6)
	tree.Substitutions = []model.Substitution{{Confidence: 0.7}}

	res, err := NewValidator().Validate(context.Background(), tree, model.QualityMedical)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 2) // below threshold + substitution rejected
	assert.InDelta(t, 0.6, res.Score, 0.0001)
}

func TestValidateRequirement(t *testing.T) {
	v := NewValidator()
	ctx := context.Background()

	res, err := v.Validate(ctx, model.Requirement{}, model.QualityHobby)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "no name")

	res, err = v.Validate(ctx, model.Requirement{Name: "Milling"}, model.QualityHobby)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "no materials declared")

	res, err = v.Validate(ctx, model.Requirement{Name: "Milling"}, model.QualityMedical)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "declared tolerance")

	res, err = v.Validate(ctx, model.Requirement{
		Name:       "Milling",
		Parameters: map[string]any{"tolerance": 0.01},
	}, model.QualityMedical)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateCapability(t *testing.T) {
	v := NewValidator()
	ctx := context.Background()

	res, err := v.Validate(ctx, model.Capability{}, model.QualityHobby)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	res, err = v.Validate(ctx, model.Capability{Name: "CNC Milling"}, model.QualityHobby)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.Len(t, res.Suggestions, 1)
}

func TestValidateUnsupportedEntity(t *testing.T) {
	res, err := NewValidator().Validate(context.Background(), 42, model.QualityHobby)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "unsupported entity type")
}
