package manufacturing

import (
	"context"
	"fmt"

	"github.com/supplygraph/matching-engine/internal/model"
)

// minConfidence is the lowest acceptable solution confidence per quality
// level.
var minConfidence = map[model.QualityLevel]float64{
	model.QualityHobby:        0.3,
	model.QualityProfessional: 0.5,
	model.QualityMedical:      0.7,
}

// Validator checks manufacturing entities against a quality level.
type Validator struct{}

// NewValidator creates a manufacturing validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks a supply tree, requirement, or capability. Quality levels
// tighten the checks: medical work rejects substitutions outright and
// requires declared tolerances.
func (v *Validator) Validate(_ context.Context, entity any, level model.QualityLevel) (*model.ValidationResult, error) {
	res := &model.ValidationResult{Valid: true, Score: 1.0}

	switch e := entity.(type) {
	case *model.SupplyTree:
		v.validateTree(e, level, res)
	case model.SupplyTree:
		v.validateTree(&e, level, res)
	case model.Requirement:
		v.validateRequirement(e, level, res)
	case model.Capability:
		v.validateCapability(e, res)
	default:
		res.Valid = false
		res.Errors = append(res.Errors, fmt.Sprintf("unsupported entity type %T", entity))
	}

	res.Score = model.RoundScore(res.Score - 0.2*float64(len(res.Errors)) - 0.05*float64(len(res.Warnings)))
	res.Valid = res.Valid && len(res.Errors) == 0
	return res, nil
}

func (v *Validator) validateTree(tree *model.SupplyTree, level model.QualityLevel, res *model.ValidationResult) {
	if err := tree.Validate(); err != nil {
		res.Errors = append(res.Errors, err.Error())
	}

	if threshold, ok := minConfidence[level]; ok && tree.ConfidenceScore < threshold {
		res.Errors = append(res.Errors, fmt.Sprintf("confidence %.2f below %s threshold %.2f", tree.ConfidenceScore, level, threshold))
	}

	if len(tree.Substitutions) > 0 {
		if level.AtLeast(model.QualityMedical) {
			res.Errors = append(res.Errors, "substitutions are not acceptable at medical quality")
		} else if level.AtLeast(model.QualityProfessional) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%d substitution(s) require engineering review", len(tree.Substitutions)))
		}
	}

	if tree.MatchType == model.MatchLLM && level.AtLeast(model.QualityProfessional) {
		res.Warnings = append(res.Warnings, "dominant match is AI-assisted; verify against facility documentation")
	}

	if len(tree.CapabilitiesUsed) == 0 {
		res.Suggestions = append(res.Suggestions, "no capabilities recorded; re-run matching with a richer facility document")
	}
}

func (v *Validator) validateRequirement(req model.Requirement, level model.QualityLevel, res *model.ValidationResult) {
	if req.Name == "" && req.ProcessName == "" {
		res.Errors = append(res.Errors, "requirement has no name")
	}
	if level.AtLeast(model.QualityMedical) {
		if _, ok := paramFloat(req.Parameters, "tolerance"); !ok {
			res.Errors = append(res.Errors, "medical quality requires a declared tolerance")
		}
	} else if len(req.Materials) == 0 {
		res.Warnings = append(res.Warnings, "no materials declared; material scoring will be vacuous")
	}
}

func (v *Validator) validateCapability(c model.Capability, res *model.ValidationResult) {
	if c.Name == "" {
		res.Errors = append(res.Errors, "capability has no name")
	}
	if len(c.Parameters) == 0 {
		res.Suggestions = append(res.Suggestions, "declare materials, tools and capacity parameters for better matching")
	}
}
