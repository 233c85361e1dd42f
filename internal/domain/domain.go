// Package domain defines the pluggable domain abstraction: extractors
// normalize raw documents, matchers implement domain-specific match and
// substitution logic, validators check entities at a quality level. The
// Registry maps domain names to their components and resolves which domain
// handles a given input type.
package domain

import (
	"context"

	"github.com/supplygraph/matching-engine/internal/model"
)

// Extractor converts raw domain-specific documents into normalized
// requirement and capability lists.
type Extractor interface {
	ExtractRequirements(ctx context.Context, doc map[string]any) ([]model.Requirement, error)
	ExtractCapabilities(ctx context.Context, doc map[string]any) ([]model.Capability, error)
}

// Matcher implements domain-specific match and substitution logic over the
// normalized model.
type Matcher interface {
	// Match pairs requirements with capabilities using the domain's exact
	// matching rules and returns the result with per-requirement layers.
	Match(ctx context.Context, reqs []model.Requirement, caps []model.Capability) (*model.MatchResult, error)

	// FindSubstitute checks all capabilities for a viable substitute for an
	// unmet requirement. Returns nil when none qualifies.
	FindSubstitute(ctx context.Context, req model.Requirement, caps []model.Capability) (*model.Substitution, error)
}

// Validator checks an entity (requirement, capability, or whole supply tree)
// at a declared quality level.
type Validator interface {
	Validate(ctx context.Context, entity any, level model.QualityLevel) (*model.ValidationResult, error)
}

// BoolValidator is the historical synchronous validator shape: a plain
// pass/fail verdict. Registrations carrying one are normalized into a
// Validator at registration time via AdaptBoolValidator, so downstream
// consumers only ever see the result-object shape.
type BoolValidator interface {
	Validate(entity any, level model.QualityLevel) (bool, error)
}

// boolValidatorAdapter wraps a BoolValidator into the unified interface.
type boolValidatorAdapter struct {
	inner BoolValidator
}

func (a *boolValidatorAdapter) Validate(_ context.Context, entity any, level model.QualityLevel) (*model.ValidationResult, error) {
	ok, err := a.inner.Validate(entity, level)
	if err != nil {
		return nil, err
	}
	res := &model.ValidationResult{Valid: ok}
	if ok {
		res.Score = 1.0
	} else {
		res.Errors = []string{"validation failed"}
	}
	return res, nil
}

// AdaptBoolValidator wraps a legacy boolean validator into the unified
// Validator interface. Constructed once at registration.
func AdaptBoolValidator(v BoolValidator) Validator {
	return &boolValidatorAdapter{inner: v}
}

// Metadata describes a registered domain.
type Metadata struct {
	DisplayName string              `json:"display_name"`
	InputTypes  []string            `json:"input_types"`
	Synonyms    map[string][]string `json:"synonyms,omitempty"` // process vocabulary for the semantic layer
}

// Registration bundles a domain's components.
type Registration struct {
	Extractor Extractor
	Matcher   Matcher
	Validator Validator
	Metadata  Metadata
}
