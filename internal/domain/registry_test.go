package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplygraph/matching-engine/internal/model"
)

type stubExtractor struct{}

func (stubExtractor) ExtractRequirements(context.Context, map[string]any) ([]model.Requirement, error) {
	return nil, nil
}

func (stubExtractor) ExtractCapabilities(context.Context, map[string]any) ([]model.Capability, error) {
	return nil, nil
}

type stubMatcher struct{}

func (stubMatcher) Match(context.Context, []model.Requirement, []model.Capability) (*model.MatchResult, error) {
	return &model.MatchResult{}, nil
}

func (stubMatcher) FindSubstitute(context.Context, model.Requirement, []model.Capability) (*model.Substitution, error) {
	return nil, nil
}

type stubValidator struct{}

func (stubValidator) Validate(context.Context, any, model.QualityLevel) (*model.ValidationResult, error) {
	return &model.ValidationResult{Valid: true, Score: 1.0}, nil
}

func stubRegistration(inputTypes ...string) Registration {
	return Registration{
		Extractor: stubExtractor{},
		Matcher:   stubMatcher{},
		Validator: stubValidator{},
		Metadata:  Metadata{DisplayName: "Stub", InputTypes: inputTypes},
	}
}

func TestRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("widgets", stubRegistration("widget", "WidgetFacility")))

	name, err := r.Resolve("widget")
	require.NoError(t, err)
	assert.Equal(t, "widgets", name)

	// Resolution is case-insensitive.
	name, err = r.Resolve("  widgetfacility ")
	require.NoError(t, err)
	assert.Equal(t, "widgets", name)
}

func TestResolveUnknownInputType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("mystery")
	require.Error(t, err)

	var notFound *DomainNotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Equal(t, "mystery", notFound.InputType)
}

func TestRegisterNilComponents(t *testing.T) {
	r := NewRegistry()

	reg := stubRegistration("x")
	reg.Matcher = nil
	err := r.Register("broken", reg)
	require.Error(t, err)

	var violation *InterfaceViolationError
	assert.True(t, errors.As(err, &violation))
	assert.Contains(t, violation.Reason, "Matcher")

	reg = stubRegistration("x")
	reg.Validator = nil
	assert.Error(t, r.Register("broken", reg))

	reg = stubRegistration("x")
	reg.Extractor = nil
	assert.Error(t, r.Register("broken", reg))

	assert.Error(t, r.Register("", stubRegistration("x")))

	// Nothing was registered.
	assert.Empty(t, r.Domains())
}

func TestReRegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("widgets", stubRegistration("widget", "legacy")))
	require.NoError(t, r.Register("widgets", stubRegistration("widget")))

	// The replaced registration's extra input type claim is gone.
	_, err := r.Resolve("legacy")
	assert.Error(t, err)

	name, err := r.Resolve("widget")
	require.NoError(t, err)
	assert.Equal(t, "widgets", name)
}

func TestGetters(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("widgets", stubRegistration("widget")))

	ex, err := r.GetExtractor("widgets")
	require.NoError(t, err)
	assert.NotNil(t, ex)

	m, err := r.GetMatcher("widgets")
	require.NoError(t, err)
	assert.NotNil(t, m)

	v, err := r.GetValidator("widgets")
	require.NoError(t, err)
	assert.NotNil(t, v)

	meta, err := r.GetMetadata("widgets")
	require.NoError(t, err)
	assert.Equal(t, "Stub", meta.DisplayName)

	_, err = r.GetMatcher("gadgets")
	var notFound *DomainNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestDomainsSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("zeta", stubRegistration("z")))
	require.NoError(t, r.Register("alpha", stubRegistration("a")))

	assert.Equal(t, []string{"alpha", "zeta"}, r.Domains())
}

type passFailValidator struct {
	pass bool
}

func (v passFailValidator) Validate(any, model.QualityLevel) (bool, error) {
	return v.pass, nil
}

func TestAdaptBoolValidator(t *testing.T) {
	pass := AdaptBoolValidator(passFailValidator{pass: true})
	res, err := pass.Validate(context.Background(), nil, model.QualityHobby)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 1.0, res.Score)
	assert.Empty(t, res.Errors)

	fail := AdaptBoolValidator(passFailValidator{pass: false})
	res, err = fail.Validate(context.Background(), nil, model.QualityHobby)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}
