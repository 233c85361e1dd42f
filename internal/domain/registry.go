package domain

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry maps domain names to their registered components and maintains
// an input-type index for Resolve. Read-mostly after startup registration;
// lookups take a shared lock only.
type Registry struct {
	mu         sync.RWMutex
	domains    map[string]Registration
	inputTypes map[string]string // normalized input type → domain name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		domains:    make(map[string]Registration),
		inputTypes: make(map[string]string),
	}
}

// Register adds a domain. Nil components are an InterfaceViolationError:
// a domain that cannot match or validate must not serve traffic.
// Re-registering an existing name overwrites it with a warning.
func (r *Registry) Register(name string, reg Registration) error {
	if name == "" {
		return &InterfaceViolationError{Domain: name, Reason: "empty domain name"}
	}
	if reg.Extractor == nil {
		return &InterfaceViolationError{Domain: name, Reason: "extractor does not satisfy the Extractor interface"}
	}
	if reg.Matcher == nil {
		return &InterfaceViolationError{Domain: name, Reason: "matcher does not satisfy the Matcher interface"}
	}
	if reg.Validator == nil {
		return &InterfaceViolationError{Domain: name, Reason: "validator does not satisfy the Validator interface"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, exists := r.domains[name]; exists {
		zap.L().Warn("registry: overwriting existing domain registration",
			zap.String("domain", name),
		)
		// Drop the previous registration's input-type claims.
		for _, it := range prev.Metadata.InputTypes {
			delete(r.inputTypes, normalizeType(it))
		}
	}

	r.domains[name] = reg
	for _, it := range reg.Metadata.InputTypes {
		key := normalizeType(it)
		if owner, claimed := r.inputTypes[key]; claimed && owner != name {
			zap.L().Warn("registry: input type reassigned",
				zap.String("input_type", key),
				zap.String("from", owner),
				zap.String("to", name),
			)
		}
		r.inputTypes[key] = name
	}

	zap.L().Info("registry: domain registered",
		zap.String("domain", name),
		zap.Strings("input_types", reg.Metadata.InputTypes),
	)
	return nil
}

// Resolve returns the domain name claiming the given input type.
func (r *Registry) Resolve(inputType string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.inputTypes[normalizeType(inputType)]
	if !ok {
		return "", &DomainNotFoundError{InputType: inputType}
	}
	return name, nil
}

// GetExtractor returns the extractor for a registered domain.
func (r *Registry) GetExtractor(name string) (Extractor, error) {
	reg, err := r.get(name)
	if err != nil {
		return nil, err
	}
	return reg.Extractor, nil
}

// GetMatcher returns the matcher for a registered domain.
func (r *Registry) GetMatcher(name string) (Matcher, error) {
	reg, err := r.get(name)
	if err != nil {
		return nil, err
	}
	return reg.Matcher, nil
}

// GetValidator returns the validator for a registered domain.
func (r *Registry) GetValidator(name string) (Validator, error) {
	reg, err := r.get(name)
	if err != nil {
		return nil, err
	}
	return reg.Validator, nil
}

// GetMetadata returns the metadata for a registered domain.
func (r *Registry) GetMetadata(name string) (Metadata, error) {
	reg, err := r.get(name)
	if err != nil {
		return Metadata{}, err
	}
	return reg.Metadata, nil
}

// Domains returns the sorted names of all registered domains.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.domains))
	for name := range r.domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) get(name string) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.domains[name]
	if !ok {
		return Registration{}, &DomainNotFoundError{Domain: name}
	}
	return reg, nil
}

func normalizeType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
