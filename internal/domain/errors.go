package domain

import "fmt"

// DomainNotFoundError indicates a lookup for an unregistered domain or an
// input type no domain claims.
type DomainNotFoundError struct {
	Domain    string
	InputType string
}

func (e *DomainNotFoundError) Error() string {
	if e.InputType != "" {
		return fmt.Sprintf("no domain registered for input type %q", e.InputType)
	}
	return fmt.Sprintf("domain %q is not registered", e.Domain)
}

// InterfaceViolationError indicates a registration whose components do not
// satisfy the required capability set. Fatal at registration time, never at
// match time.
type InterfaceViolationError struct {
	Domain string
	Reason string
}

func (e *InterfaceViolationError) Error() string {
	return fmt.Sprintf("domain %q: %s", e.Domain, e.Reason)
}

// ExtractionError indicates a malformed source document. Recoverable: the
// matching service skips the affected candidate and continues.
type ExtractionError struct {
	Domain string
	Doc    string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("domain %q: extract %s: %v", e.Domain, e.Doc, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
