package model

import "github.com/rotisserie/eris"

// QualityLevel is an ordered strictness tier understood by every domain
// validator.
type QualityLevel string

const (
	QualityHobby        QualityLevel = "hobby"
	QualityProfessional QualityLevel = "professional"
	QualityMedical      QualityLevel = "medical"
)

// Rank orders quality levels by increasing strictness.
func (q QualityLevel) Rank() int {
	switch q {
	case QualityMedical:
		return 3
	case QualityProfessional:
		return 2
	case QualityHobby:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether q is as strict as other.
func (q QualityLevel) AtLeast(other QualityLevel) bool {
	return q.Rank() >= other.Rank()
}

// ParseQualityLevel validates a quality level string.
func ParseQualityLevel(s string) (QualityLevel, error) {
	switch QualityLevel(s) {
	case QualityHobby, QualityProfessional, QualityMedical:
		return QualityLevel(s), nil
	default:
		return "", eris.Errorf("model: unknown quality level %q", s)
	}
}

// ValidationResult is the structured outcome of a domain validation pass.
// A failed validation is a result with Valid=false, never an error.
type ValidationResult struct {
	Valid       bool     `json:"valid"`
	Score       float64  `json:"score"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
