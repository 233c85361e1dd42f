package model

// MatchType records which pipeline layer produced a match.
type MatchType string

const (
	MatchDirect    MatchType = "direct"
	MatchHeuristic MatchType = "heuristic"
	MatchNLP       MatchType = "nlp"
	MatchLLM       MatchType = "llm"
	MatchUnknown   MatchType = "unknown"
)

// Precedence orders match types from cheapest/most-certain (highest) to
// unknown (lowest). Direct evidence always outranks fuzzier layers.
func (m MatchType) Precedence() int {
	switch m {
	case MatchDirect:
		return 4
	case MatchHeuristic:
		return 3
	case MatchNLP:
		return 2
	case MatchLLM:
		return 1
	default:
		return 0
	}
}

// Requirement is a normalized need extracted from a domain document.
// Immutable once extracted.
type Requirement struct {
	Name          string         `json:"name"`
	ProcessName   string         `json:"process_name"`
	Materials     []string       `json:"materials,omitempty"`
	RequiredTools []string       `json:"required_tools,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Domain        string         `json:"domain,omitempty"`
}

// Capability is a normalized offering extracted from a facility document.
// Immutable once extracted.
type Capability struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Limitations map[string]any `json:"limitations,omitempty"`
	Domain      string         `json:"domain,omitempty"`
}

// Substitution records an accepted alternative capability for a requirement
// that no pipeline layer could satisfy directly.
type Substitution struct {
	Original    Requirement    `json:"original"`
	Substitute  Capability     `json:"substitute"`
	Confidence  float64        `json:"confidence"`
	Constraints map[string]any `json:"constraints,omitempty"`
	Notes       string         `json:"notes,omitempty"`
}

// MatchResult is the outcome of one matcher invocation. MatchedCapabilities
// is keyed by requirement name. Layers records which pipeline layer satisfied
// each matched requirement.
type MatchResult struct {
	Confidence          float64               `json:"confidence"`
	MatchedCapabilities map[string]Capability `json:"matched_capabilities,omitempty"`
	MissingRequirements []Requirement         `json:"missing_requirements,omitempty"`
	Substitutions       []Substitution        `json:"substitutions,omitempty"`
	Layers              map[string]MatchType  `json:"layers,omitempty"`
}
