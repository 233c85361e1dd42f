package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// TreeKey is the identity triple for SupplyTree set membership. Two trees
// with the same key are duplicates regardless of their other fields.
type TreeKey struct {
	FacilityName string `json:"facility_name"`
	OKHReference string `json:"okh_reference"`
	OKWReference string `json:"okw_reference"`
}

// SupplyTree is the externally visible solution record produced by the
// matching service. Read-only to all other components.
type SupplyTree struct {
	ID                string         `json:"id"`
	OKHReference      string         `json:"okh_reference"`
	OKWReference      string         `json:"okw_reference"`
	FacilityName      string         `json:"facility_name"`
	ConfidenceScore   float64        `json:"confidence_score"`
	EstimatedCost     *float64       `json:"estimated_cost,omitempty"`
	EstimatedTime     string         `json:"estimated_time,omitempty"`
	MaterialsRequired []string       `json:"materials_required,omitempty"`
	CapabilitiesUsed  []string       `json:"capabilities_used,omitempty"`
	MatchType         MatchType      `json:"match_type"`
	Substitutions     []Substitution `json:"substitutions,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreationTime      time.Time      `json:"creation_time"`
}

// NewSupplyTree constructs a tree with a fresh ID and creation timestamp.
// The confidence score is clamped to [0,1] and rounded to 2 decimals.
func NewSupplyTree(facilityName, okhRef, okwRef string, confidence float64) *SupplyTree {
	return &SupplyTree{
		ID:              uuid.New().String(),
		OKHReference:    okhRef,
		OKWReference:    okwRef,
		FacilityName:    facilityName,
		ConfidenceScore: RoundScore(confidence),
		MatchType:       MatchUnknown,
		CreationTime:    time.Now().UTC(),
	}
}

// Key returns the identity triple used for duplicate detection.
func (t *SupplyTree) Key() TreeKey {
	return TreeKey{
		FacilityName: t.FacilityName,
		OKHReference: t.OKHReference,
		OKWReference: t.OKWReference,
	}
}

// Complete reports whether both document references are present. A tree
// under construction may be transiently incomplete; a returned solution
// must not be.
func (t *SupplyTree) Complete() bool {
	return t.OKHReference != "" && t.OKWReference != ""
}

// Validate checks the structural invariants of a finished tree.
func (t *SupplyTree) Validate() error {
	if t.ConfidenceScore < 0 || t.ConfidenceScore > 1 {
		return eris.Errorf("supply tree %s: confidence %.4f outside [0,1]", t.ID, t.ConfidenceScore)
	}
	if !t.Complete() {
		return eris.Errorf("supply tree %s: missing okh/okw reference", t.ID)
	}
	return nil
}

// RoundScore clamps a confidence value to [0,1] and rounds to 2 decimals.
func RoundScore(v float64) float64 {
	v = math.Max(0, math.Min(1, v))
	return math.Round(v*100) / 100
}
