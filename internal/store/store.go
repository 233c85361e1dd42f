// Package store defines the persistence collaborator. The matching engine
// itself never persists anything; commands and the server hand it complete
// supply trees and raw documents only.
package store

import (
	"context"

	"github.com/supplygraph/matching-engine/internal/model"
)

// TreeFilter specifies criteria for listing supply trees.
type TreeFilter struct {
	FacilityName  string  `json:"facility_name,omitempty"`
	OKHReference  string  `json:"okh_reference,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
	Limit         int     `json:"limit,omitempty"`
	Offset        int     `json:"offset,omitempty"`
}

// Store defines the persistence interface for supply trees and raw
// domain documents.
type Store interface {
	// Supply trees
	SaveTree(ctx context.Context, tree *model.SupplyTree) error
	GetTree(ctx context.Context, id string) (*model.SupplyTree, error)
	ListTrees(ctx context.Context, filter TreeFilter) ([]model.SupplyTree, error)
	DeleteTree(ctx context.Context, id string) error

	// Raw documents, partitioned by kind (e.g. "okh", "okw", "recipe").
	SaveDocument(ctx context.Context, kind, id string, content map[string]any) error
	GetDocument(ctx context.Context, kind, id string) (map[string]any, error)
	ListDocuments(ctx context.Context, kind string, limit, offset int) (map[string]map[string]any, error)
	DeleteDocument(ctx context.Context, kind, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
