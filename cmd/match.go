package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/supplygraph/matching-engine/internal/match"
	"github.com/supplygraph/matching-engine/internal/score"
)

var (
	matchReqType       string
	matchFacType       string
	matchMinConfidence float64
	matchSave          bool
	matchWeights       string
)

var matchCmd = &cobra.Command{
	Use:   "match <requirement-file> <facility-file>...",
	Short: "Match a requirement document against candidate facilities",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "match")
		if err != nil {
			return err
		}
		defer env.Close()

		requirement, err := loadDocument(args[0], matchReqType)
		if err != nil {
			return err
		}
		facilities := make([]match.Document, 0, len(args)-1)
		for _, path := range args[1:] {
			doc, err := loadDocument(path, matchFacType)
			if err != nil {
				return err
			}
			facilities = append(facilities, doc)
		}

		weights := configWeights()
		if matchWeights != "" {
			weights, err = parseWeights(matchWeights)
			if err != nil {
				return err
			}
		}

		trees, err := env.Service.FindMatches(ctx, requirement, facilities, weights)
		if err != nil {
			return err
		}

		if matchMinConfidence > 0 {
			kept := trees[:0]
			for _, tree := range trees {
				if tree.ConfidenceScore >= matchMinConfidence {
					kept = append(kept, tree)
				}
			}
			trees = kept
		}

		if matchSave {
			for i := range trees {
				if err := env.Store.SaveTree(ctx, &trees[i]); err != nil {
					return err
				}
			}
			zap.L().Info("saved supply trees", zap.Int("count", len(trees)))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(trees), "encode results")
	},
}

// loadDocument reads a YAML or JSON document from disk. The document's own
// "type" field wins over the fallback input type.
func loadDocument(path, fallbackType string) (match.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return match.Document{}, eris.Wrapf(err, "read document %s", path)
	}

	var content map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &content)
	} else {
		err = yaml.Unmarshal(data, &content)
	}
	if err != nil {
		return match.Document{}, eris.Wrapf(err, "parse document %s", path)
	}

	docType := fallbackType
	if t, ok := content["type"].(string); ok && t != "" {
		docType = t
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if v, ok := content["id"].(string); ok && v != "" {
		id = v
	}

	return match.Document{ID: id, Type: docType, Content: content}, nil
}

// parseWeights parses "process=0.4,material=0.25,..." into scoring weights.
func parseWeights(s string) (*score.Weights, error) {
	var w score.Weights
	for _, pair := range strings.Split(s, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, eris.Errorf("invalid weight %q, expected factor=value", pair)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return nil, eris.Errorf("invalid weight value %q for %s", val, key)
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "process":
			w.Process = f
		case "material":
			w.Material = f
		case "equipment":
			w.Equipment = f
		case "scale":
			w.Scale = f
		case "other":
			w.Other = f
		default:
			return nil, eris.Errorf("unknown weight factor %q", key)
		}
	}
	return &w, nil
}

func init() {
	matchCmd.Flags().StringVar(&matchReqType, "requirement-type", "okh", "input type of the requirement document")
	matchCmd.Flags().StringVar(&matchFacType, "facility-type", "okw", "input type of the facility documents")
	matchCmd.Flags().Float64Var(&matchMinConfidence, "min-confidence", 0, "drop trees below this confidence")
	matchCmd.Flags().BoolVar(&matchSave, "save", false, "persist resulting supply trees to the store")
	matchCmd.Flags().StringVar(&matchWeights, "weights", "", "scoring weights, e.g. process=0.4,material=0.25")
	rootCmd.AddCommand(matchCmd)
}
