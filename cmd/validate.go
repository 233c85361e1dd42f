package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/supplygraph/matching-engine/internal/model"
)

var (
	validateLevel  string
	validateStrict bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <tree-file-or-id>",
	Short: "Validate a supply tree against a quality level",
	Long:  "Validates a supply tree, read from a JSON file or loaded from the store by ID, against the hobby, professional, or medical quality level.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "validate")
		if err != nil {
			return err
		}
		defer env.Close()

		level, err := model.ParseQualityLevel(validateLevel)
		if err != nil {
			return err
		}

		tree, err := loadTree(cmd, env, args[0])
		if err != nil {
			return err
		}

		result, err := env.Service.Validate(ctx, tree, level, validateStrict)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "encode result")
		}
		if !result.Valid {
			return eris.Errorf("tree %s failed %s validation", tree.ID, level)
		}
		return nil
	},
}

// loadTree reads a supply tree from a JSON file, falling back to a store
// lookup when the argument is not a readable file.
func loadTree(cmd *cobra.Command, env *matchEnv, arg string) (*model.SupplyTree, error) {
	data, err := os.ReadFile(arg)
	if err != nil {
		if os.IsNotExist(err) {
			return env.Store.GetTree(cmd.Context(), arg)
		}
		return nil, eris.Wrapf(err, "read tree %s", arg)
	}

	var tree model.SupplyTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, eris.Wrapf(err, "parse tree %s", arg)
	}
	return &tree, nil
}

func init() {
	validateCmd.Flags().StringVar(&validateLevel, "level", "professional", "quality level: hobby, professional, or medical")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat warnings as errors and penalize the score")
	rootCmd.AddCommand(validateCmd)
}
