package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/supplygraph/matching-engine/internal/store"
)

var (
	treesFacility      string
	treesOKH           string
	treesMinConfidence float64
	treesLimit         int
	treesOffset        int
	treesJSON          bool
)

var treesCmd = &cobra.Command{
	Use:   "trees",
	Short: "Inspect saved supply trees",
}

var treesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved supply trees",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "trees")
		if err != nil {
			return err
		}
		defer env.Close()

		trees, err := env.Store.ListTrees(ctx, store.TreeFilter{
			FacilityName:  treesFacility,
			OKHReference:  treesOKH,
			MinConfidence: treesMinConfidence,
			Limit:         treesLimit,
			Offset:        treesOffset,
		})
		if err != nil {
			return err
		}

		if treesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(trees), "encode trees")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFACILITY\tREQUIREMENT\tCONFIDENCE\tMATCH")
		for _, tree := range trees {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
				tree.ID, tree.FacilityName, tree.OKHReference, tree.ConfidenceScore, tree.MatchType)
		}
		return w.Flush()
	},
}

var treesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a saved supply tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "trees")
		if err != nil {
			return err
		}
		defer env.Close()

		tree, err := env.Store.GetTree(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(tree), "encode tree")
	},
}

var treesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved supply tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "trees")
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.DeleteTree(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	treesListCmd.Flags().StringVar(&treesFacility, "facility", "", "filter by facility name")
	treesListCmd.Flags().StringVar(&treesOKH, "requirement", "", "filter by requirement reference")
	treesListCmd.Flags().Float64Var(&treesMinConfidence, "min-confidence", 0, "minimum confidence")
	treesListCmd.Flags().IntVar(&treesLimit, "limit", 50, "maximum trees to list")
	treesListCmd.Flags().IntVar(&treesOffset, "offset", 0, "listing offset")
	treesListCmd.Flags().BoolVar(&treesJSON, "json", false, "emit JSON instead of a table")

	treesCmd.AddCommand(treesListCmd, treesGetCmd, treesDeleteCmd)
	rootCmd.AddCommand(treesCmd)
}
