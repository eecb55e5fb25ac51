package main

import (
	"fmt"

	"github.com/aretw0/weft/internal/cli"
	"github.com/aretw0/weft/internal/presentation/graph"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of the graph. With --run, node statuses of a
saved run are overlaid as classes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, g, err := analysis(cmd)
		if err != nil {
			return err
		}

		var report *domain.RunReport
		if runID, _ := cmd.Flags().GetString("run"); runID != "" {
			store, closeStore, err := cli.NewStore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if report, err = store.Load(cmd.Context(), runID); err != nil {
				return fmt.Errorf("failed to load run %s: %w", runID, err)
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, report))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Overlay the statuses of a saved run")
}
