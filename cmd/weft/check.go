package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/weft/internal/validator"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the graph for cycles, broken edges and unresolved references",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, g, err := analysis(cmd)
		if err != nil {
			return err
		}
		issues := validator.Check(g, nil)

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := printJSON(out, issues); err != nil {
				return err
			}
		} else {
			for _, i := range issues {
				fmt.Fprintln(out, i)
			}
			if len(issues) == 0 {
				fmt.Fprintf(out, "%d nodes, %d edges: ok\n", len(g.Nodes()), len(g.Edges()))
			}
		}

		strict, _ := cmd.Flags().GetBool("strict")
		if validator.HasErrors(issues) || (strict && len(issues) > 0) {
			return errors.New("graph check failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("json", false, "Print the issues as JSON")
	checkCmd.Flags().Bool("strict", false, "Fail on warnings too")
}
