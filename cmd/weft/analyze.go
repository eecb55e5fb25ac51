package main

import (
	"fmt"
	"io"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields <node-id>",
	Short: "List the variable fields a node exposes downstream",
	Long: `Lists the fields other nodes may reference as {{node-id.field}}.
With --available, lists every upstream variable the node itself may use instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, g, err := analysis(cmd)
		if err != nil {
			return err
		}
		engine, err := weft.New(weft.WithLogger(a.logger))
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		if available, _ := cmd.Flags().GetBool("available"); available {
			if !g.Has(args[0]) {
				return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, args[0])
			}
			vars := engine.AvailableVariables(g, args[0])
			if asJSON {
				return printJSON(out, vars)
			}
			for _, v := range vars {
				fmt.Fprintf(out, "{{%s}}\t%s\n", v.Variable, v.NodeLabel)
			}
			return nil
		}

		node, ok := g.Node(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, args[0])
		}
		fields := engine.ListAvailableFields(node)
		if asJSON {
			return printJSON(out, fields)
		}
		return printLines(out, fields)
	},
}

var ancestorsCmd = &cobra.Command{
	Use:   "ancestors <node-id>",
	Short: "List the nodes upstream of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, g, err := analysis(cmd)
		if err != nil {
			return err
		}
		engine, err := weft.New(weft.WithLogger(a.logger))
		if err != nil {
			return err
		}
		ids := engine.ComputeAncestors(g, args[0])
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), ids)
		}
		return printLines(cmd.OutOrStdout(), ids)
	},
}

var inputsCmd = &cobra.Command{
	Use:   "inputs [node-id...]",
	Short: "List the manual inputs a selection needs",
	Long: `Lists the variables the selected nodes read from nodes outside the
selection. Those must be given with --input when the selection is run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, g, err := analysis(cmd)
		if err != nil {
			return err
		}
		engine, err := weft.New(weft.WithLogger(a.logger))
		if err != nil {
			return err
		}
		last, _ := cmd.Flags().GetInt("last")
		required := engine.RequiredInputs(g, selectNodes(engine, g, args, last))
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), required)
		}
		for _, r := range required {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Variable, r.DisplayName)
		}
		return nil
	},
}

var orderCmd = &cobra.Command{
	Use:   "order [node-id...]",
	Short: "Print the execution order of a selection",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, g, err := analysis(cmd)
		if err != nil {
			return err
		}
		engine, err := weft.New(weft.WithLogger(a.logger))
		if err != nil {
			return err
		}
		last, _ := cmd.Flags().GetInt("last")
		ordering := engine.TopologicalOrder(g, selectNodes(engine, g, args, last)...)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), ordering)
		}
		if err := printLines(cmd.OutOrStdout(), ordering.IDs); err != nil {
			return err
		}
		for _, id := range ordering.Omitted {
			fmt.Fprintf(cmd.OutOrStdout(), "# omitted (cycle): %s\n", id)
		}
		return nil
	},
}

func analysis(cmd *cobra.Command) (*app, *domain.Graph, error) {
	a, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	g, err := a.loadGraph(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return a, g, nil
}

// selectNodes returns args, or the last n nodes of the order when args is
// empty or n is set.
func selectNodes(engine *weft.Engine, g *domain.Graph, args []string, n int) []string {
	if len(args) > 0 && n <= 0 {
		return args
	}
	return engine.SelectLast(g, n).NodeIDs
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{fieldsCmd, ancestorsCmd, inputsCmd, orderCmd} {
		c.Flags().Bool("json", false, "Print JSON")
		rootCmd.AddCommand(c)
	}
	fieldsCmd.Flags().Bool("available", false, "List upstream variables the node may reference")
	inputsCmd.Flags().Int("last", 0, "Select the last N nodes of the order (0 with no ids: all)")
	orderCmd.Flags().Int("last", 0, "Select the last N nodes of the order (0 with no ids: all)")
}
