package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/cli"
	"github.com/aretw0/weft/internal/presentation/tui"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [node-id...]",
	Short: "Test run the selected nodes",
	Long: `Runs the selected nodes one at a time in dependency order. Each node
sees the outputs of the nodes that succeeded before it plus the --input values.
A failing node does not stop the run. The command exits non-zero when any
node failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, g, err := analysis(cmd)
		if err != nil {
			return err
		}
		engine, err := cli.NewEngine(a.cfg, a.logger)
		if err != nil {
			return err
		}

		pairs, _ := cmd.Flags().GetStringArray("input")
		inputs, err := cli.ParseInputs(pairs)
		if err != nil {
			return err
		}
		last, _ := cmd.Flags().GetInt("last")
		sel := domain.Selection{NodeIDs: selectNodes(engine, g, args, last), Inputs: inputs}

		for _, m := range cli.MissingInputs(engine.RequiredInputs(g, sel.NodeIDs), inputs) {
			a.logger.Warn("missing manual input", "variable", m.Variable, "display_name", m.DisplayName)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stream, _ := cmd.Flags().GetBool("stream")
		report, err := execute(ctx, cmd, engine, g, sel, stream)
		if err != nil {
			return err
		}

		if save, _ := cmd.Flags().GetBool("save"); save {
			store, closeStore, err := cli.NewStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if err := store.Save(context.WithoutCancel(ctx), report); err != nil {
				return fmt.Errorf("failed to save run: %w", err)
			}
			a.logger.Info("run saved", "run_id", report.ID, "driver", a.cfg.Store.Driver)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := printJSON(out, report); err != nil {
				return err
			}
		} else if err := tui.PrintReport(out, g, report, out == os.Stdout && tui.IsTerminal(os.Stdout)); err != nil {
			return err
		}

		if _, failed := report.Counts(); failed > 0 {
			return fmt.Errorf("%d of %d nodes failed", failed, len(report.Results))
		}
		return nil
	},
}

func execute(ctx context.Context, cmd *cobra.Command, engine *weft.Engine, g *domain.Graph, sel domain.Selection, stream bool) (*domain.RunReport, error) {
	if !stream {
		return engine.Run(ctx, g, sel)
	}
	h := engine.Stream(ctx, g, sel)
	for u := range h.Updates() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", tui.Badge(u.Status, tui.IsTerminal(os.Stderr)), u.NodeID)
	}
	return h.Wait()
}

var testCasesCmd = &cobra.Command{
	Use:   "testcases <node-id>",
	Short: "Run the saved test cases of a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, g, err := analysis(cmd)
		if err != nil {
			return err
		}
		node, ok := g.Node(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, args[0])
		}
		engine, err := cli.NewEngine(a.cfg, a.logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		results, err := engine.RunTestCases(ctx, node)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := printJSON(out, results); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				fmt.Fprintf(out, "%-8s %s (%dms)\n", r.Status, r.Name, r.DurationMs)
				if r.Error != "" {
					fmt.Fprintf(out, "         %s\n", r.Error)
				}
				for _, f := range r.Failures {
					fmt.Fprintf(out, "         %s\n", f)
				}
			}
		}

		failed := 0
		for _, r := range results {
			if r.Status != domain.TestCasePassed {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d test cases failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(testCasesCmd)

	runCmd.Flags().Int("last", 0, "Select the last N nodes of the order (0 with no ids: all)")
	runCmd.Flags().StringArrayP("input", "i", nil, "Manual input node.field=value (repeatable)")
	runCmd.Flags().Bool("json", false, "Print the report as JSON")
	runCmd.Flags().Bool("stream", false, "Print every status change to stderr while running")
	runCmd.Flags().Bool("save", false, "Persist the report in the configured run store")

	testCasesCmd.Flags().Bool("json", false, "Print the results as JSON")
}
