package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/weft/internal/cli"
	"github.com/aretw0/weft/internal/config"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Weft tests the nodes of visual AI workflows",
	Long: `Weft inspects workflow graphs exported from the editor and test runs
selected nodes against the node execution service, in dependency order.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default weft.yaml)")
	rootCmd.PersistentFlags().StringP("graph", "g", "", "Graph file exported from the editor (.json or .yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// app is what every command needs after flags are parsed.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	graph  string
}

func setup(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, path != "")
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	graph, _ := cmd.Flags().GetString("graph")
	return &app{
		cfg:    cfg,
		logger: logging.FromConfig(cfg.Log.Level, cfg.Log.Format),
		graph:  graph,
	}, nil
}

func (a *app) loadGraph(ctx context.Context) (*domain.Graph, error) {
	return cli.LoadGraph(ctx, a.cfg, a.graph)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
