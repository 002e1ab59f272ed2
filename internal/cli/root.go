// Package cli implements the d2tool command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/andreyvit/d2data/internal/config"
)

type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	verbose    bool
	format     string

	cfg    *config.Config
	logger *slog.Logger
}

// NewCommand builds the root command writing results to out and diagnostics
// to errOut.
func NewCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:          "d2tool",
		Short:        "Inspect D2O, D2I and D2P game data files",
		SilenceUsage: true,
		Long: `d2tool decodes the object stores (.d2o), localization tables (.d2i) and
packed archives (.d2p) found in the game's data directory.

Relative paths are resolved against game_dir from ~/.d2tool/d2tool.yaml.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $"+config.EnvVar+" or ~/.d2tool/d2tool.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug information to stderr")
	root.PersistentFlags().StringVarP(&a.format, "format", "f", "", "Output format: json or msgpack (default from config)")

	root.AddCommand(a.d2oCommand(), a.d2iCommand(), a.d2pCommand(), a.exportCommand(), a.configCommand())
	return root
}

func (a *app) setup() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if a.format == "" {
		a.format = a.cfg.Format
	}
	switch a.format {
	case "json", "msgpack":
	default:
		return fmt.Errorf("unknown output format %q", a.format)
	}

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) resolve(p string) (string, error) {
	return a.cfg.Resolve(p)
}

// Execute is called by main.go.
func Execute() {
	if err := NewCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
