package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"geoglobe/internal/config"
	"geoglobe/internal/logging"
	"geoglobe/internal/metrics"
	"geoglobe/internal/tui"
)

// rootCmd runs the interactive viewer when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "geoglobe [file]",
	Short: "Terminal globe with animated camera flights",
	Long: `geoglobe renders a globe in the terminal and flies a camera over it.

Vector layers (GeoJSON, WKT, KML, CSV) are draped over the sphere as
markers, borders and tessellated fills. The subcommands expose the same
geometry core without the interactive view:
- project / unproject: geographic <-> Cartesian conversion
- plan / fly: flight planning and headless animation
- bbox: the geographic footprint of the camera frustum
- tessellate: triangulate polygon layers

Configuration comes from geoglobe.yaml, GEOGLOBE_* environment variables
and flags, in increasing order of precedence.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bubbletea owns the terminal, so logs only go to a file.
		env, err := setup(cmd, io.Discard)
		if err != nil {
			return err
		}
		defer env.close()

		var m tea.Model
		if len(args) == 1 {
			m = tui.NewWithPath(env.cfg, env.logger, args[0])
		} else {
			m = tui.New(env.cfg, env.logger)
		}
		_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
		return err
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.SilenceUsage = true
}

// env is what every command needs after flag parsing.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	close  func()
}

// setup loads the configuration, opens the log sink and, when an address is
// configured, starts the metrics endpoint. Logs go to fallback unless a log
// file is set.
func setup(cmd *cobra.Command, fallback io.Writer) (*env, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	w, closeLog, err := logging.Open(cfg.Log.File, fallback)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, w)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error("metrics server", "err", err)
			}
		}()
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		close: func() {
			cancel()
			_ = closeLog()
		},
	}, nil
}
