package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jerzydziewierz/second-opinion/internal/config"
	"github.com/jerzydziewierz/second-opinion/internal/daemon"
	"github.com/jerzydziewierz/second-opinion/internal/logging"
	"github.com/jerzydziewierz/second-opinion/internal/observability"
	"github.com/jerzydziewierz/second-opinion/internal/rpc"
	"github.com/jerzydziewierz/second-opinion/internal/rpc/mcp"
	"github.com/jerzydziewierz/second-opinion/internal/version"
)

// Options holds global CLI options.
type Options struct {
	ConfigPath string
}

// NewRootCmd constructs the command tree. Without a subcommand it serves tool calls.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "second-opinion",
		Short:         "Ask a different LLM for a second opinion over MCP",
		Version:       version.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, opts)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: ~/.config/second-opinion/config.json)")

	cmd.AddCommand(NewConsultCmd(opts))
	cmd.AddCommand(NewDoctorCmd(opts))
	cmd.AddCommand(NewInitPromptCmd(opts))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig wraps config loading with shared options.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. The "state" output writes to the per-user state
// directory; stdout is refused because it carries the MCP stream.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	output := strings.TrimSpace(cfg.Logging.Output)
	switch strings.ToLower(output) {
	case "stdout":
		return nil, fmt.Errorf("logging.output must not be stdout")
	case "state":
		path, err := logging.DefaultLogFile()
		if err != nil {
			return nil, err
		}
		output = path
	}
	return logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, output)
}

func serve(cmd *cobra.Command, opts *Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort

	if cfg.Healed {
		logger.Warn("config file was missing or malformed and has been reset to defaults", zap.String("path", cfg.Path))
	}
	logger.Info("starting second-opinion", zap.String("version", version.Version), zap.String("config", cfg.Path))

	metrics := observability.NewMetrics()
	adv, _, err := daemon.NewAdvisor(cfg, nil, logger, metrics)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if strings.EqualFold(strings.TrimSpace(cfg.Server.Transport), "http") {
		return daemon.NewServer(cfg, adv, logger, metrics).Run(ctx)
	}

	srv := mcp.NewServer(adv, rpc.Implementation{Name: version.Name, Version: version.Version}, logger, metrics)
	if err := srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
