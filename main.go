package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/slmtnm/bnav/browse"
)

// errReported marks errors that were already explained to the user.
var errReported = errors.New("reported")

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func reported(err error) error {
	return fmt.Errorf("%w: %w", errReported, err)
}

func newRootCmd() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "bnav [bucket[/prefix]]",
		Short: "Browse an S3 bucket like a filesystem",
		Long: `bnav is a TUI (Terminal User Interface) for browsing S3 buckets.

It reads configuration from a .s3cfg file (compatible with s3cmd), looked up in
the current directory, the home directory and /etc/s3cfg.

Examples:
  bnav my-bucket
  bnav my-bucket/logs/2024/
  BNAV_ENDPOINT=http://localhost:9000 bnav my-bucket`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := settingsFrom(v)
			if len(args) == 1 {
				settings.DefaultAddress = args[0]
			}
			return run(cmd.Context(), settings)
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "Path to .s3cfg")
	flags.String("endpoint", "", "Custom S3 endpoint (host:port or URL)")
	flags.StringP("region", "r", "", "S3 region")
	flags.Int("page-size", 1000, "Keys requested per listing page")
	flags.String("log-file", "", "Write logs to this file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("flat", false, "List without server-side folder rollup")
	_ = v.BindPFlags(flags)

	return cmd
}

func run(ctx context.Context, settings Settings) error {
	logger, err := newLogger(settings.LogFile, settings.LogLevel)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	config, path, err := LoadS3Config(configSearchPaths(settings.ConfigPath))
	switch {
	case errors.Is(err, ErrConfigNotFound) && settings.ConfigPath == "":
		fmt.Printf("No S3 configuration found: %s\n\n", err)
		config, err = InteractiveS3Setup(os.Stdin, os.Stdout)
		if err != nil {
			fmt.Printf("Setup cancelled or failed: %s\n", err)
			fmt.Println("\nPlease create a .s3cfg file manually in one of these locations:")
			fmt.Println("  - Current directory: .s3cfg")
			fmt.Println("  - Home directory: ~/.s3cfg")
			fmt.Println("  - System directory: /etc/s3cfg")
			return reported(err)
		}
	case err != nil:
		return fmt.Errorf("loading configuration: %w", err)
	default:
		logger.Info("Loaded configuration", zap.String("path", path))
	}
	config.Apply(settings)

	client, err := NewS3Client(ctx, config)
	if err != nil {
		report(logger, browse.Classify(browse.OpConnect, err))
		return reported(err)
	}

	opts := []browse.Option{
		browse.WithLogger(logger),
		browse.WithPageSize(settings.PageSize),
	}
	if settings.FlatListing {
		opts = append(opts, browse.WithListerOptions(browse.WithDelimiter("")))
	}
	session := browse.NewSession(client, opts...)

	if err := session.Connect(ctx); err != nil {
		var ce *browse.ClassifiedError
		// Listing buckets is optional; only credential problems are fatal.
		if errors.As(err, &ce) && ce.Kind == browse.KindInitialization {
			report(logger, ce)
			return reported(err)
		}
		logger.Debug("Connect probe skipped", zap.Error(err))
	}

	model := NewModel(session, settings.DefaultAddress)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func report(logger *zap.Logger, ce *browse.ClassifiedError) {
	logger.Error("Startup failed", zap.Stringer("kind", ce.Kind), zap.String("code", ce.RawCode), zap.Error(ce.Err))
	fmt.Printf("Error: %s\n", ce.Message)
	if hint := ce.Hint(); hint != "" {
		fmt.Println(hint)
	}
}

// newLogger builds a JSON file logger. The TUI owns the terminal, so with no
// file configured logging is disabled.
func newLogger(path, level string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
