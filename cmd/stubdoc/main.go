package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/stubdoc"
	"github.com/jward/stubdoc/internal/logx"
)

var (
	flagDB            string
	flagInPlace       bool
	flagOutputDir     string
	flagBuiltinsOnly  bool
	flagIfNeeded      bool
	flagVerbose       int
	flagQuiet         int
	flagWorkers       int
	flagSerial        bool
	flagPythonVersion string
	flagPlatform      string
	flagConfig        string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "stubdoc [flags] INPUT_DIR...",
	Short:         "Add docstrings to Python type stubs from a symbol database",
	Long:          "Stubdoc parses .pyi stub files with tree-sitter and splices in documentation recovered from a SQLite symbol database dumped from the live implementation, preserving all existing formatting byte for byte.",
	Version:       "1.1.0",
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&flagDB, "db", "", "path to the symbol database")
	rootCmd.Flags().BoolVarP(&flagInPlace, "in-place", "i", false, "modify stubs in-place")
	rootCmd.Flags().StringVarP(&flagOutputDir, "output", "o", "", "directory to write modified stubs to")
	rootCmd.Flags().BoolVarP(&flagBuiltinsOnly, "builtins-only", "b", false, "only add docstrings to modules built into the runtime")
	rootCmd.Flags().BoolVar(&flagIfNeeded, "if-needed", false, "only add a docstring if the symbol's source code cannot be found")
	rootCmd.Flags().CountVarP(&flagVerbose, "verbose", "v", "increase verbosity")
	rootCmd.Flags().CountVarP(&flagQuiet, "quiet", "q", "decrease verbosity")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker pool size (default: one per CPU)")
	rootCmd.Flags().BoolVar(&flagSerial, "serial", false, "process files one at a time")
	rootCmd.Flags().StringVar(&flagPythonVersion, "python-version", "", "override the database's recorded version for reachability (e.g. 3.12)")
	rootCmd.Flags().StringVar(&flagPlatform, "platform", "", "override the database's recorded platform for reachability")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file")

	rootCmd.MarkFlagRequired("db")
	rootCmd.MarkFlagsOneRequired("in-place", "output")
	rootCmd.MarkFlagsMutuallyExclusive("in-place", "output")
}

func run(cmd *cobra.Command, args []string) error {
	log := newLogger()
	slog.SetDefault(log)

	cfg := stubdoc.Config{
		InputDirs:    args,
		InPlace:      flagInPlace,
		OutputDir:    flagOutputDir,
		BuiltinsOnly: flagBuiltinsOnly,
		IfNeeded:     flagIfNeeded,
		Workers:      flagWorkers,
		Platform:     flagPlatform,
	}
	if flagPythonVersion != "" {
		version, err := stubdoc.ParseVersion(flagPythonVersion)
		if err != nil {
			return err
		}
		cfg.PythonVersion = version
	}
	if flagConfig != "" {
		fc, err := stubdoc.LoadConfigFile(flagConfig)
		if err != nil {
			return err
		}
		if err := cfg.Apply(fc); err != nil {
			return err
		}
	}

	provider, err := stubdoc.Open(flagDB)
	if err != nil {
		return fmt.Errorf("opening symbol database: %w", err)
	}
	defer provider.Close()

	engine, err := stubdoc.New(provider, cfg,
		stubdoc.WithLogger(log),
		stubdoc.WithParallel(!flagSerial),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	stats, err := engine.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Enriched %d of %d stub(s) in %s (%d skipped, %d failed)\n",
		stats.Enriched, stats.Files, time.Since(start).Round(time.Millisecond),
		stats.Skipped, stats.Failed)
	return nil
}

// newLogger maps the -v/-q counts onto slog levels: ERROR, WARN, INFO,
// DEBUG, TRACE, with WARN as the default.
func newLogger() *slog.Logger {
	levels := []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug, logx.LevelTrace}
	verbosity := 1 + flagVerbose - flagQuiet
	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity >= len(levels) {
		verbosity = len(levels) - 1
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       levels[verbosity],
		ReplaceAttr: logx.ReplaceLevelName,
	})
	return slog.New(handler)
}
