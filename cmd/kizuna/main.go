package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/config"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
)

var (
	// Global flags
	configPath string
	dbPath     string
	logLevel   string
	jsonOut    bool
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// envFlags maps flags to the environment variables that back them.
var envFlags = map[string]string{
	"config":    "KIZUNA_CONFIG",
	"db":        "KIZUNA_DB",
	"log-level": "KIZUNA_LOG_LEVEL",
	"addr":      "KIZUNA_ADDR",
	"http-addr": "KIZUNA_HTTP_ADDR",
}

// #region root
var rootCmd = &cobra.Command{
	Use:   "kizuna",
	Short: "Relationship compatibility diagnosis engine",
	Long: `kizuna scores two respondents' answers on four bipolar axes, derives a
four-letter relationship type code and a synchrony percentage, and resolves
the code to a named category.

Pair sessions let each respondent submit independently; the diagnosis runs
once both answer sets are stored.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		if err := applyEnv(cmd); err != nil {
			return err
		}
		var err error
		logger, err = newLogger(logLevel)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", envOr("KIZUNA_CONFIG", ""), "engine config YAML (default: embedded; env KIZUNA_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("KIZUNA_DB", "kizuna.db"), "SQLite database path (env KIZUNA_DB)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("KIZUNA_LOG_LEVEL", "info"), "log level (debug, info, warn, error; env KIZUNA_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "operation timeout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// #endregion root

// #region helpers
func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

func loadEngine() (*engine.Engine, error) {
	eng, err := config.LoadEngine(configPath)
	if err != nil {
		return nil, fmt.Errorf("load engine: %w", err)
	}
	logger.Debug("engine loaded",
		zap.String("config", configPath),
		zap.String("bank_version", eng.Bank().Version()))
	return eng, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// applyEnv sets flags the user did not pass from the environment, picking up
// variables loaded from .env after flag defaults were computed.
func applyEnv(cmd *cobra.Command) error {
	for name, key := range envFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			continue
		}
		if err := f.Value.Set(v); err != nil {
			return fmt.Errorf("apply %s to --%s: %w", key, name, err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
