// cmd/web/main.go
//
// adept-auth – HTTP entry point.
//
// Commands
// --------
//
//	web [serve]   run the HTTP server (default)
//	web migrate   apply profile-table migrations and exit
//
// Both read the same configuration (see internal/config) and accept
// --config to point at a YAML file other than conf/global.yaml.
//
// Boot sequence
// -------------
//
//  1. Console logger so config problems are visible.
//
//  2. Load config (defaults → .env → YAML → ADEPT_* env → Vault refs).
//
//  3. Daily rotating file logger (tees to console when running in a TTY).
//
//  4. Command-specific work, see serve.go and migrate.go.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/adept-auth/internal/config"
	"github.com/yanizio/adept-auth/internal/logger"
)

// Version information set at build time.
var version = "dev"

func main() {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "web",
		Short:         "adept-auth web server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the YAML config (default conf/global.yaml)")

	rootCmd.AddCommand(serveCmd(&cfgPath), migrateCmd(&cfgPath))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// boot loads config and installs the file logger.
func boot(ctx context.Context, cfgPath string) (*config.Config, *zap.SugaredLogger, error) {
	logger.Bootstrap()

	cfg, err := config.Load(ctx, config.Options{Path: cfgPath})
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Options{
		Dir:   cfg.Log.Dir,
		Root:  cfg.Paths.Root,
		Level: cfg.Log.Level,
		Tee:   runningInTTY(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start logger: %w", err)
	}
	return cfg, log, nil
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
