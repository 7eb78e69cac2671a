package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/optovka/internal/config"
	"github.com/nao1215/optovka/internal/database"
	securelog "github.com/nao1215/optovka/internal/log"
	"github.com/spf13/cobra"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getGlobalBool(cmd, "verbose")
}

// getGlobalBool reads a persistent boolean flag from the command or the root.
func getGlobalBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// loadConfig builds a Config from the defaults and the config file, then
// applies the global flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = path

	// An explicit path must exist; the default locations are optional.
	found := config.FindConfigFile(path)
	switch {
	case found != "":
		f, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		cfg.Apply(f)
	case path != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	}

	flags := cmd.Flags()
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("postgres-dsn") {
		if cfg.PostgresDSN, err = flags.GetString("postgres-dsn"); err != nil {
			return nil, err
		}
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogJSON = getGlobalBool(cmd, "log-json")

	return cfg, nil
}

// setupLogger creates the process logger and installs it as the default.
func setupLogger(cfg *config.Config) *slog.Logger {
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	return logger
}

// newLogger returns a JSON lines logger when cfg.LogJSON is set and a
// terminal logger otherwise.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return securelog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return securelog.NewSecureLogger(w, cfg.Verbose)
}

// openStore opens PostgreSQL when a DSN is configured and SQLite otherwise.
func openStore(ctx context.Context, cfg *config.Config) (*database.Store, error) {
	if cfg.PostgresDSN != "" {
		return database.OpenPostgres(ctx, cfg.PostgresDSN)
	}
	if cfg.DBDir == "" {
		return nil, errors.New("database directory is empty (set --db-dir)")
	}
	return database.Open(cfg.DBDir, database.DefaultOptions())
}

// openExistingStore is openStore for read-only commands: a missing SQLite
// database is reported instead of created.
func openExistingStore(ctx context.Context, cfg *config.Config) (*database.Store, error) {
	if cfg.PostgresDSN != "" {
		return database.OpenPostgres(ctx, cfg.PostgresDSN)
	}
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return nil, fmt.Errorf("no crawl data yet: %w", err)
	}
	return store, nil
}
