package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/zonedash/internal/config"
	"github.com/abhisek/zonedash/internal/dashboard"
	"github.com/abhisek/zonedash/internal/graphql"
	"github.com/abhisek/zonedash/internal/session"
	"github.com/abhisek/zonedash/internal/store"
)

// env holds the services shared by every command.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *store.Store
	client   *graphql.Client
	sessions *session.Manager
	loader   *dashboard.Loader

	closers []io.Closer
}

// setup loads configuration, opens the store and builds the services.
// logTo receives log output; nil means the configured log file.
func setup(cmd *cobra.Command, logTo io.Writer, loaderOpts ...dashboard.Option) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB.Path = p
	}

	e := &env{cfg: cfg}

	if logTo == nil {
		f, err := openLogFile(cfg.Log.Path)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		e.closers = append(e.closers, f)
		logTo = f
	}
	e.logger = newLogger(logTo, cfg.Log.Level)

	dbPath, err := resolveDBPath(cfg.DB.Path)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st
	e.closers = append(e.closers, st)

	e.client = graphql.New(cfg.GraphQL(), graphql.WithLogger(e.logger.With("component", "graphql")))
	e.sessions = session.NewManager(st.KVRepo(), e.client,
		session.WithLogger(e.logger.With("component", "session")))

	opts := []dashboard.Option{
		dashboard.WithRanks(cfg.RankTable()),
		dashboard.WithEventRepo(st.EventRepo()),
		dashboard.WithSnapshotRepo(st.SnapshotRepo(), cfg.Dashboard.KeepSnapshots),
		dashboard.WithProfileSaver(e.sessions),
		dashboard.WithLogger(e.logger.With("component", "dashboard")),
		dashboard.WithRangeMonths(cfg.Dashboard.RangeMonths),
	}
	e.loader = dashboard.NewLoader(e.client, append(opts, loaderOpts...)...)

	e.logger.Debug("environment ready", "db", dbPath, "base_url", cfg.API.BaseURL)
	return e, nil
}

// Close releases the store and the log file, newest first.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close()
	}
	e.closers = nil
}

// resolveDBPath returns the configured path, or the default XDG path.
func resolveDBPath(path string) (string, error) {
	if path != "" {
		return path, store.EnsureDir(path)
	}
	return store.DefaultDBPath()
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		dir, err := store.DataHome()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "zonedash.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
