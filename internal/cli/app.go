package cli

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/eshaffer321/zenmoney-reconcile/internal/adapters/zenmoney"
	"github.com/eshaffer321/zenmoney-reconcile/internal/application/reconcile"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/matcher"
	"github.com/eshaffer321/zenmoney-reconcile/internal/domain/synthesizer"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/config"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/logging"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/metrics"
	"github.com/eshaffer321/zenmoney-reconcile/internal/infrastructure/storage"
)

// App holds the wired components shared by every command.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *storage.Storage
	Metrics *metrics.Metrics
	Client  *zenmoney.Client
}

// NewApp opens storage and builds the remote client from cfg.
func NewApp(cfg *config.Config, flags GlobalFlags) (*App, error) {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "zenrecon")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New(cfg.Observability.Metrics.Namespace)
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Metrics: m,
		Client:  zenmoney.NewClientFromConfig(cfg.Zenmoney, m, logger.With("system", "zenmoney")),
	}, nil
}

// Close releases storage.
func (a *App) Close() error {
	return a.Store.Close()
}

// Users returns the configured user names in stable order.
func (a *App) Users() []string {
	names := make([]string, 0, len(a.Config.Zenmoney.Users))
	for name := range a.Config.Zenmoney.Users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveUser picks name, or the only configured user when name is empty.
func (a *App) ResolveUser(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	users := a.Users()
	if len(users) == 1 {
		return users[0], nil
	}
	return "", fmt.Errorf("--user is required when %d users are configured", len(users))
}

// Session opens the remote session for a configured user.
func (a *App) Session(name string) (*zenmoney.Session, error) {
	user, err := a.Config.User(name)
	if err != nil {
		return nil, err
	}
	return zenmoney.NewSession(a.Client, name, user, a.Store.Ledger(name), a.Store, a.Logger.With("system", "zenmoney")), nil
}

// Deps builds reconciliation dependencies from the reconcile config.
func (a *App) Deps() reconcile.Deps {
	rc := a.Config.Reconcile
	return reconcile.Deps{
		Matcher: matcher.NewMatcher(matcher.Config{
			BankDateTolerance: rc.BankDateTolerance,
			PeerDateTolerance: rc.PeerDateTolerance,
		}),
		Synthesizer: synthesizer.New(synthesizer.Options{
			Jitter: synthesizer.RandomJitter{Min: int64(rc.JitterMinSeconds), Max: int64(rc.JitterMaxSeconds)},
		}),
		Runs:    a.Store,
		Metrics: a.Metrics,
		Logger:  a.Logger.With("system", "reconcile"),
	}
}
