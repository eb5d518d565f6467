package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FotoFacturas/revamp-sub000/internal/account"
	"github.com/FotoFacturas/revamp-sub000/internal/apiclient"
	"github.com/FotoFacturas/revamp-sub000/internal/backend"
	"github.com/FotoFacturas/revamp-sub000/internal/config"
	"github.com/FotoFacturas/revamp-sub000/internal/kv"
	"github.com/FotoFacturas/revamp-sub000/internal/logging"
	"github.com/FotoFacturas/revamp-sub000/internal/session"
)

var (
	// errLegacyUnsupported is returned by commands only the new API serves.
	errLegacyUnsupported = errors.New("this command needs the new backend (USE_NEW_BACKEND=true)")

	errNoPhone = errors.New("no phone number: pass --phone or run phone set first")
)

// app holds what every command needs, wired once per invocation.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	store      kv.Store
	closeStore func() error
	sessions   *session.Store
	account    *account.Service
	// api is set only when the new backend is selected.
	api *apiclient.Client
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.LogLevel).With("app", cfg.AppName, "env", cfg.AppEnv)

	store, closeStore, err := kv.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	a.store, a.closeStore = store, closeStore

	b, err := backend.New(cfg, backend.Deps{Store: store, Opener: openFile, Logger: a.logger})
	if err != nil {
		return err
	}

	a.sessions = session.New(store, cfg.SessionKey(),
		session.WithLogger(a.logger),
		session.WithOnAuthenticated(func(_ context.Context, s session.Session) {
			a.logger.Debug("session authenticated", "user_id", session.Value(s.UserID))
		}),
	)
	a.sessions.Restore(ctx)
	a.account = account.NewService(b, a.sessions, a.logger)

	if cfg.UseNewBackend {
		a.api, err = apiclient.New(apiclient.Config{
			BaseURL: cfg.APIURL,
			Timeout: cfg.RequestTimeout,
			Opener:  openFile,
			Logger:  a.logger,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close() error {
	if a.closeStore == nil {
		return nil
	}
	closeStore := a.closeStore
	a.closeStore = nil
	return closeStore()
}

// newAPI returns the engine client and the current token for commands that
// only exist on the new API.
func (a *app) newAPI() (*apiclient.Client, string, error) {
	if a.api == nil {
		return nil, "", errLegacyUnsupported
	}
	token, err := a.account.Token()
	if err != nil {
		return nil, "", err
	}
	return a.api, token, nil
}
