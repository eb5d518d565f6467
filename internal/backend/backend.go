// Package backend routes account operations to either the legacy API or the
// new API. The choice is made once, in New, from the migration flag; callers
// only ever see the Backend interface and the normalized Response.
package backend

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/FotoFacturas/revamp-sub000/internal/apiclient"
	"github.com/FotoFacturas/revamp-sub000/internal/config"
	"github.com/FotoFacturas/revamp-sub000/internal/kv"
	"github.com/FotoFacturas/revamp-sub000/internal/transport"
)

// Backend is the capability surface shared by both APIs.
type Backend interface {
	AddUser(ctx context.Context, in SignupInput) (Response, error)
	RequestLoginOTPEmail(ctx context.Context, email string) (Response, error)
	LoginOTPEmail(ctx context.Context, email, code string) (Response, error)
	KeepSession(ctx context.Context, token string) (Response, error)
	UpdateUserPhone(ctx context.Context, token, phone string) (Response, error)
	ValidateOTPPhone(ctx context.Context, token, phone, code string) (Response, error)
	ValidateOTPEmail(ctx context.Context, token, email, code string) (Response, error)
	RequestVerifyOTPEmail(ctx context.Context, token, email string) (Response, error)
	GetUserData(ctx context.Context, token string) (Response, error)
	UpdateUser(ctx context.Context, token string, in UserUpdate) (Response, error)
}

// SignupInput is what the signup screen collects.
type SignupInput struct {
	Email string
	Name  string
}

// UserUpdate lists profile changes. An empty field means "leave unchanged"
// on both backends, so a stored value cannot be cleared through UpdateUser;
// callers overwrite it with a new value instead.
type UserUpdate struct {
	Name           string
	LegalName      string
	TaxID          string
	TaxRegime      string
	ZipCode        string
	Street         string
	ExteriorNumber string
	InteriorNumber string
	Neighborhood   string
	Municipality   string
	State          string
}

// Deps are the collaborators New wires into the selected implementation.
type Deps struct {
	HTTPClient *http.Client
	// Store persists the phone candidate counter.
	Store  kv.Store
	Opener apiclient.Opener
	Logger *slog.Logger
}

// New returns the implementation selected by cfg.UseNewBackend. This is the
// only place the migration flag is read; a process never mixes backends
// because their tokens are incompatible.
func New(cfg config.Config, deps Deps) (Backend, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if !cfg.UseNewBackend {
		logger.Debug("using legacy backend", "origin", cfg.LegacyAPIURL)
		return NewLegacy(transport.New(cfg.LegacyAPIURL, deps.HTTPClient), cfg.RequestTimeout, logger), nil
	}

	api, err := apiclient.New(apiclient.Config{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.RequestTimeout,
		HTTPClient: deps.HTTPClient,
		Opener:     deps.Opener,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	store := deps.Store
	if store == nil {
		store = kv.NewMemory()
	}
	logger.Debug("using new backend", "origin", cfg.APIURL)
	return NewModern(api, NewCandidateGenerator(store, cfg.CandidateSeedKey(), logger), logger), nil
}
