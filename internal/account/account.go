// Package account runs the user-facing flows that need both the backend
// router and the session store: a successful login lands in the session,
// an expired token clears it.
package account

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/FotoFacturas/revamp-sub000/internal/apierr"
	"github.com/FotoFacturas/revamp-sub000/internal/backend"
	"github.com/FotoFacturas/revamp-sub000/internal/session"
)

var (
	// ErrNotLoggedIn is returned by flows that need a token when the session
	// has none.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNoToken means the backend accepted a login without issuing a token.
	ErrNoToken = errors.New("backend returned no token")
)

// Service coordinates backend calls with session updates.
type Service struct {
	backend  backend.Backend
	sessions *session.Store
	logger   *slog.Logger
}

// NewService wires a Service.
func NewService(b backend.Backend, sessions *session.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{backend: b, sessions: sessions, logger: logger}
}

// Signup creates the account. The session is untouched; the user logs in
// with the code sent afterwards.
func (s *Service) Signup(ctx context.Context, email, name string) (backend.Response, error) {
	return s.backend.AddUser(ctx, backend.SignupInput{Email: email, Name: name})
}

// RequestLogin sends a login code to email.
func (s *Service) RequestLogin(ctx context.Context, email string) (backend.Response, error) {
	return s.backend.RequestLoginOTPEmail(ctx, email)
}

// Login exchanges the code for a token and stores the signed-in session.
func (s *Service) Login(ctx context.Context, email, code string) (session.Session, error) {
	resp, err := s.backend.LoginOTPEmail(ctx, email, code)
	if err != nil {
		return session.Session{}, err
	}
	if resp.Token == nil || *resp.Token == "" {
		return session.Session{}, ErrNoToken
	}

	profile := ProfileOf(resp.User)
	if profile.Email == "" {
		profile.Email = email
	}
	saved := s.sessions.SaveUser(ctx, profile, *resp.Token)
	s.logger.Info("logged in", "user_id", session.Value(saved.UserID))
	return saved, nil
}

// KeepAlive refreshes the token. A 401 means the token is dead, so the
// session is logged out before the error is returned.
func (s *Service) KeepAlive(ctx context.Context) (session.Session, error) {
	token, err := s.token()
	if err != nil {
		return session.Session{}, err
	}

	resp, err := s.backend.KeepSession(ctx, token)
	if err != nil {
		if apierr.Status(err) == http.StatusUnauthorized {
			s.logger.Info("session expired, logging out")
			s.sessions.Logout(ctx)
		}
		return session.Session{}, err
	}

	next := token
	if resp.Token != nil && *resp.Token != "" {
		next = *resp.Token
	}
	return s.sessions.SaveUser(ctx, ProfileOf(resp.User), next), nil
}

// Refresh reloads the user record into the session.
func (s *Service) Refresh(ctx context.Context) (session.Session, error) {
	token, err := s.token()
	if err != nil {
		return session.Session{}, err
	}
	resp, err := s.backend.GetUserData(ctx, token)
	if err != nil {
		return session.Session{}, err
	}
	return s.sessions.SaveUser(ctx, ProfileOf(resp.User), token), nil
}

// ChangePhone replaces the phone number and requests nothing else; the SMS
// code is checked with VerifyPhone.
func (s *Service) ChangePhone(ctx context.Context, phone string) (session.Session, error) {
	token, err := s.token()
	if err != nil {
		return session.Session{}, err
	}
	resp, err := s.backend.UpdateUserPhone(ctx, token, phone)
	if err != nil {
		return session.Session{}, err
	}
	profile := ProfileOf(resp.User)
	if profile.Phone == "" {
		profile.Phone = phone
	}
	return s.sessions.SaveUser(ctx, profile, token), nil
}

// VerifyPhone checks an SMS code for phone.
func (s *Service) VerifyPhone(ctx context.Context, phone, code string) (session.Session, error) {
	token, err := s.token()
	if err != nil {
		return session.Session{}, err
	}
	resp, err := s.backend.ValidateOTPPhone(ctx, token, phone, code)
	if err != nil {
		return session.Session{}, err
	}
	return s.sessions.SaveUser(ctx, ProfileOf(resp.User), token), nil
}

// RequestEmailVerification sends a verification code to the session email.
func (s *Service) RequestEmailVerification(ctx context.Context) (backend.Response, error) {
	token, err := s.token()
	if err != nil {
		return backend.Response{}, err
	}
	return s.backend.RequestVerifyOTPEmail(ctx, token, session.Value(s.sessions.Current().Email))
}

// VerifyEmail checks an email verification code.
func (s *Service) VerifyEmail(ctx context.Context, code string) (session.Session, error) {
	token, err := s.token()
	if err != nil {
		return session.Session{}, err
	}
	email := session.Value(s.sessions.Current().Email)
	resp, err := s.backend.ValidateOTPEmail(ctx, token, email, code)
	if err != nil {
		return session.Session{}, err
	}
	return s.sessions.SaveUser(ctx, ProfileOf(resp.User), token), nil
}

// UpdateProfile applies the non-empty fields of in.
func (s *Service) UpdateProfile(ctx context.Context, in backend.UserUpdate) (session.Session, error) {
	token, err := s.token()
	if err != nil {
		return session.Session{}, err
	}
	resp, err := s.backend.UpdateUser(ctx, token, in)
	if err != nil {
		return session.Session{}, err
	}
	return s.sessions.SaveUser(ctx, ProfileOf(resp.User), token), nil
}

// Logout clears the session, keeping the email.
func (s *Service) Logout(ctx context.Context) session.Session {
	return s.sessions.Logout(ctx)
}

// Token returns the current bearer token or ErrNotLoggedIn.
func (s *Service) Token() (string, error) {
	return s.token()
}

func (s *Service) token() (string, error) {
	cur := s.sessions.Current()
	if !cur.LoggedIn || session.Value(cur.Token) == "" {
		return "", ErrNotLoggedIn
	}
	return *cur.Token, nil
}

// ProfileOf converts a normalized backend user into the session profile. A
// nil user yields an empty profile, which leaves the session unchanged.
func ProfileOf(u *backend.User) session.Profile {
	if u == nil {
		return session.Profile{}
	}
	return session.Profile{
		UserID:         u.ID,
		Email:          u.Email,
		Plan:           u.Plan,
		LegalName:      u.LegalName,
		TaxID:          u.TaxID,
		TaxRegime:      u.TaxRegime,
		ZipCode:        u.ZipCode,
		Street:         u.Street,
		ExteriorNumber: u.ExteriorNumber,
		InteriorNumber: u.InteriorNumber,
		Neighborhood:   u.Neighborhood,
		Municipality:   u.Municipality,
		State:          u.State,
		Phone:          u.Phone,
		CSFURL:         u.CSFURL,
		CSFStatus:      u.CSFStatus,
	}
}
