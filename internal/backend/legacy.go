package backend

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/FotoFacturas/revamp-sub000/internal/transport"
)

// Legacy serves Backend calls from the legacy API. Its payloads are flat JSON
// objects and a non-2xx status is the only failure signal.
type Legacy struct {
	http    *transport.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewLegacy builds the legacy implementation. timeout bounds GetUserData,
// the one call the legacy app ran against a timer.
func NewLegacy(http *transport.Client, timeout time.Duration, logger *slog.Logger) *Legacy {
	return &Legacy{http: http, timeout: timeout, logger: logger}
}

// AddUser signs a user up.
func (l *Legacy) AddUser(ctx context.Context, in SignupInput) (Response, error) {
	res, err := l.http.Post(ctx, "/users", map[string]string{"email": in.Email, "name": in.Name})
	if err != nil {
		return Response{}, err
	}
	resp := fromLegacy(res)
	resp.Name = firstNonEmpty(str(res, "name"), in.Name)
	return resp, nil
}

// RequestLoginOTPEmail sends a login code.
func (l *Legacy) RequestLoginOTPEmail(ctx context.Context, email string) (Response, error) {
	res, err := l.http.Post(ctx, "/login/otp/email/request", map[string]string{"email": email})
	if err != nil {
		return Response{}, err
	}
	return fromLegacy(res), nil
}

// LoginOTPEmail exchanges a code for a token and the user record.
func (l *Legacy) LoginOTPEmail(ctx context.Context, email, code string) (Response, error) {
	res, err := l.http.Post(ctx, "/login/otp/email", map[string]string{"email": email, "otp": code})
	if err != nil {
		return Response{}, err
	}
	return fromLegacy(res), nil
}

// KeepSession refreshes the session. The legacy API only returns a token when
// it rotates one, so the current token is echoed otherwise.
func (l *Legacy) KeepSession(ctx context.Context, token string) (Response, error) {
	res, err := l.http.Post(ctx, "/session/keep", map[string]string{"token": token})
	if err != nil {
		return Response{}, err
	}
	resp := fromLegacy(res)
	resp.Token = firstNonEmpty(str(res, "token"), token)
	return resp, nil
}

// UpdateUserPhone replaces the phone number.
func (l *Legacy) UpdateUserPhone(ctx context.Context, token, phone string) (Response, error) {
	res, err := l.http.Post(ctx, "/users/phone", map[string]string{"token": token, "phone": phone})
	if err != nil {
		return Response{}, err
	}
	return fromLegacy(res), nil
}

// ValidateOTPPhone checks an SMS code and marks the phone verified.
func (l *Legacy) ValidateOTPPhone(ctx context.Context, token, phone, code string) (Response, error) {
	res, err := l.http.Post(ctx, "/otp/phone/validate", map[string]string{"token": token, "phone": phone, "otp": code})
	if err != nil {
		return Response{}, err
	}
	return fromLegacy(res), nil
}

// ValidateOTPEmail checks an email code and marks the email verified.
func (l *Legacy) ValidateOTPEmail(ctx context.Context, token, email, code string) (Response, error) {
	res, err := l.http.Post(ctx, "/otp/email/validate", map[string]string{"token": token, "email": email, "otp": code})
	if err != nil {
		return Response{}, err
	}
	return fromLegacy(res), nil
}

// RequestVerifyOTPEmail sends an email verification code.
func (l *Legacy) RequestVerifyOTPEmail(ctx context.Context, token, email string) (Response, error) {
	res, err := l.http.Post(ctx, "/otp/email/request", map[string]string{"token": token, "email": email})
	if err != nil {
		return Response{}, err
	}
	return fromLegacy(res), nil
}

// GetUserData reads the user behind token.
func (l *Legacy) GetUserData(ctx context.Context, token string) (Response, error) {
	res, err := l.http.TimedGet(ctx, "/users/me?token="+url.QueryEscape(token), l.timeout)
	if err != nil {
		return Response{}, err
	}
	return fromLegacy(res), nil
}

// UpdateUser sends only the changed fields; the legacy API merges them.
func (l *Legacy) UpdateUser(ctx context.Context, token string, in UserUpdate) (Response, error) {
	body := map[string]string{"token": token}
	for key, value := range map[string]string{
		"name":           in.Name,
		"razon_social":   in.LegalName,
		"rfc":            in.TaxID,
		"regimen_fiscal": in.TaxRegime,
		"codigo_postal":  in.ZipCode,
		"calle":          in.Street,
		"num_ext":        in.ExteriorNumber,
		"num_int":        in.InteriorNumber,
		"colonia":        in.Neighborhood,
		"municipio":      in.Municipality,
		"estado":         in.State,
	} {
		if value != "" {
			body[key] = value
		}
	}

	res, err := l.http.Put(ctx, "/users", body)
	if err != nil {
		return Response{}, err
	}
	resp := fromLegacy(res)
	resp.Name = firstNonEmpty(str(res, "name"), in.Name)
	return resp, nil
}
