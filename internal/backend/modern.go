package backend

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/FotoFacturas/revamp-sub000/internal/apiclient"
	"github.com/FotoFacturas/revamp-sub000/internal/apierr"
)

// phoneTakenCode is the structured error code for a duplicate phone.
const phoneTakenCode = "PHONE_TAKEN"

// Modern serves Backend calls from the new API through the authenticated
// request engine.
type Modern struct {
	api        *apiclient.Client
	candidates *CandidateGenerator
	logger     *slog.Logger
}

// NewModern builds the new backend implementation.
func NewModern(api *apiclient.Client, candidates *CandidateGenerator, logger *slog.Logger) *Modern {
	return &Modern{api: api, candidates: candidates, logger: logger}
}

// AddUser signs a user up with a placeholder phone, retrying once with a new
// candidate when the backend reports the phone as taken, then sends the first
// login code. A failed code send does not fail the signup; it is reported in
// OTPSent and OTPError so the caller can offer a resend.
func (m *Modern) AddUser(ctx context.Context, in SignupInput) (Response, error) {
	user, err := m.createUser(ctx, in)
	if isPhoneConflict(err) {
		m.logger.Info("signup phone candidate taken, retrying once", "email", in.Email)
		user, err = m.createUser(ctx, in)
		if isPhoneConflict(err) {
			return Response{}, &apierr.ConflictError{Field: "phone", Err: err}
		}
	}
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Success: true,
		User:    fromModern(user),
		Name:    firstNonEmpty(user.FirstName, in.Name),
	}

	sent := true
	if _, err := m.api.RequestEmailOTP(ctx, in.Email); err != nil {
		sent = false
		msg := err.Error()
		if backendMsg := apierr.Message(err); backendMsg != "" {
			msg = backendMsg
		}
		resp.OTPError = &msg
		m.logger.Warn("signup succeeded but login code was not sent", "email", in.Email, "error", err)
	}
	resp.OTPSent = &sent
	return resp, nil
}

func (m *Modern) createUser(ctx context.Context, in SignupInput) (apiclient.User, error) {
	return m.api.CreateUser(ctx, apiclient.NewUser{
		Email:     in.Email,
		FirstName: in.Name,
		Phone:     m.candidates.Next(ctx),
		PhoneCode: defaultPhoneCode,
	})
}

// isPhoneConflict recognises a duplicate phone rejection. The structured code
// wins when the backend sends one; otherwise the message is matched against
// the wording the backend has historically used, which is a heuristic rather
// than a contract.
func isPhoneConflict(err error) bool {
	if err == nil {
		return false
	}
	var envErr *apierr.EnvelopeError
	var httpErr *apierr.HTTPError
	if !errors.As(err, &envErr) && !errors.As(err, &httpErr) {
		return false
	}
	if code := apierr.Code(err); code != "" {
		return code == phoneTakenCode
	}
	msg := strings.ToLower(apierr.Message(err))
	return strings.Contains(msg, "teléfono") || strings.Contains(msg, "telefono")
}

// RequestLoginOTPEmail sends a login code.
func (m *Modern) RequestLoginOTPEmail(ctx context.Context, email string) (Response, error) {
	env, err := m.api.RequestEmailOTP(ctx, email)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, Message: optional(env.Message)}, nil
}

// LoginOTPEmail exchanges a code for a token and the user record.
func (m *Modern) LoginOTPEmail(ctx context.Context, email, code string) (Response, error) {
	data, err := m.api.LoginEmailOTP(ctx, email, code)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Success: true,
		Token:   optional(data.Token),
		User:    fromModern(data.User),
		Name:    optional(data.User.FirstName),
	}, nil
}

// KeepSession refreshes the session, echoing the current token when the
// backend does not rotate it.
func (m *Modern) KeepSession(ctx context.Context, token string) (Response, error) {
	data, err := m.api.KeepSession(ctx, token)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Success: true,
		Token:   firstNonEmpty(data.Token, token),
		User:    fromModern(data.User),
		Name:    optional(data.User.FirstName),
	}, nil
}

// UpdateUserPhone reads the full user first because the update endpoint
// replaces every mutable field, then resends it with only the phone changed.
func (m *Modern) UpdateUserPhone(ctx context.Context, token, phone string) (Response, error) {
	current, err := m.api.GetUser(ctx, token)
	if err != nil {
		return Response{}, err
	}

	update := current.Update()
	update.PhoneCode, update.Phone = splitPhone(phone, current.PhoneCode)

	updated, err := m.api.UpdateUser(ctx, token, update)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, User: fromModern(updated), Name: optional(updated.FirstName)}, nil
}

// ValidateOTPPhone checks an SMS code and marks the phone verified.
func (m *Modern) ValidateOTPPhone(ctx context.Context, token, phone, code string) (Response, error) {
	phoneCode, number := splitPhone(phone, defaultPhoneCode)
	if _, err := m.api.VerifyPhoneOTP(ctx, token, number, phoneCode, code); err != nil {
		return Response{}, err
	}
	user, err := m.api.MarkPhoneVerified(ctx, token)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, User: fromModern(user), Name: optional(user.FirstName)}, nil
}

// ValidateOTPEmail checks an email code and marks the email verified.
func (m *Modern) ValidateOTPEmail(ctx context.Context, token, email, code string) (Response, error) {
	user, err := m.api.MarkEmailVerified(ctx, token, email, code)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, User: fromModern(user), Name: optional(user.FirstName)}, nil
}

// RequestVerifyOTPEmail sends an email verification code. The new API issues
// verification and login codes from the same endpoint.
func (m *Modern) RequestVerifyOTPEmail(ctx context.Context, _ string, email string) (Response, error) {
	return m.RequestLoginOTPEmail(ctx, email)
}

// GetUserData reads the user behind token.
func (m *Modern) GetUserData(ctx context.Context, token string) (Response, error) {
	user, err := m.api.GetUser(ctx, token)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, User: fromModern(user), Name: optional(user.FirstName)}, nil
}

// UpdateUser overlays the requested changes on the current record and
// resends every mutable field.
func (m *Modern) UpdateUser(ctx context.Context, token string, in UserUpdate) (Response, error) {
	current, err := m.api.GetUser(ctx, token)
	if err != nil {
		return Response{}, err
	}

	update := current.Update()
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&update.FirstName, in.Name)
	overlay(&update.LegalName, in.LegalName)
	overlay(&update.TaxID, in.TaxID)
	overlay(&update.TaxRegime, in.TaxRegime)
	overlay(&update.ZipCode, in.ZipCode)
	overlay(&update.Street, in.Street)
	overlay(&update.ExteriorNumber, in.ExteriorNumber)
	overlay(&update.InteriorNumber, in.InteriorNumber)
	overlay(&update.Neighborhood, in.Neighborhood)
	overlay(&update.Municipality, in.Municipality)
	overlay(&update.State, in.State)

	updated, err := m.api.UpdateUser(ctx, token, update)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Success: true,
		User:    fromModern(updated),
		Name:    firstNonEmpty(updated.FirstName, in.Name),
	}, nil
}
