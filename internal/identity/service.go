package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	planFree = "free"

	csfPending = "pending"
)

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("invalid user data")

// Service manages the user lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a user on the free plan.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	email := strings.TrimSpace(reg.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, errors.Join(ErrInvalid, errors.New("email is not valid"))
	}

	user := User{
		ID:        uuid.New().String(),
		Email:     email,
		FirstName: strings.TrimSpace(reg.FirstName),
		Phone:     digits(reg.Phone),
		PhoneCode: digits(reg.PhoneCode),
		Plan:      planFree,
		CreatedAt: time.Now().UTC(),
	}
	if user.Phone != "" && user.PhoneCode == "" {
		user.PhoneCode = "52"
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Get returns the user by ID.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByEmail returns the user holding email.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// Update applies mutate to the stored user and saves the result. Changing the
// phone clears its verified flag.
func (s *Service) Update(ctx context.Context, id string, mutate func(*User)) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	before := user.PhoneKey()
	mutate(&user)
	user.Phone, user.PhoneCode = digits(user.Phone), digits(user.PhoneCode)
	if user.PhoneKey() != before {
		user.PhoneVerified = false
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return User{}, err
	}
	return s.repo.FindByID(ctx, id)
}

// AttachCSF records an uploaded tax status certificate, pending review.
func (s *Service) AttachCSF(ctx context.Context, id, url string) (User, error) {
	return s.Update(ctx, id, func(u *User) {
		u.CSFURL = url
		u.CSFStatus = csfPending
	})
}

// RevokeTokens invalidates every token issued so far.
func (s *Service) RevokeTokens(ctx context.Context, id string) (User, error) {
	return s.Update(ctx, id, func(u *User) { u.TokenVersion++ })
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
