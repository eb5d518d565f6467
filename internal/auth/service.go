package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/FotoFacturas/revamp-sub000/internal/identity"
	"github.com/FotoFacturas/revamp-sub000/internal/notification"
)

const (
	codeTTL         = 10 * time.Minute
	maxCodeAttempts = 5
	tokenTTL        = 24 * time.Hour
	codeDigits      = 6
)

var (
	// ErrInvalidCode covers wrong, expired and exhausted codes.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrNotConfirmed means no code was checked for the destination.
	ErrNotConfirmed = errors.New("destination not confirmed")
)

type pendingCode struct {
	hash      []byte
	expiresAt time.Time
	attempts  int
}

// Config tunes the authentication service.
type Config struct {
	Secret []byte
	// FixedCode, when set, is issued instead of a random code.
	FixedCode string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
}

// Service issues one-time codes and bearer tokens for the development
// backend. Codes are kept only as bcrypt hashes.
type Service struct {
	cfg      Config
	users    *identity.Service
	notifier notification.Notifier

	mu        sync.Mutex
	pending   map[string]pendingCode
	confirmed map[string]time.Time
}

// NewService wires the authentication service.
func NewService(cfg Config, users *identity.Service, notifier notification.Notifier) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		cfg:       cfg,
		users:     users,
		notifier:  notifier,
		pending:   make(map[string]pendingCode),
		confirmed: make(map[string]time.Time),
	}
}

// EmailKey names an email code destination.
func EmailKey(email string) string { return "email:" + strings.ToLower(strings.TrimSpace(email)) }

// PhoneKey names an SMS destination.
func PhoneKey(phoneCode, phone string) string { return "phone:" + phoneCode + ":" + phone }

// SendCode issues a fresh code for key, replacing any pending one, and
// delivers it to destination.
func (s *Service) SendCode(ctx context.Context, kind, key, destination string) error {
	code := s.cfg.FixedCode
	if code == "" {
		var err error
		if code, err = randomCode(); err != nil {
			return err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pending[key] = pendingCode{hash: hash, expiresAt: s.cfg.Now().Add(codeTTL)}
	s.mu.Unlock()

	return s.notifier.Send(ctx, notification.Message{
		Kind:        kind,
		Destination: destination,
		Body:        fmt.Sprintf("Tu código de FotoFacturas es %s", code),
	})
}

// CheckCode consumes the pending code for key when code matches it. A match
// also marks key confirmed.
func (s *Service) CheckCode(key, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[key]
	if !ok || s.cfg.Now().After(p.expiresAt) {
		delete(s.pending, key)
		return ErrInvalidCode
	}
	if bcrypt.CompareHashAndPassword(p.hash, []byte(code)) != nil {
		p.attempts++
		if p.attempts >= maxCodeAttempts {
			delete(s.pending, key)
		} else {
			s.pending[key] = p
		}
		return ErrInvalidCode
	}
	delete(s.pending, key)
	s.confirmed[key] = s.cfg.Now()
	return nil
}

// ConsumeConfirmation reports whether key was confirmed within the code
// lifetime, clearing the mark.
func (s *Service) ConsumeConfirmation(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.confirmed[key]
	delete(s.confirmed, key)
	if !ok || s.cfg.Now().Sub(at) > codeTTL {
		return ErrNotConfirmed
	}
	return nil
}

// IssueToken signs a bearer token for user.
func (s *Service) IssueToken(user identity.User) (string, error) {
	now := s.cfg.Now()
	return SignHS256(map[string]any{
		"sub": user.ID,
		"ver": user.TokenVersion,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}, s.cfg.Secret)
}

// Authenticate resolves token into its user. Tokens issued before the user's
// last revocation are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.User, error) {
	claims, err := ParseAndVerifyHS256(token, s.cfg.Secret, s.cfg.Now())
	if err != nil {
		return identity.User{}, err
	}
	sub, _ := claims["sub"].(string)
	ver, _ := claims["ver"].(float64)

	user, err := s.users.Get(ctx, sub)
	if err != nil || user.TokenVersion != int(ver) {
		return identity.User{}, ErrInvalidToken
	}
	return user, nil
}

func randomCode() (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < codeDigits; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
