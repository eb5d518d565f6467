package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalid wraps validation failures.
var ErrInvalid = errors.New("invalid ticket")

// Service accepts receipt uploads.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a ticket service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create stores a new ticket. The image itself is discarded; only its name
// and size are kept.
func (s *Service) Create(ctx context.Context, in CreateInput) (Ticket, error) {
	if in.OwnerID == "" {
		return Ticket{}, fmt.Errorf("%w: owner is required", ErrInvalid)
	}
	if in.ImageSize <= 0 {
		return Ticket{}, fmt.Errorf("%w: image is empty", ErrInvalid)
	}

	id := uuid.New().String()
	ticket := Ticket{
		ID:           id,
		OwnerID:      in.OwnerID,
		Status:       StatusReceived,
		Store:        strings.TrimSpace(in.Store),
		Total:        strings.TrimSpace(in.Total),
		PurchaseDate: strings.TrimSpace(in.PurchaseDate),
		Notes:        in.Notes,
		ImageName:    in.ImageName,
		ImageSize:    in.ImageSize,
		ImageURL:     "mock://tickets/" + id + "/" + in.ImageName,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, ticket); err != nil {
		return Ticket{}, err
	}
	return ticket, nil
}

// Get returns one of the owner's tickets.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Ticket, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// List returns the owner's tickets, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Ticket, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
