package tickets

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound means no ticket matched for the owner.
var ErrNotFound = errors.New("ticket not found")

// Repository persists tickets.
type Repository interface {
	Create(ctx context.Context, ticket Ticket) error
	Get(ctx context.Context, ownerID, id string) (Ticket, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Ticket, error)
}

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Ticket
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Ticket)}
}

func (r *memoryRepository) Create(_ context.Context, ticket Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[ticket.ID]; exists {
		return errors.New("ticket exists")
	}
	r.storage[ticket.ID] = ticket
	return nil
}

func (r *memoryRepository) Get(_ context.Context, ownerID, id string) (Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.storage[id]
	if !ok || ticket.OwnerID != ownerID {
		return Ticket{}, ErrNotFound
	}
	return ticket, nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, ownerID string) ([]Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Ticket{}
	for _, t := range r.storage {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
