package identity

import (
	"context"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	users   map[string]User
	byEmail map[string]string
	byPhone map[string]string
}

// NewMemoryRepository builds an in-memory user store.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:   make(map[string]User),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[emailKey(user.Email)]; exists {
		return ErrEmailTaken
	}
	if key := user.PhoneKey(); key != "" {
		if _, exists := r.byPhone[key]; exists {
			return ErrPhoneTaken
		}
		r.byPhone[key] = user.ID
	}
	r.byEmail[emailKey(user.Email)] = user.ID
	r.users[user.ID] = user
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.users[id], nil
}

func (r *memoryRepository) Update(_ context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.users[user.ID]
	if !ok {
		return ErrNotFound
	}

	oldKey, newKey := prev.PhoneKey(), user.PhoneKey()
	if newKey != oldKey {
		if owner, exists := r.byPhone[newKey]; newKey != "" && exists && owner != user.ID {
			return ErrPhoneTaken
		}
		delete(r.byPhone, oldKey)
		if newKey != "" {
			r.byPhone[newKey] = user.ID
		}
	}
	user.Email = prev.Email
	r.users[user.ID] = user
	return nil
}
