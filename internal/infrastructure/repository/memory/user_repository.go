package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rmarban/euroleague-fantasy/internal/domain/user"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[int64]user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]user.User)}
}

func (r *UserRepository) UpsertBatch(_ context.Context, users []user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range users {
		r.users[u.ID] = u
	}
	return nil
}

func (r *UserRepository) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
