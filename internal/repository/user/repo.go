// Package user stores the minimal user projection needed for caller
// identity and assignee enrichment.
package user

import (
	"context"
	"fmt"
	"strconv"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

const (
	keyPrefix = "tm:user:"
	seqKey    = "tm:seq:user"
)

func key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	NextID(ctx context.Context, key string) (int64, error)
}

// Repo implements the user storage contract.
type Repo struct {
	store store
}

// New creates a user repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create allocates an id and persists a new user, setting u.ID.
func (r *Repo) Create(ctx context.Context, u *domain.User) error {
	id, err := r.store.NextID(ctx, seqKey)
	if err != nil {
		return fmt.Errorf("allocate user id: %w", err)
	}
	u.ID = id

	fields := map[string]string{"username": u.Username, "org": u.OrgID}
	if err := r.store.HSet(ctx, key(id), fields); err != nil {
		return fmt.Errorf("store user %d: %w", id, err)
	}
	return nil
}

// Get returns a user by id.
func (r *Repo) Get(ctx context.Context, id int64) (domain.User, error) {
	m, err := r.store.HGetAll(ctx, key(id))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	if len(m) == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}
	return domain.User{ID: id, Username: m["username"], OrgID: m["org"]}, nil
}
