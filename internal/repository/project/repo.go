// Package project stores the minimal project projection the search results
// are enriched with.
package project

import (
	"context"
	"fmt"
	"strconv"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

const (
	keyPrefix = "tm:project:"
	seqKey    = "tm:seq:project"
)

func key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	NextID(ctx context.Context, key string) (int64, error)
}

// Repo implements the project storage contract.
type Repo struct {
	store store
}

// New creates a project repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Create allocates an id and persists a new project, setting p.ID.
func (r *Repo) Create(ctx context.Context, p *domain.Project) error {
	id, err := r.store.NextID(ctx, seqKey)
	if err != nil {
		return fmt.Errorf("allocate project id: %w", err)
	}
	p.ID = id

	fields := map[string]string{"name": p.Name, "org": p.OrgID}
	if err := r.store.HSet(ctx, key(id), fields); err != nil {
		return fmt.Errorf("store project %d: %w", id, err)
	}
	return nil
}

// Get returns a project by id.
func (r *Repo) Get(ctx context.Context, id int64) (domain.Project, error) {
	m, err := r.store.HGetAll(ctx, key(id))
	if err != nil {
		return domain.Project{}, fmt.Errorf("get project %d: %w", id, err)
	}
	if len(m) == 0 {
		return domain.Project{}, domain.ErrProjectNotFound
	}
	return domain.Project{ID: id, Name: m["name"], OrgID: m["org"]}, nil
}
