// Package task persists tasks as store hashes indexed for full-text search.
package task

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskmaster-cloud/tasksearch/internal/db"
	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

const (
	// KeyPrefix is the hash key prefix for tasks.
	KeyPrefix = "tm:task:"
	// IndexName is the FT index over task hashes.
	IndexName = "tm:idx:tasks"
	// ContentField is the tokenized TEXT field carrying name + description.
	ContentField = "content"
	// OrgField is the organization TAG field.
	OrgField = "org"
	// CreatedField is the sortable creation timestamp field.
	CreatedField = "created"

	seqKey = "tm:seq:task"
)

// Key returns the hash key for a task id.
func Key(id int64) string {
	return KeyPrefix + strconv.FormatInt(id, 10)
}

// IDFromKey extracts the task id from a hash key.
func IDFromKey(key string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(key, KeyPrefix), 10, 64)
}

// store is the consumer interface for tasks (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	NextID(ctx context.Context, key string) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// Repo implements the task storage contract.
type Repo struct {
	store store
}

// New creates a task repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// EnsureIndex creates the FT index over task hashes if it does not exist.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		Text(ContentField).
		Tag(OrgField).
		Numeric(CreatedField, true).
		Build()
	if err != nil {
		return fmt.Errorf("build task index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create task index: %w", err)
	}
	return nil
}

// Create allocates an id and persists a new task, setting t.ID.
func (r *Repo) Create(ctx context.Context, t *domain.Task) error {
	id, err := r.store.NextID(ctx, seqKey)
	if err != nil {
		return fmt.Errorf("allocate task id: %w", err)
	}
	t.ID = id

	if err := r.store.HSet(ctx, Key(id), buildHashFields(t)); err != nil {
		return fmt.Errorf("store task %d: %w", id, err)
	}
	return nil
}

// Update rewrites an existing task's hash.
func (r *Repo) Update(ctx context.Context, t *domain.Task) error {
	if err := r.store.HSet(ctx, Key(t.ID), buildHashFields(t)); err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return nil
}

// Get returns a task by id.
func (r *Repo) Get(ctx context.Context, id int64) (domain.Task, error) {
	m, err := r.store.HGetAll(ctx, Key(id))
	if err != nil {
		return domain.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	if len(m) == 0 {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return parseHashFields(id, m), nil
}

// GetMany returns the tasks for the given ids, skipping missing ones.
// Order follows ids.
func (r *Repo) GetMany(ctx context.Context, ids []int64) ([]domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key(id)
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}

	tasks := make([]domain.Task, 0, len(ids))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		tasks = append(tasks, parseHashFields(ids[i], m))
	}
	return tasks, nil
}

// ListByOrg returns all tasks of an organization, most recently created
// first. This is the fallback result set for searches with no candidates.
func (r *Repo) ListByOrg(ctx context.Context, orgID string, limit int) ([]domain.Task, error) {
	res, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: IndexName,
		Filter:    db.TagFilter(OrgField, orgID),
		SortBy:    CreatedField,
		SortDesc:  true,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks for org %s: %w", orgID, err)
	}

	tasks := make([]domain.Task, 0, len(res.Entries))
	for _, e := range res.Entries {
		id, err := IDFromKey(e.Key)
		if err != nil {
			continue
		}
		tasks = append(tasks, parseHashFields(id, e.Fields))
	}
	return tasks, nil
}

// Delete removes a task hash.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	if err := r.store.Del(ctx, Key(id)); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}
