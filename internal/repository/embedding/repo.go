// Package embedding persists one semantic index entry per task, keyed by
// task id with insert-or-replace semantics.
package embedding

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskmaster-cloud/tasksearch/internal/db"
	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

const (
	// KeyPrefix is the hash key prefix for task embeddings.
	KeyPrefix = "tm:emb:"
	// IndexName is the FT index over embedding hashes.
	IndexName = "tm:idx:embeddings"
	// VectorField is the dense vector field name.
	VectorField = "vector"
	// OrgField is the organization TAG field.
	OrgField = "org"
)

// HNSWConfig tunes the vector index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Key returns the hash key for a task id.
func Key(taskID int64) string {
	return KeyPrefix + strconv.FormatInt(taskID, 10)
}

// IDFromKey extracts the task id from an embedding hash key.
func IDFromKey(key string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(key, KeyPrefix), 10, 64)
}

// store is the consumer interface for embeddings (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements the embedding storage contract.
type Repo struct {
	store store
	dim   int
	hnsw  HNSWConfig
}

// New creates an embedding repository for vectors of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim}
}

// WithHNSW overrides the vector index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the cosine vector index if it does not exist.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def, err := db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		Tag(OrgField).
		VectorHNSW(VectorField, r.dim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build embedding index: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create embedding index: %w", err)
	}
	return nil
}

// Upsert writes the embedding for a task, replacing any previous entry.
// HSET on a fixed key makes retries idempotent.
func (r *Repo) Upsert(ctx context.Context, e *domain.TaskEmbedding) error {
	if len(e.Vector) != r.dim {
		return fmt.Errorf("%w: embedding has %d dimensions, index expects %d",
			domain.ErrEmbeddingProvider, len(e.Vector), r.dim)
	}
	if err := r.store.HSet(ctx, Key(e.TaskID), buildHashFields(e)); err != nil {
		return fmt.Errorf("upsert embedding for task %d: %w", e.TaskID, err)
	}
	return nil
}

// Get returns the embedding for a task id.
func (r *Repo) Get(ctx context.Context, taskID int64) (domain.TaskEmbedding, error) {
	m, err := r.store.HGetAll(ctx, Key(taskID))
	if err != nil {
		return domain.TaskEmbedding{}, fmt.Errorf("get embedding for task %d: %w", taskID, err)
	}
	if len(m) == 0 {
		return domain.TaskEmbedding{}, domain.ErrEmbeddingNotFound
	}
	return parseHashFields(taskID, m), nil
}

// Delete removes a task's embedding. Deleting a missing key is a no-op.
func (r *Repo) Delete(ctx context.Context, taskID int64) error {
	if err := r.store.Del(ctx, Key(taskID)); err != nil {
		return fmt.Errorf("delete embedding for task %d: %w", taskID, err)
	}
	return nil
}
