// Package indexer keeps the semantic index in step with task mutations.
package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
	"github.com/taskmaster-cloud/tasksearch/internal/metrics"
)

// Service embeds task content and maintains the one-embedding-per-task
// invariant via keyed upserts.
type Service struct {
	embed      Embedder
	embeddings EmbeddingWriter
	logger     *zap.Logger
	now        func() time.Time
}

// New creates an indexer service.
func New(embed Embedder, embeddings EmbeddingWriter, logger *zap.Logger) *Service {
	return &Service{
		embed:      embed,
		embeddings: embeddings,
		logger:     logger,
		now:        time.Now,
	}
}

// IndexTask embeds the task's current content and upserts its embedding.
// Safe to retry: the upsert replaces any previous entry for the task id.
func (s *Service) IndexTask(ctx context.Context, t domain.Task) error {
	content := t.ContentText()

	res, err := s.embed.Embed(ctx, content)
	if err != nil {
		metrics.IndexOperationsTotal.WithLabelValues("index", "error").Inc()
		return fmt.Errorf("embed task %d: %w", t.ID, err)
	}

	e := domain.TaskEmbedding{
		TaskID:      t.ID,
		OrgID:       t.OrgID,
		Vector:      res.Embedding,
		ContentText: content,
		IndexedAt:   s.now().UTC(),
	}
	if err := s.embeddings.Upsert(ctx, &e); err != nil {
		metrics.IndexOperationsTotal.WithLabelValues("index", "error").Inc()
		return fmt.Errorf("store embedding for task %d: %w", t.ID, err)
	}

	metrics.IndexOperationsTotal.WithLabelValues("index", "ok").Inc()
	return nil
}

// Remove deletes a task's embedding after the task itself is deleted.
func (s *Service) Remove(ctx context.Context, taskID int64) error {
	if err := s.embeddings.Delete(ctx, taskID); err != nil {
		metrics.IndexOperationsTotal.WithLabelValues("remove", "error").Inc()
		return err
	}
	metrics.IndexOperationsTotal.WithLabelValues("remove", "ok").Inc()
	return nil
}

// NeedsReindex reports whether an update changed the embedded fields.
// Status, priority, assignment and scheduling changes never trigger a
// provider call.
func NeedsReindex(old, updated domain.Task) bool {
	return old.Name != updated.Name || old.Description != updated.Description
}
