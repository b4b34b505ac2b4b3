package indexer

import (
	"context"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// Embedder vectorizes task content.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// EmbeddingWriter persists and removes task embeddings.
type EmbeddingWriter interface {
	Upsert(ctx context.Context, e *domain.TaskEmbedding) error
	Delete(ctx context.Context, taskID int64) error
}
