package search

import (
	"context"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// CandidateIndex runs the two candidate-generation queries.
type CandidateIndex interface {
	TextMatches(ctx context.Context, orgID, query string, topK int) ([]domain.IndexMatch, error)
	VectorMatches(ctx context.Context, orgID string, vector []float32, maxDistance float64, topK int) ([]domain.IndexMatch, error)
}

// TaskReader loads tasks for enrichment and the fallback set.
type TaskReader interface {
	GetMany(ctx context.Context, ids []int64) ([]domain.Task, error)
	ListByOrg(ctx context.Context, orgID string, limit int) ([]domain.Task, error)
}

// EmbeddingReader loads stored embeddings for similarity completion and
// indexed-content enrichment.
type EmbeddingReader interface {
	Get(ctx context.Context, taskID int64) (domain.TaskEmbedding, error)
}

// ProjectReader resolves project names for enrichment.
type ProjectReader interface {
	Get(ctx context.Context, id int64) (domain.Project, error)
}

// UserReader resolves assignee usernames for enrichment.
type UserReader interface {
	Get(ctx context.Context, id int64) (domain.User, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
