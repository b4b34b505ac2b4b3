// Package search runs the two candidate-generation queries of the hybrid
// ranker: lexical matches over task content and cosine-range matches over
// task embeddings.
package search

import (
	"context"
	"fmt"

	"github.com/taskmaster-cloud/tasksearch/internal/db"
	"github.com/taskmaster-cloud/tasksearch/internal/domain"
	"github.com/taskmaster-cloud/tasksearch/internal/repository/embedding"
	"github.com/taskmaster-cloud/tasksearch/internal/repository/task"
)

// store is the consumer interface for candidate queries (ISP).
type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchVectorRange(ctx context.Context, q *db.VectorQuery) (*db.SearchResult, error)
}

// Repo implements the candidate index contract of the hybrid ranker.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// TextMatches returns org-scoped tasks whose name+description content
// matches the tokenized query, with the index's ranking score.
func (r *Repo) TextMatches(ctx context.Context, orgID, query string, topK int) ([]domain.IndexMatch, error) {
	res, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    task.IndexName,
		Field:        task.ContentField,
		Query:        query,
		Filter:       db.TagFilter(task.OrgField, orgID),
		TopK:         topK,
		ReturnFields: []string{task.OrgField},
	})
	if err != nil {
		return nil, fmt.Errorf("text matches: %w", err)
	}

	matches := make([]domain.IndexMatch, 0, len(res.Entries))
	for _, e := range res.Entries {
		id, err := task.IDFromKey(e.Key)
		if err != nil {
			continue
		}
		matches = append(matches, domain.IndexMatch{TaskID: id, Score: e.Score})
	}
	return matches, nil
}

// VectorMatches returns org-scoped tasks whose embedding is within
// maxDistance cosine distance of the query vector. Scores are similarities.
func (r *Repo) VectorMatches(
	ctx context.Context, orgID string, vector []float32, maxDistance float64, topK int,
) ([]domain.IndexMatch, error) {
	res, err := r.store.SearchVectorRange(ctx, &db.VectorQuery{
		IndexName: embedding.IndexName,
		Field:     embedding.VectorField,
		Vector:    vector,
		Radius:    maxDistance,
		Filter:    db.TagFilter(embedding.OrgField, orgID),
		TopK:      topK,
	})
	if err != nil {
		return nil, fmt.Errorf("vector matches: %w", err)
	}

	matches := make([]domain.IndexMatch, 0, len(res.Entries))
	for _, e := range res.Entries {
		id, err := embedding.IDFromKey(e.Key)
		if err != nil {
			continue
		}
		matches = append(matches, domain.IndexMatch{TaskID: id, Score: e.Score})
	}
	return matches, nil
}
