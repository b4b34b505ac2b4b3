// Package search implements the hybrid ranker: lexical and semantic
// candidate generation, weighted score fusion, and the fallback policy.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
	"github.com/taskmaster-cloud/tasksearch/internal/metrics"
)

// fallbackListLimit bounds the unranked fallback set.
const fallbackListLimit = 1000

// Service executes hybrid searches over the task corpus.
type Service struct {
	index      CandidateIndex
	tasks      TaskReader
	embeddings EmbeddingReader
	projects   ProjectReader
	users      UserReader
	embed      Embedder
	logger     *zap.Logger
}

// New creates a search service.
func New(
	index CandidateIndex,
	tasks TaskReader,
	embeddings EmbeddingReader,
	projects ProjectReader,
	users UserReader,
	embed Embedder,
	logger *zap.Logger,
) *Service {
	return &Service{
		index:      index,
		tasks:      tasks,
		embeddings: embeddings,
		projects:   projects,
		users:      users,
		embed:      embed,
		logger:     logger,
	}
}

// candidate accumulates per-task evidence from both indexes before fusion.
type candidate struct {
	textRank   float64
	similarity float64
	fromText   bool
	fromVector bool
}

// Search answers a natural-language query with a fused, ordered result set
// scoped to the caller's organization. limit <= 0 selects DefaultLimit.
//
// When neither index yields a candidate the caller gets the unranked set of
// all organization tasks instead of an empty list; an organization with no
// tasks gets an empty list, which is a valid terminal state.
func (s *Service) Search(
	ctx context.Context, ident domain.Identity, query string, limit int,
) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	embRes, err := s.embed.Embed(ctx, query)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	queryVec := embRes.Embedding

	// Both candidate queries are required; either failing fails the search.
	var textMatches, vectorMatches []domain.IndexMatch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		textMatches, err = s.index.TextMatches(gctx, ident.OrgID, query, candidateLimit)
		return err
	})
	g.Go(func() error {
		var err error
		vectorMatches, err = s.index.VectorMatches(
			gctx, ident.OrgID, queryVec, 1-SimilarityThreshold, candidateLimit,
		)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("candidate generation: %w", err)
	}

	candidates, order := mergeMatches(textMatches, vectorMatches)

	results, err := s.rank(ctx, queryVec, candidates, order)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SearchCandidates.Observe(float64(len(results)))

	if len(results) == 0 {
		return s.fallback(ctx, ident)
	}

	sortByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}

	metrics.SearchRequestsTotal.WithLabelValues("ranked").Inc()
	return results, nil
}

// mergeMatches unions both match lists into per-task candidates, keeping a
// deterministic first-seen order.
func mergeMatches(textMatches, vectorMatches []domain.IndexMatch) (map[int64]*candidate, []int64) {
	candidates := make(map[int64]*candidate, len(textMatches)+len(vectorMatches))
	order := make([]int64, 0, len(textMatches)+len(vectorMatches))

	for _, m := range textMatches {
		candidates[m.TaskID] = &candidate{textRank: m.Score, fromText: true}
		order = append(order, m.TaskID)
	}
	for _, m := range vectorMatches {
		if c, ok := candidates[m.TaskID]; ok {
			c.similarity = m.Score
			c.fromVector = true
			continue
		}
		candidates[m.TaskID] = &candidate{similarity: m.Score, fromVector: true}
		order = append(order, m.TaskID)
	}
	return candidates, order
}

// rank completes missing similarities from stored embeddings, applies the
// union qualification rule, fuses scores, and enriches the survivors.
// Fusion either completes for every candidate or the whole request fails.
func (s *Service) rank(
	ctx context.Context, queryVec []float32, candidates map[int64]*candidate, order []int64,
) ([]domain.SearchResult, error) {
	type enriched struct {
		c           *candidate
		contentText string
	}
	qualified := make(map[int64]enriched, len(candidates))
	ids := make([]int64, 0, len(candidates))

	for _, id := range order {
		c := candidates[id]

		emb, err := s.embeddings.Get(ctx, id)
		if errors.Is(err, domain.ErrEmbeddingNotFound) {
			// Only tasks with an indexed embedding can be candidates.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load embedding: %w", err)
		}

		if !c.fromVector {
			c.similarity = domain.CosineSimilarity(queryVec, emb.Vector)
		}
		if !c.fromText && c.similarity <= SimilarityThreshold {
			continue
		}

		qualified[id] = enriched{c: c, contentText: emb.ContentText}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	tasks, err := s.tasks.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate tasks: %w", err)
	}

	projectNames := make(map[int64]string)
	usernames := make(map[int64]string)

	results := make([]domain.SearchResult, 0, len(tasks))
	for _, t := range tasks {
		e := qualified[t.ID]
		r := domain.SearchResult{
			Task:          t,
			ContentText:   e.contentText,
			Ranked:        true,
			Similarity:    e.c.similarity,
			TextRank:      e.c.textRank,
			CombinedScore: Fuse(e.c.textRank, e.c.similarity),
		}
		if err := s.enrich(ctx, &r, projectNames, usernames); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// enrich resolves the project name and assignee username, caching lookups
// for the duration of one request.
func (s *Service) enrich(
	ctx context.Context, r *domain.SearchResult,
	projectNames map[int64]string, usernames map[int64]string,
) error {
	if pid := r.Task.ProjectID; pid > 0 {
		name, ok := projectNames[pid]
		if !ok {
			p, err := s.projects.Get(ctx, pid)
			switch {
			case errors.Is(err, domain.ErrProjectNotFound):
				// Dangling reference; the result just shows no project.
			case err != nil:
				return fmt.Errorf("load project %d: %w", pid, err)
			default:
				name = p.Name
			}
			projectNames[pid] = name
		}
		r.ProjectName = name
	}

	if uid := r.Task.AssignedUserID; uid > 0 {
		name, ok := usernames[uid]
		if !ok {
			u, err := s.users.Get(ctx, uid)
			switch {
			case errors.Is(err, domain.ErrUserNotFound):
			case err != nil:
				return fmt.Errorf("load user %d: %w", uid, err)
			default:
				name = u.Username
			}
			usernames[uid] = name
		}
		r.AssignedUsername = name
	}
	return nil
}

// fallback returns every organization task, most recent first, unranked.
func (s *Service) fallback(ctx context.Context, ident domain.Identity) ([]domain.SearchResult, error) {
	tasks, err := s.tasks.ListByOrg(ctx, ident.OrgID, fallbackListLimit)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fallback listing: %w", err)
	}

	if len(tasks) == 0 {
		metrics.SearchRequestsTotal.WithLabelValues("empty").Inc()
		return []domain.SearchResult{}, nil
	}

	projectNames := make(map[int64]string)
	usernames := make(map[int64]string)

	results := make([]domain.SearchResult, 0, len(tasks))
	for _, t := range tasks {
		r := domain.SearchResult{Task: t}
		if err := s.enrich(ctx, &r, projectNames, usernames); err != nil {
			metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		results = append(results, r)
	}

	s.logger.Debug("hybrid search fell back to organization listing",
		zap.String("org", ident.OrgID),
		zap.Int("tasks", len(results)),
	)
	metrics.SearchRequestsTotal.WithLabelValues("fallback").Inc()
	return results, nil
}
