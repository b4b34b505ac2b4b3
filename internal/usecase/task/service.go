// Package task owns task mutations and drives the index triggering policy:
// create and content-changing updates enqueue a re-index, everything else
// leaves the embedding alone.
package task

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
	"github.com/taskmaster-cloud/tasksearch/internal/usecase/indexer"
)

const listLimit = 1000

// Service coordinates task mutations with the search index.
type Service struct {
	repo     Repository
	projects ProjectReader
	index    IndexTrigger
	remover  IndexRemover
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a task service.
func New(
	repo Repository,
	projects ProjectReader,
	index IndexTrigger,
	remover IndexRemover,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		projects: projects,
		index:    index,
		remover:  remover,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateInput carries the writable task fields.
type CreateInput struct {
	Name           string
	Description    string
	Status         domain.Status
	Priority       domain.Priority
	ProjectID      int64
	AssignedUserID int64
	DueDate        string
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name           *string
	Description    *string
	Status         *domain.Status
	Priority       *domain.Priority
	AssignedUserID *int64
	DueDate        *string
}

// Create validates and persists a new task, then schedules its indexing.
// The task write is never rolled back by an indexing failure.
func (s *Service) Create(ctx context.Context, ident domain.Identity, in CreateInput) (domain.Task, error) {
	now := s.now().UTC()
	t := domain.Task{
		Name:           in.Name,
		Description:    in.Description,
		Status:         in.Status,
		Priority:       in.Priority,
		ProjectID:      in.ProjectID,
		AssignedUserID: in.AssignedUserID,
		OrgID:          ident.OrgID,
		DueDate:        in.DueDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if t.Status == "" {
		t.Status = domain.StatusPending
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}

	if err := t.Validate(); err != nil {
		return domain.Task{}, err
	}
	if err := s.checkProject(ctx, ident, t.ProjectID); err != nil {
		return domain.Task{}, err
	}

	if err := s.repo.Create(ctx, &t); err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.index.Enqueue(t)
	return t, nil
}

// Update applies a partial update. Re-indexing is scheduled only when the
// name or description changed.
func (s *Service) Update(ctx context.Context, ident domain.Identity, id int64, in UpdateInput) (domain.Task, error) {
	old, err := s.load(ctx, ident, id)
	if err != nil {
		return domain.Task{}, err
	}

	updated := old
	if in.Name != nil {
		updated.Name = *in.Name
	}
	if in.Description != nil {
		updated.Description = *in.Description
	}
	if in.Status != nil {
		updated.Status = *in.Status
	}
	if in.Priority != nil {
		updated.Priority = *in.Priority
	}
	if in.AssignedUserID != nil {
		updated.AssignedUserID = *in.AssignedUserID
	}
	if in.DueDate != nil {
		updated.DueDate = *in.DueDate
	}
	updated.UpdatedAt = s.now().UTC()

	if err := updated.Validate(); err != nil {
		return domain.Task{}, err
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return domain.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}

	if indexer.NeedsReindex(old, updated) {
		s.index.Enqueue(updated)
	}
	return updated, nil
}

// Get returns a task visible to the caller.
func (s *Service) Get(ctx context.Context, ident domain.Identity, id int64) (domain.Task, error) {
	return s.load(ctx, ident, id)
}

// List returns the caller's organization tasks, most recent first.
func (s *Service) List(ctx context.Context, ident domain.Identity) ([]domain.Task, error) {
	tasks, err := s.repo.ListByOrg(ctx, ident.OrgID, listLimit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Delete removes a task and cascades its embedding removal so the semantic
// index holds no orphans. A failed cascade is logged, not surfaced: the
// task deletion has already committed.
func (s *Service) Delete(ctx context.Context, ident domain.Identity, id int64) error {
	if _, err := s.load(ctx, ident, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	if err := s.remover.Remove(ctx, id); err != nil {
		s.logger.Error("embedding cascade removal failed",
			zap.Int64("task_id", id),
			zap.Error(err),
		)
	}
	return nil
}

// load fetches a task and hides tasks of other organizations behind
// ErrTaskNotFound.
func (s *Service) load(ctx context.Context, ident domain.Identity, id int64) (domain.Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if t.OrgID != ident.OrgID {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, nil
}

func (s *Service) checkProject(ctx context.Context, ident domain.Identity, projectID int64) error {
	if projectID == 0 {
		return nil
	}
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if p.OrgID != ident.OrgID {
		return domain.ErrProjectNotFound
	}
	return nil
}
