package task

import (
	"context"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// Repository is the task storage contract.
type Repository interface {
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	Get(ctx context.Context, id int64) (domain.Task, error)
	ListByOrg(ctx context.Context, orgID string, limit int) ([]domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

// ProjectReader verifies project references on create/update.
type ProjectReader interface {
	Get(ctx context.Context, id int64) (domain.Project, error)
}

// IndexTrigger schedules asynchronous (re)indexing of a task.
type IndexTrigger interface {
	Enqueue(t domain.Task)
}

// IndexRemover cascades embedding removal when a task is deleted.
type IndexRemover interface {
	Remove(ctx context.Context, taskID int64) error
}
