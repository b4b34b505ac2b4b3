package assistant

import (
	"context"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// TaskSearcher retrieves the tasks most relevant to a message.
type TaskSearcher interface {
	Search(ctx context.Context, ident domain.Identity, query string, limit int) ([]domain.SearchResult, error)
}

// Completer generates the assistant reply from an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
