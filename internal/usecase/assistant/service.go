// Package assistant grounds chat replies in the caller's task data: every
// message is first run through hybrid search and the hits are rendered into
// the prompt before the model is asked.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// historyLimit bounds how many prior conversation turns reach the prompt.
const historyLimit = 5

const systemPreamble = `You are a helpful task management assistant. Use the following context about existing tasks to help answer the user's question:
You have all the necessary details and ways to get them.
If you don't know the answer, say "I don't know" or ask the user for more details.`

// Service answers chat messages using retrieved task context.
type Service struct {
	search   TaskSearcher
	complete Completer
	logger   *zap.Logger
}

// New creates an assistant service.
func New(search TaskSearcher, complete Completer, logger *zap.Logger) *Service {
	return &Service{search: search, complete: complete, logger: logger}
}

// Reply retrieves tasks relevant to the message, assembles the grounded
// prompt and asks the completion provider for an answer.
func (s *Service) Reply(ctx context.Context, ident domain.Identity, message string, history []domain.ChatMessage) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrEmptyQuery
	}

	results, err := s.search.Search(ctx, ident, message, 0)
	if err != nil {
		return "", fmt.Errorf("retrieve task context: %w", err)
	}

	prompt := BuildPrompt(ident, message, results, history)

	reply, err := s.complete.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	s.logger.Debug("assistant reply generated",
		zap.Int("context_tasks", len(results)),
		zap.Int("history_turns", min(len(history), historyLimit)),
	)
	return reply, nil
}

// BuildPrompt assembles the full model prompt: instructions, task context,
// the trailing window of conversation history and the new message.
func BuildPrompt(ident domain.Identity, message string, results []domain.SearchResult, history []domain.ChatMessage) string {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	b.WriteString(BuildContext(ident, results))
	b.WriteString("\n\nPrevious conversation:\n")
	for _, msg := range history {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Content)
	}
	fmt.Fprintf(&b, "\nUser: %s\nAssistant:", message)
	return b.String()
}
