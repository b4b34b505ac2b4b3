package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// --- Mocks ---

type mockSearcher struct {
	results []domain.SearchResult
	err     error
	queries []string
}

func (m *mockSearcher) Search(_ context.Context, _ domain.Identity, query string, _ int) ([]domain.SearchResult, error) {
	m.queries = append(m.queries, query)
	return m.results, m.err
}

type mockCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

// --- Tests ---

func TestReply_GroundsPromptInSearchResults(t *testing.T) {
	searcher := &mockSearcher{results: []domain.SearchResult{fullResult()}}
	completer := &mockCompleter{reply: "You have one deployment task."}
	svc := New(searcher, completer, zap.NewNop())

	reply, err := svc.Reply(context.Background(), testIdent, "what am I deploying?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "You have one deployment task." {
		t.Errorf("reply = %q", reply)
	}

	if len(searcher.queries) != 1 || searcher.queries[0] != "what am I deploying?" {
		t.Errorf("message must drive the search, got %v", searcher.queries)
	}
	if len(completer.prompts) != 1 {
		t.Fatalf("expected one completion call, got %d", len(completer.prompts))
	}

	prompt := completer.prompts[0]
	for _, want := range []string{
		"task management assistant",
		"Task: Deploy service",
		"Username: alice",
		"User: what am I deploying?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReply_EmptyMessage(t *testing.T) {
	svc := New(&mockSearcher{}, &mockCompleter{}, zap.NewNop())

	if _, err := svc.Reply(context.Background(), testIdent, "   ", nil); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestReply_SearchError(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("index down")}
	completer := &mockCompleter{}
	svc := New(searcher, completer, zap.NewNop())

	if _, err := svc.Reply(context.Background(), testIdent, "hello", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(completer.prompts) != 0 {
		t.Error("completion must not run when retrieval fails")
	}
}

func TestReply_CompleterError(t *testing.T) {
	searcher := &mockSearcher{}
	completer := &mockCompleter{err: domain.ErrChatProvider}
	svc := New(searcher, completer, zap.NewNop())

	if _, err := svc.Reply(context.Background(), testIdent, "hello", nil); !errors.Is(err, domain.ErrChatProvider) {
		t.Fatalf("expected ErrChatProvider, got %v", err)
	}
}

func TestReply_IncludesHistory(t *testing.T) {
	searcher := &mockSearcher{}
	completer := &mockCompleter{reply: "ok"}
	svc := New(searcher, completer, zap.NewNop())

	history := []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "earlier question"},
		{Role: domain.RoleAssistant, Content: "earlier answer"},
	}

	if _, err := svc.Reply(context.Background(), testIdent, "follow-up", history); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "user: earlier question") {
		t.Error("prompt missing user turn")
	}
	if !strings.Contains(prompt, "assistant: earlier answer") {
		t.Error("prompt missing assistant turn")
	}
}
