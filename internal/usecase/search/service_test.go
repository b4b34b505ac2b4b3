package search

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// --- Mocks ---

type mockIndex struct {
	text      []domain.IndexMatch
	textErr   error
	vector    []domain.IndexMatch
	vectorErr error
}

func (m *mockIndex) TextMatches(_ context.Context, _, _ string, _ int) ([]domain.IndexMatch, error) {
	return m.text, m.textErr
}

func (m *mockIndex) VectorMatches(_ context.Context, _ string, _ []float32, _ float64, _ int) ([]domain.IndexMatch, error) {
	return m.vector, m.vectorErr
}

type mockTasks struct {
	byID    map[int64]domain.Task
	org     []domain.Task
	listErr error
}

func (m *mockTasks) GetMany(_ context.Context, ids []int64) ([]domain.Task, error) {
	out := make([]domain.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := m.byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTasks) ListByOrg(_ context.Context, _ string, _ int) ([]domain.Task, error) {
	return m.org, m.listErr
}

type mockEmbeddings struct {
	byID map[int64]domain.TaskEmbedding
}

func (m *mockEmbeddings) Get(_ context.Context, taskID int64) (domain.TaskEmbedding, error) {
	if e, ok := m.byID[taskID]; ok {
		return e, nil
	}
	return domain.TaskEmbedding{}, domain.ErrEmbeddingNotFound
}

type mockProjects struct {
	byID map[int64]domain.Project
}

func (m *mockProjects) Get(_ context.Context, id int64) (domain.Project, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return domain.Project{}, domain.ErrProjectNotFound
}

type mockUsers struct {
	byID map[int64]domain.User
}

func (m *mockUsers) Get(_ context.Context, id int64) (domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

// --- Helpers ---

var ident = domain.Identity{UserID: 1, Username: "alice", OrgID: "org-1"}

func task(id int64) domain.Task {
	return domain.Task{
		ID:        id,
		Name:      "task",
		OrgID:     ident.OrgID,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, int(id), 0, time.UTC),
	}
}

func embedding(id int64, vec []float32) domain.TaskEmbedding {
	return domain.TaskEmbedding{TaskID: id, OrgID: ident.OrgID, Vector: vec, ContentText: "indexed content"}
}

func newTestService(idx *mockIndex, tasks *mockTasks, embs *mockEmbeddings) *Service {
	return New(
		idx,
		tasks,
		embs,
		&mockProjects{},
		&mockUsers{},
		&mockEmbedder{vec: []float32{1, 0}},
		zap.NewNop(),
	)
}

// --- Tests ---

func TestSearch_EmptyQuery(t *testing.T) {
	svc := newTestService(&mockIndex{}, &mockTasks{}, &mockEmbeddings{})

	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Search(context.Background(), ident, q, 0); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("query %q: expected ErrEmptyQuery, got %v", q, err)
		}
	}
}

func TestSearch_EmbedProviderError(t *testing.T) {
	svc := New(
		&mockIndex{}, &mockTasks{}, &mockEmbeddings{},
		&mockProjects{}, &mockUsers{},
		&mockEmbedder{err: domain.ErrEmbeddingProvider},
		zap.NewNop(),
	)

	_, err := svc.Search(context.Background(), ident, "deploy", 0)
	if !errors.Is(err, domain.ErrEmbeddingProvider) {
		t.Fatalf("expected ErrEmbeddingProvider, got %v", err)
	}
}

func TestSearch_CandidateQueryError(t *testing.T) {
	svc := newTestService(
		&mockIndex{vectorErr: errors.New("index gone")},
		&mockTasks{},
		&mockEmbeddings{},
	)

	if _, err := svc.Search(context.Background(), ident, "deploy", 0); err == nil {
		t.Fatal("expected candidate generation error")
	}
}

func TestSearch_UnionOfBothIndexes(t *testing.T) {
	// Task 1 matches lexically; its stored vector gives similarity 0.6.
	// Task 2 matches semantically at 0.8 with no lexical hit.
	idx := &mockIndex{
		text:   []domain.IndexMatch{{TaskID: 1, Score: 0.5}},
		vector: []domain.IndexMatch{{TaskID: 2, Score: 0.8}},
	}
	tasks := &mockTasks{byID: map[int64]domain.Task{1: task(1), 2: task(2)}}
	embs := &mockEmbeddings{byID: map[int64]domain.TaskEmbedding{
		1: embedding(1, []float32{0.6, 0.8}),
		2: embedding(2, []float32{0.8, 0.6}),
	}}

	svc := newTestService(idx, tasks, embs)
	results, err := svc.Search(context.Background(), ident, "deploy", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	// 0.3*0.5 + 0.7*0.6 = 0.57 beats 0.7*0.8 = 0.56.
	if results[0].Task.ID != 1 || results[1].Task.ID != 2 {
		t.Fatalf("wrong order: got %d, %d", results[0].Task.ID, results[1].Task.ID)
	}

	first := results[0]
	if !first.Ranked {
		t.Error("expected ranked result")
	}
	if math.Abs(first.CombinedScore-(0.3*0.5+0.7*0.6)) > 1e-6 {
		t.Errorf("combined score = %v, want %v", first.CombinedScore, 0.3*0.5+0.7*0.6)
	}
	if first.ContentText != "indexed content" {
		t.Errorf("content text = %q", first.ContentText)
	}

	second := results[1]
	if second.TextRank != 0 {
		t.Errorf("vector-only candidate text rank = %v, want 0", second.TextRank)
	}
	if math.Abs(second.Similarity-0.8) > 1e-6 {
		t.Errorf("similarity = %v, want 0.8", second.Similarity)
	}
}

func TestSearch_OverlapMergesScores(t *testing.T) {
	idx := &mockIndex{
		text:   []domain.IndexMatch{{TaskID: 1, Score: 0.4}},
		vector: []domain.IndexMatch{{TaskID: 1, Score: 0.9}},
	}
	tasks := &mockTasks{byID: map[int64]domain.Task{1: task(1)}}
	embs := &mockEmbeddings{byID: map[int64]domain.TaskEmbedding{
		1: embedding(1, []float32{1, 0}),
	}}

	svc := newTestService(idx, tasks, embs)
	results, err := svc.Search(context.Background(), ident, "deploy", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	if math.Abs(r.TextRank-0.4) > 1e-6 || math.Abs(r.Similarity-0.9) > 1e-6 {
		t.Errorf("scores = (%v, %v), want (0.4, 0.9)", r.TextRank, r.Similarity)
	}
	if math.Abs(r.CombinedScore-(0.3*0.4+0.7*0.9)) > 1e-6 {
		t.Errorf("combined = %v", r.CombinedScore)
	}
}

func TestSearch_VectorOnlyAtThresholdDropped(t *testing.T) {
	// Similarity exactly at the threshold does not qualify on its own; with
	// no survivors the search falls back to the organization listing.
	idx := &mockIndex{
		vector: []domain.IndexMatch{{TaskID: 1, Score: 0.7}},
	}
	tasks := &mockTasks{
		byID: map[int64]domain.Task{1: task(1)},
		org:  []domain.Task{task(3), task(2)},
	}
	embs := &mockEmbeddings{byID: map[int64]domain.TaskEmbedding{
		1: embedding(1, []float32{0.7, 0.71414284}),
	}}

	svc := newTestService(idx, tasks, embs)
	results, err := svc.Search(context.Background(), ident, "deploy", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 fallback results, got %d", len(results))
	}
	for _, r := range results {
		if r.Ranked {
			t.Error("fallback results must be unranked")
		}
	}
	if results[0].Task.ID != 3 || results[1].Task.ID != 2 {
		t.Errorf("fallback order changed: %d, %d", results[0].Task.ID, results[1].Task.ID)
	}
}

func TestSearch_CandidateWithoutEmbeddingDropped(t *testing.T) {
	idx := &mockIndex{
		text: []domain.IndexMatch{{TaskID: 1, Score: 0.9}},
	}
	tasks := &mockTasks{
		byID: map[int64]domain.Task{1: task(1)},
		org:  []domain.Task{task(1)},
	}
	embs := &mockEmbeddings{} // no embedding stored for task 1

	svc := newTestService(idx, tasks, embs)
	results, err := svc.Search(context.Background(), ident, "deploy", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Ranked {
		t.Fatalf("expected unranked fallback result, got %+v", results)
	}
}

func TestSearch_FallbackEmptyOrg(t *testing.T) {
	svc := newTestService(&mockIndex{}, &mockTasks{}, &mockEmbeddings{})

	results, err := svc.Search(context.Background(), ident, "anything", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	var text []domain.IndexMatch
	taskMap := make(map[int64]domain.Task)
	embMap := make(map[int64]domain.TaskEmbedding)
	for id := int64(1); id <= 8; id++ {
		text = append(text, domain.IndexMatch{TaskID: id, Score: float64(id) / 10})
		taskMap[id] = task(id)
		embMap[id] = embedding(id, []float32{1, 0})
	}

	svc := newTestService(
		&mockIndex{text: text},
		&mockTasks{byID: taskMap},
		&mockEmbeddings{byID: embMap},
	)

	results, err := svc.Search(context.Background(), ident, "deploy", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != DefaultLimit {
		t.Fatalf("expected %d results, got %d", DefaultLimit, len(results))
	}
	// Highest lexical rank wins when similarity is constant.
	if results[0].Task.ID != 8 {
		t.Errorf("expected task 8 first, got %d", results[0].Task.ID)
	}
}

func TestSearch_ExplicitLimit(t *testing.T) {
	idx := &mockIndex{
		text: []domain.IndexMatch{
			{TaskID: 1, Score: 0.9},
			{TaskID: 2, Score: 0.5},
		},
	}
	tasks := &mockTasks{byID: map[int64]domain.Task{1: task(1), 2: task(2)}}
	embs := &mockEmbeddings{byID: map[int64]domain.TaskEmbedding{
		1: embedding(1, []float32{1, 0}),
		2: embedding(2, []float32{1, 0}),
	}}

	svc := newTestService(idx, tasks, embs)
	results, err := svc.Search(context.Background(), ident, "deploy", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Task.ID != 1 {
		t.Fatalf("expected only task 1, got %+v", results)
	}
}

func TestSearch_EnrichesProjectAndAssignee(t *testing.T) {
	withRefs := task(1)
	withRefs.ProjectID = 10
	withRefs.AssignedUserID = 20
	dangling := task(2)
	dangling.ProjectID = 99 // no such project

	idx := &mockIndex{
		text: []domain.IndexMatch{
			{TaskID: 1, Score: 0.9},
			{TaskID: 2, Score: 0.5},
		},
	}
	tasks := &mockTasks{byID: map[int64]domain.Task{1: withRefs, 2: dangling}}
	embs := &mockEmbeddings{byID: map[int64]domain.TaskEmbedding{
		1: embedding(1, []float32{1, 0}),
		2: embedding(2, []float32{1, 0}),
	}}

	svc := New(
		idx, tasks, embs,
		&mockProjects{byID: map[int64]domain.Project{10: {ID: 10, Name: "Platform", OrgID: ident.OrgID}}},
		&mockUsers{byID: map[int64]domain.User{20: {ID: 20, Username: "bob", OrgID: ident.OrgID}}},
		&mockEmbedder{vec: []float32{1, 0}},
		zap.NewNop(),
	)

	results, err := svc.Search(context.Background(), ident, "deploy", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].ProjectName != "Platform" {
		t.Errorf("project name = %q, want Platform", results[0].ProjectName)
	}
	if results[0].AssignedUsername != "bob" {
		t.Errorf("assignee = %q, want bob", results[0].AssignedUsername)
	}
	if results[1].ProjectName != "" {
		t.Errorf("dangling project should stay empty, got %q", results[1].ProjectName)
	}
}
