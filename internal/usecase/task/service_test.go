package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	byID      map[int64]domain.Task
	nextID    int64
	created   []domain.Task
	updated   []domain.Task
	deleted   []int64
	createErr error
	updateErr error
	deleteErr error
}

func newMockRepo(tasks ...domain.Task) *mockRepo {
	m := &mockRepo{byID: make(map[int64]domain.Task), nextID: 100}
	for _, t := range tasks {
		m.byID[t.ID] = t
	}
	return m
}

func (m *mockRepo) Create(_ context.Context, t *domain.Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	t.ID = m.nextID
	m.byID[t.ID] = *t
	m.created = append(m.created, *t)
	return nil
}

func (m *mockRepo) Update(_ context.Context, t *domain.Task) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.byID[t.ID] = *t
	m.updated = append(m.updated, *t)
	return nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (domain.Task, error) {
	t, ok := m.byID[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, nil
}

func (m *mockRepo) ListByOrg(_ context.Context, orgID string, _ int) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range m.byID {
		if t.OrgID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
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

type mockTrigger struct {
	enqueued []domain.Task
}

func (m *mockTrigger) Enqueue(t domain.Task) { m.enqueued = append(m.enqueued, t) }

type mockRemover struct {
	removed []int64
	err     error
}

func (m *mockRemover) Remove(_ context.Context, taskID int64) error {
	if m.err != nil {
		return m.err
	}
	m.removed = append(m.removed, taskID)
	return nil
}

// --- Helpers ---

var ident = domain.Identity{UserID: 1, Username: "alice", OrgID: "org-1"}

type fixture struct {
	repo    *mockRepo
	trigger *mockTrigger
	remover *mockRemover
	svc     *Service
}

func newFixture(tasks ...domain.Task) *fixture {
	f := &fixture{
		repo:    newMockRepo(tasks...),
		trigger: &mockTrigger{},
		remover: &mockRemover{},
	}
	projects := &mockProjects{byID: map[int64]domain.Project{
		10: {ID: 10, Name: "Platform", OrgID: ident.OrgID},
		66: {ID: 66, Name: "Foreign", OrgID: "org-2"},
	}}
	f.svc = New(f.repo, projects, f.trigger, f.remover, zap.NewNop())
	return f
}

func existing() domain.Task {
	return domain.Task{
		ID:          42,
		Name:        "Deploy service",
		Description: "to staging",
		Status:      domain.StatusPending,
		Priority:    domain.PriorityMedium,
		OrgID:       ident.OrgID,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- Tests ---

func TestCreate_DefaultsAndEnqueue(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), ident, CreateInput{Name: "Write docs"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.ID == 0 {
		t.Error("id not assigned")
	}
	if created.Status != domain.StatusPending || created.Priority != domain.PriorityMedium {
		t.Errorf("defaults not applied: %s/%s", created.Status, created.Priority)
	}
	if created.OrgID != ident.OrgID {
		t.Errorf("org = %q, want %q", created.OrgID, ident.OrgID)
	}
	if created.CreatedAt.IsZero() || !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Error("timestamps not initialized")
	}

	if len(f.trigger.enqueued) != 1 || f.trigger.enqueued[0].ID != created.ID {
		t.Fatalf("expected one enqueue for the new task, got %+v", f.trigger.enqueued)
	}
}

func TestCreate_InvalidStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), ident, CreateInput{
		Name:   "x",
		Status: domain.Status("bogus"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(f.trigger.enqueued) != 0 {
		t.Error("nothing should be enqueued on validation failure")
	}
}

func TestCreate_ForeignProjectRejected(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), ident, CreateInput{Name: "x", ProjectID: 66})
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound for foreign project, got %v", err)
	}

	if _, err := f.svc.Create(context.Background(), ident, CreateInput{Name: "x", ProjectID: 10}); err != nil {
		t.Fatalf("own-org project should be accepted: %v", err)
	}
}

func TestUpdate_ContentChangeTriggersReindex(t *testing.T) {
	f := newFixture(existing())

	name := "Deploy service v2"
	updated, err := f.svc.Update(context.Background(), ident, 42, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Name != name {
		t.Errorf("name = %q", updated.Name)
	}
	if updated.Description != "to staging" {
		t.Errorf("untouched field changed: %q", updated.Description)
	}
	if len(f.trigger.enqueued) != 1 {
		t.Fatalf("expected reindex enqueue, got %d", len(f.trigger.enqueued))
	}
	if f.trigger.enqueued[0].Name != name {
		t.Error("enqueued task must carry the updated content")
	}
}

func TestUpdate_StatusChangeSkipsReindex(t *testing.T) {
	f := newFixture(existing())

	status := domain.StatusCompleted
	updated, err := f.svc.Update(context.Background(), ident, 42, UpdateInput{Status: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Status != domain.StatusCompleted {
		t.Errorf("status = %q", updated.Status)
	}
	if len(f.trigger.enqueued) != 0 {
		t.Error("status-only update must not touch the embedding provider")
	}
	if len(f.repo.updated) != 1 {
		t.Error("repo update expected")
	}
}

func TestUpdate_OtherOrgHidden(t *testing.T) {
	foreign := existing()
	foreign.OrgID = "org-2"
	f := newFixture(foreign)

	name := "hijack"
	_, err := f.svc.Update(context.Background(), ident, 42, UpdateInput{Name: &name})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("foreign task must look nonexistent, got %v", err)
	}
}

func TestGet_OtherOrgHidden(t *testing.T) {
	foreign := existing()
	foreign.OrgID = "org-2"
	f := newFixture(foreign)

	if _, err := f.svc.Get(context.Background(), ident, 42); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestDelete_CascadesEmbedding(t *testing.T) {
	f := newFixture(existing())

	if err := f.svc.Delete(context.Background(), ident, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.repo.deleted) != 1 || f.repo.deleted[0] != 42 {
		t.Fatalf("task not deleted: %+v", f.repo.deleted)
	}
	if len(f.remover.removed) != 1 || f.remover.removed[0] != 42 {
		t.Fatalf("embedding not cascaded: %+v", f.remover.removed)
	}
}

func TestDelete_CascadeFailureIsSwallowed(t *testing.T) {
	f := newFixture(existing())
	f.remover.err = errors.New("store down")

	if err := f.svc.Delete(context.Background(), ident, 42); err != nil {
		t.Fatalf("delete must succeed even when the cascade fails: %v", err)
	}
	if len(f.repo.deleted) != 1 {
		t.Error("task deletion expected")
	}
}

func TestDelete_MissingTask(t *testing.T) {
	f := newFixture()

	if err := f.svc.Delete(context.Background(), ident, 999); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}
