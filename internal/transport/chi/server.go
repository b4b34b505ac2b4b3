// Package chi exposes the task search API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
	assistantuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/assistant"
	healthuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/health"
	searchuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/search"
	taskuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/task"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// ProjectCreator persists new projects.
type ProjectCreator interface {
	Create(ctx context.Context, p *domain.Project) error
}

// UserCreator persists new users.
type UserCreator interface {
	Create(ctx context.Context, u *domain.User) error
}

// Server holds the HTTP handlers for the task search API.
type Server struct {
	tasks         *taskuc.Service
	search        *searchuc.Service
	assistant     *assistantuc.Service
	health        *healthuc.Service
	projects      ProjectCreator
	users         UserCreator
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	tasks *taskuc.Service,
	search *searchuc.Service,
	assistant *assistantuc.Service,
	health *healthuc.Service,
	projects ProjectCreator,
	users UserCreator,
	logger *zap.Logger,
) *Server {
	s := &Server{
		tasks:     tasks,
		search:    search,
		assistant: assistant,
		health:    health,
		projects:  projects,
		users:     users,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrTaskNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrProjectNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrUserNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, CodeForbidden),
	}
	return s
}

// Mount registers all routes on the router.
func (s *Server) Mount(r chirouter.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/search/tasks", s.SearchTasks)
	r.Post("/chat", s.Chat)

	r.Route("/tasks", func(r chirouter.Router) {
		r.Post("/", s.CreateTask)
		r.Get("/", s.ListTasks)
		r.Get("/{id}", s.GetTask)
		r.Patch("/{id}", s.UpdateTask)
		r.Delete("/{id}", s.DeleteTask)
	})

	r.Post("/projects", s.CreateProject)
	r.Post("/users", s.CreateUser)
}

// SearchTasks handles GET /search/tasks.
func (s *Server) SearchTasks(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("query")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := s.search.Search(r.Context(), ident, query, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultResponse, len(results))
	for i, res := range results {
		items[i] = searchResultToResponse(res)
	}
	writeJSON(w, http.StatusOK, items)
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := s.assistant.Reply(r.Context(), ident, req.Message, historyFromRequest(req.History))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: reply})
}

// CreateTask handles POST /tasks.
func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	in, err := createInputFromRequest(req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	t, err := s.tasks.Create(r.Context(), ident, in)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, taskToResponse(t))
}

// ListTasks handles GET /tasks.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	tasks, err := s.tasks.List(r.Context(), ident)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		items[i] = taskToResponse(t)
	}
	writeJSON(w, http.StatusOK, items)
}

// GetTask handles GET /tasks/{id}.
func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	t, err := s.tasks.Get(r.Context(), ident, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, taskToResponse(t))
}

// UpdateTask handles PUT /tasks/{id}.
func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	t, err := s.tasks.Update(r.Context(), ident, id, updateInputFromRequest(req))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, taskToResponse(t))
}

// DeleteTask handles DELETE /tasks/{id}.
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := s.tasks.Delete(r.Context(), ident, id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateProject handles POST /projects.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Project name is required")
		return
	}

	p := domain.Project{Name: req.Name, OrgID: ident.OrgID}
	if err := s.projects.Create(r.Context(), &p); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ProjectResponse{ID: p.ID, Name: p.Name})
}

// CreateUser handles POST /users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	ident, ok := identity(w, r)
	if !ok {
		return
	}

	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "Username is required")
		return
	}

	u := domain.User{Username: req.Username, OrgID: ident.OrgID}
	if err := s.users.Create(r.Context(), &u); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{ID: u.ID, Username: u.Username})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// taskID parses the {id} route parameter.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chirouter.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "task id must be a positive integer")
		return 0, false
	}
	return id, true
}

// identity pulls the authenticated caller from the request context. Routes
// reaching here without auth running first are a wiring bug.
func identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	ident, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		return domain.Identity{}, false
	}
	return ident, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals. Provider failures deliberately fall through to the
// generic message.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrValidation,
		domain.ErrTaskNotFound,
		domain.ErrProjectNotFound,
		domain.ErrUserNotFound,
		domain.ErrForbidden,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
