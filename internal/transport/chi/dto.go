package chi

import (
	"fmt"
	"strings"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
	taskuc "github.com/taskmaster-cloud/tasksearch/internal/usecase/task"
)

// ErrorCode identifies an API error category.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeUnauthorized     ErrorCode = "unauthorized"
	CodeForbidden        ErrorCode = "forbidden"
	CodeNotFound         ErrorCode = "not_found"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
	ProjectID      int64  `json:"project_id,omitempty"`
	AssignedUserID int64  `json:"assigned_user_id,omitempty"`
	DueDate        string `json:"due_date,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// SearchResultResponse is a task enriched with search metadata. Score
// fields are omitted for fallback results, which carry no ranking.
type SearchResultResponse struct {
	TaskResponse
	ProjectName      string   `json:"project_name,omitempty"`
	AssignedUsername string   `json:"assigned_username,omitempty"`
	ContentText      string   `json:"content_text,omitempty"`
	Similarity       *float64 `json:"similarity,omitempty"`
	TextRank         *float64 `json:"text_rank,omitempty"`
	CombinedScore    *float64 `json:"combined_score,omitempty"`
}

// TaskRequest carries the writable task fields for create and update.
type TaskRequest struct {
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Status         *string `json:"status"`
	Priority       *string `json:"priority"`
	ProjectID      *int64  `json:"project_id"`
	AssignedUserID *int64  `json:"assigned_user_id"`
	DueDate        *string `json:"due_date"`
}

// ChatRequest is the assistant endpoint body.
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// ChatMessage is a single prior conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse carries the generated reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// ProjectRequest creates a project.
type ProjectRequest struct {
	Name string `json:"name"`
}

// ProjectResponse is the wire form of a project.
type ProjectResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UserRequest creates a user.
type UserRequest struct {
	Username string `json:"username"`
}

// UserResponse is the wire form of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

const wireTimeLayout = "2006-01-02T15:04:05Z07:00"

func taskToResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		ProjectID:      t.ProjectID,
		AssignedUserID: t.AssignedUserID,
		DueDate:        t.DueDate,
		CreatedAt:      t.CreatedAt.UTC().Format(wireTimeLayout),
		UpdatedAt:      t.UpdatedAt.UTC().Format(wireTimeLayout),
	}
}

func searchResultToResponse(r domain.SearchResult) SearchResultResponse {
	resp := SearchResultResponse{
		TaskResponse:     taskToResponse(r.Task),
		ProjectName:      r.ProjectName,
		AssignedUsername: r.AssignedUsername,
		ContentText:      r.ContentText,
	}
	if r.Ranked {
		sim, rank, combined := r.Similarity, r.TextRank, r.CombinedScore
		resp.Similarity = &sim
		resp.TextRank = &rank
		resp.CombinedScore = &combined
	}
	return resp
}

func createInputFromRequest(req TaskRequest) (taskuc.CreateInput, error) {
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return taskuc.CreateInput{}, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	in := taskuc.CreateInput{Name: strings.TrimSpace(*req.Name)}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Status != nil {
		in.Status = domain.Status(*req.Status)
	}
	if req.Priority != nil {
		in.Priority = domain.Priority(*req.Priority)
	}
	if req.ProjectID != nil {
		in.ProjectID = *req.ProjectID
	}
	if req.AssignedUserID != nil {
		in.AssignedUserID = *req.AssignedUserID
	}
	if req.DueDate != nil {
		in.DueDate = *req.DueDate
	}
	return in, nil
}

func updateInputFromRequest(req TaskRequest) taskuc.UpdateInput {
	in := taskuc.UpdateInput{
		Name:           req.Name,
		Description:    req.Description,
		AssignedUserID: req.AssignedUserID,
		DueDate:        req.DueDate,
	}
	if req.Status != nil {
		s := domain.Status(*req.Status)
		in.Status = &s
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		in.Priority = &p
	}
	return in
}

func historyFromRequest(msgs []ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, domain.ChatMessage{
			Role:    domain.ChatRole(m.Role),
			Content: m.Content,
		})
	}
	return out
}
