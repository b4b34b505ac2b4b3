// Package domain holds the core task-search entities and contracts shared
// between layers.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the task workflow state.
type Status string

// Task statuses.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Priority is the task urgency level.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task is the indexed entity. The task-CRUD surface owns its lifecycle; the
// search subsystem reads it and reacts to its mutations.
type Task struct {
	ID             int64
	Name           string
	Description    string
	Status         Status
	Priority       Priority
	ProjectID      int64 // 0 = no project
	AssignedUserID int64 // 0 = unassigned
	OrgID          string
	DueDate        string // YYYY-MM-DD, empty = not set
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the invariants a task must satisfy before persisting.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: task name is required", ErrValidation)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, t.Priority)
	}
	if t.OrgID == "" {
		return fmt.Errorf("%w: org id is required", ErrValidation)
	}
	if t.DueDate != "" {
		if _, err := time.Parse("2006-01-02", t.DueDate); err != nil {
			return fmt.Errorf("%w: due date must be YYYY-MM-DD", ErrValidation)
		}
	}
	return nil
}

// ContentText is the exact text handed to the embedding provider: the task
// name followed by its description, mirroring what the text index tokenizes.
func (t *Task) ContentText() string {
	if t.Description == "" {
		return t.Name
	}
	return t.Name + " " + t.Description
}

// Identity is the authenticated caller resolved by the auth middleware.
type Identity struct {
	UserID   int64
	Username string
	OrgID    string
}

// Project is a task container; only its name is read for result enrichment.
type Project struct {
	ID    int64
	Name  string
	OrgID string
}

// User is referenced by task assignment; only the username is read for
// result enrichment.
type User struct {
	ID       int64
	Username string
	OrgID    string
}
