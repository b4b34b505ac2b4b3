package domain

import "errors"

var (
	// ErrEmptyQuery signals a missing or blank search query.
	ErrEmptyQuery = errors.New("search query is required")
	// ErrValidation signals invalid input on a mutation.
	ErrValidation = errors.New("validation failed")
	// ErrTaskNotFound signals a missing task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrProjectNotFound signals a missing project.
	ErrProjectNotFound = errors.New("project not found")
	// ErrUserNotFound signals a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmbeddingNotFound signals a task without an indexed embedding.
	ErrEmbeddingNotFound = errors.New("embedding not found")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrChatProvider signals a chat completion provider failure.
	ErrChatProvider = errors.New("chat provider error")
	// ErrForbidden signals an access attempt outside the caller's organization.
	ErrForbidden = errors.New("forbidden")
)
