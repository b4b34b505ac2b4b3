package task

import (
	"strconv"
	"time"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

// buildHashFields flattens a task into the hash stored at Key(id).
// The content field concatenates name and description for the TEXT index,
// mirroring what gets embedded.
func buildHashFields(t *domain.Task) map[string]string {
	return map[string]string{
		"name":        t.Name,
		"description": t.Description,
		"content":     t.ContentText(),
		"status":      string(t.Status),
		"priority":    string(t.Priority),
		"project_id":  strconv.FormatInt(t.ProjectID, 10),
		"assignee_id": strconv.FormatInt(t.AssignedUserID, 10),
		"org":         t.OrgID,
		"due_date":    t.DueDate,
		"created":     strconv.FormatInt(t.CreatedAt.Unix(), 10),
		"updated":     strconv.FormatInt(t.UpdatedAt.Unix(), 10),
	}
}

// parseHashFields rebuilds a task from its hash representation.
func parseHashFields(id int64, m map[string]string) domain.Task {
	t := domain.Task{
		ID:          id,
		Name:        m["name"],
		Description: m["description"],
		Status:      domain.Status(m["status"]),
		Priority:    domain.Priority(m["priority"]),
		OrgID:       m["org"],
		DueDate:     m["due_date"],
	}
	t.ProjectID, _ = strconv.ParseInt(m["project_id"], 10, 64)
	t.AssignedUserID, _ = strconv.ParseInt(m["assignee_id"], 10, 64)
	if sec, err := strconv.ParseInt(m["created"], 10, 64); err == nil {
		t.CreatedAt = time.Unix(sec, 0).UTC()
	}
	if sec, err := strconv.ParseInt(m["updated"], 10, 64); err == nil {
		t.UpdatedAt = time.Unix(sec, 0).UTC()
	}
	return t
}
