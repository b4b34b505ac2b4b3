package assistant

import (
	"fmt"
	"strings"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

const dateLayout = "2006-01-02"

// BuildContext renders the caller and the retrieved tasks into the grounding
// block injected into the model prompt. Missing references render as fixed
// placeholders so the model never sees empty fields.
func BuildContext(ident domain.Identity, results []domain.SearchResult) string {
	var b strings.Builder

	b.WriteString("Current User:\n")
	fmt.Fprintf(&b, "    ID: %d\n", ident.UserID)
	fmt.Fprintf(&b, "    Username: %s\n", ident.Username)
	b.WriteString("--------------------\n\n")
	b.WriteString("Related Tasks:")

	for _, r := range results {
		b.WriteString("\n")
		writeTaskBlock(&b, r)
	}
	return b.String()
}

func writeTaskBlock(b *strings.Builder, r domain.SearchResult) {
	fmt.Fprintf(b, "Task: %s\n", r.Task.Name)
	fmt.Fprintf(b, "Description: %s\n", orPlaceholder(r.Task.Description, "None"))
	fmt.Fprintf(b, "Status: %s\n", r.Task.Status)
	fmt.Fprintf(b, "Priority: %s\n", r.Task.Priority)
	fmt.Fprintf(b, "Project: %s\n", orPlaceholder(r.ProjectName, "No Project"))
	fmt.Fprintf(b, "Assigned to: %s\n", orPlaceholder(r.AssignedUsername, "Unassigned"))
	fmt.Fprintf(b, "Due Date: %s\n", orPlaceholder(r.Task.DueDate, "Not set"))
	fmt.Fprintf(b, "Created: %s\n", r.Task.CreatedAt.Format(dateLayout))
	fmt.Fprintf(b, "Updated: %s\n", r.Task.UpdatedAt.Format(dateLayout))
	if r.ContentText != "" {
		fmt.Fprintf(b, "Additional Context: %s\n", r.ContentText)
	}
	b.WriteString("-------------------")
}

func orPlaceholder(v, placeholder string) string {
	if v == "" {
		return placeholder
	}
	return v
}
