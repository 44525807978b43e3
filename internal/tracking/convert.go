package tracking

import (
	"context"
	"strings"
	"time"

	"hmadashboard/internal/model"
)

// CategoryForRequestType maps a request type onto a project category.
func CategoryForRequestType(requestType string) string {
	switch strings.ToLower(strings.TrimSpace(requestType)) {
	case "email":
		return "Marketing"
	case "website":
		return "Development"
	case "event":
		return "Events"
	default:
		return "General"
	}
}

// normalizePriority accepts priorities in any letter case ("high" -> "High").
// Unknown values are passed through so validation can reject them.
func normalizePriority(p model.Priority) model.Priority {
	for _, known := range []model.Priority{model.PriorityLow, model.PriorityMedium, model.PriorityHigh} {
		if strings.EqualFold(string(p), string(known)) {
			return known
		}
	}
	return p
}

// RequestToInput maps a request onto a project creation input starting today.
// Unassigned requests go to the request desk owner.
func RequestToInput(req model.Request, today time.Time) model.ProjectInput {
	assignee := strings.TrimSpace(req.AssignedTo)
	if assignee == "" {
		assignee = requestAssignee
	}
	return model.ProjectInput{
		Name:        req.Title,
		Description: req.Description,
		Priority:    normalizePriority(req.Priority),
		Category:    CategoryForRequestType(req.Type),
		AssignedTo:  assignee,
		StartDate:   model.FormatDate(today),
		EndDate:     req.DueDate,
		RequestID:   req.ID,
		RequestedBy: req.RequestedBy,
	}
}

// ConvertRequest turns an approved request into a project.
func (s *Store) ConvertRequest(ctx context.Context, req model.Request) (*model.Project, error) {
	return s.Create(ctx, RequestToInput(req, s.now()))
}
