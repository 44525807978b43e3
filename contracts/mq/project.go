package mq

// Routing keys published by the project tracker.
const (
	RoutingProjectCreated       = "project.created"
	RoutingProjectUpdated       = "project.updated"
	RoutingProjectStatusChanged = "project.status_changed"
	RoutingProjectDeleted       = "project.deleted"
	RoutingMilestoneCompleted   = "milestone.completed"
)

type ProjectCreatedPayload struct {
	ProjectID      string `json:"project_id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Priority       string `json:"priority"`
	Category       string `json:"category"`
	AssignedTo     string `json:"assigned_to"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	MilestoneCount int    `json:"milestone_count"`
	TraceID        string `json:"trace_id,omitempty"`
}

type ProjectUpdatedPayload struct {
	ProjectID string   `json:"project_id"`
	Fields    []string `json:"fields"`
	TraceID   string   `json:"trace_id,omitempty"`
}

type ProjectStatusChangedPayload struct {
	ProjectID string `json:"project_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	TraceID   string `json:"trace_id,omitempty"`
}

type ProjectDeletedPayload struct {
	ProjectID string `json:"project_id"`
	TraceID   string `json:"trace_id,omitempty"`
}

type MilestoneCompletedPayload struct {
	ProjectID   string `json:"project_id"`
	MilestoneID string `json:"milestone_id"`
	Name        string `json:"name"`
	Progress    int    `json:"progress"`
	TraceID     string `json:"trace_id,omitempty"`
}
