package model

// Request is an incoming work request that can be turned into a project.
type Request struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Type        string   `json:"type"` // email / website / event / ...
	DueDate     string   `json:"dueDate,omitempty"`
	RequestedBy string   `json:"requestedBy,omitempty"`
	AssignedTo  string   `json:"assignedTo,omitempty"`
}
