package mq

const RoutingRequestApproved = "request.approved"

// RequestApprovedPayload is emitted by the request intake once a marketing
// request is approved for work.
type RequestApprovedPayload struct {
	RequestID   string `json:"request_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Type        string `json:"type"`
	DueDate     string `json:"due_date,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
	AssignedTo  string `json:"assigned_to,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`
}
