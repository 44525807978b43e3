package model

import "time"

type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in-progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestonePending, MilestoneInProgress, MilestoneCompleted:
		return true
	}
	return false
}

type UpdateType string

const (
	UpdateGeneral      UpdateType = "update"
	UpdateMilestone    UpdateType = "milestone"
	UpdateIssue        UpdateType = "issue"
	UpdateAchievement  UpdateType = "achievement"
	UpdateStatusChange UpdateType = "status_change"
	UpdateCreated      UpdateType = "created"
)

// Valid reports whether t may be supplied by a caller. "created" is written
// only by the store itself.
func (t UpdateType) Valid() bool {
	switch t {
	case UpdateGeneral, UpdateMilestone, UpdateIssue, UpdateAchievement, UpdateStatusChange:
		return true
	}
	return false
}

type Milestone struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	DueDate       string          `json:"dueDate"`
	Status        MilestoneStatus `json:"status"`
	CompletedDate *time.Time      `json:"completedDate"`
}

type MilestoneInput struct {
	Name    string          `json:"name"`
	DueDate string          `json:"dueDate"`
	Status  MilestoneStatus `json:"status,omitempty"`
}

type MilestonePatch struct {
	Name    *string          `json:"name,omitempty"`
	DueDate *string          `json:"dueDate,omitempty"`
	Status  *MilestoneStatus `json:"status,omitempty"`
}

// Update is an append-only log entry on a tracking record.
type Update struct {
	Timestamp time.Time  `json:"timestamp"`
	User      string     `json:"user"`
	Type      UpdateType `json:"type"`
	Message   string     `json:"message"`
}

type UpdateInput struct {
	Message string     `json:"message"`
	Type    UpdateType `json:"type,omitempty"`
	User    string     `json:"user,omitempty"`
}

type Budget struct {
	Allocated float64 `json:"allocated"`
	Spent     float64 `json:"spent"`
	Currency  string  `json:"currency"`
}

type Metrics struct {
	ExpectedROI *float64 `json:"expectedROI"`
	ActualROI   *float64 `json:"actualROI"`
}

// Tracking is the progress payload owned one-to-one by a project.
type Tracking struct {
	ProjectID     ID            `json:"projectId"`
	ProjectName   string        `json:"projectName"`
	Status        ProjectStatus `json:"status"`
	Priority      Priority      `json:"priority"`
	StartDate     string        `json:"startDate"`
	TargetDate    string        `json:"targetDate,omitempty"`
	ActualEndDate *string       `json:"actualEndDate"`
	Progress      int           `json:"progress"`
	Owner         string        `json:"owner"`
	Team          []string      `json:"team"`
	Milestones    []Milestone   `json:"milestones"`
	Updates       []Update      `json:"updates"`
	LinkedAssets  []string      `json:"linkedAssets"`
	Budget        Budget        `json:"budget"`
	Metrics       Metrics       `json:"metrics"`
}

// Clone returns a deep copy of t.
func (t Tracking) Clone() Tracking {
	c := t
	if t.ActualEndDate != nil {
		v := *t.ActualEndDate
		c.ActualEndDate = &v
	}
	c.Team = append([]string(nil), t.Team...)
	c.LinkedAssets = append([]string(nil), t.LinkedAssets...)
	c.Updates = append([]Update(nil), t.Updates...)
	c.Milestones = make([]Milestone, len(t.Milestones))
	for i, m := range t.Milestones {
		m.CompletedDate = cloneTime(m.CompletedDate)
		c.Milestones[i] = m
	}
	c.Metrics.ExpectedROI = cloneFloat(t.Metrics.ExpectedROI)
	c.Metrics.ActualROI = cloneFloat(t.Metrics.ActualROI)
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
