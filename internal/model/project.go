package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used for start, end and due dates.
const DateLayout = "2006-01-02"

// ID identifies a project. Bundled snapshots may carry numeric ids, so
// both JSON strings and numbers decode into an ID.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("project id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp and returns
// the UTC calendar day it falls on.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// FormatDate renders t as a calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

type ProjectStatus string

const (
	StatusPipeline  ProjectStatus = "Pipeline"
	StatusOngoing   ProjectStatus = "Ongoing"
	StatusCompleted ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusPipeline, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Project struct {
	ID                   ID              `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Status               ProjectStatus   `json:"status"`
	Priority             Priority        `json:"priority"`
	Category             string          `json:"category"`
	AssignedTo           string          `json:"assignedTo"`
	StartDate            string          `json:"startDate"`
	EndDate              string          `json:"endDate,omitempty"`
	CompletionPercentage int             `json:"completionPercentage"`
	Tasks                json.RawMessage `json:"tasks,omitempty"`
	CreatedAt            *time.Time      `json:"createdAt,omitempty"`
	LastUpdated          *time.Time      `json:"lastUpdated,omitempty"`
	RequestID            string          `json:"requestId,omitempty"`
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	c := p
	if p.Tasks != nil {
		c.Tasks = append(json.RawMessage(nil), p.Tasks...)
	}
	c.CreatedAt = cloneTime(p.CreatedAt)
	c.LastUpdated = cloneTime(p.LastUpdated)
	return c
}

// ProjectInput describes a project to create. Zero values take defaults.
type ProjectInput struct {
	ID                   string        `json:"id,omitempty"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	Status               ProjectStatus `json:"status,omitempty"`
	Priority             Priority      `json:"priority,omitempty"`
	Category             string        `json:"category,omitempty"`
	AssignedTo           string        `json:"assignedTo,omitempty"`
	StartDate            string        `json:"startDate,omitempty"`
	EndDate              string        `json:"endDate,omitempty"`
	CompletionPercentage *int          `json:"completionPercentage,omitempty"`
	RequestID            string        `json:"requestId,omitempty"`
	RequestedBy          string        `json:"requestedBy,omitempty"`
}

// ProjectPatch carries a partial update; nil fields are left untouched.
// Completion is absent: it is derived from milestone state.
type ProjectPatch struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Priority    *Priority      `json:"priority,omitempty"`
	Category    *string        `json:"category,omitempty"`
	AssignedTo  *string        `json:"assignedTo,omitempty"`
	StartDate   *string        `json:"startDate,omitempty"`
	EndDate     *string        `json:"endDate,omitempty"`
	RequestID   *string        `json:"requestId,omitempty"`
}

// Apply merges the non-nil fields of patch into p.
func (patch ProjectPatch) Apply(p *Project) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Priority != nil {
		p.Priority = *patch.Priority
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.AssignedTo != nil {
		p.AssignedTo = *patch.AssignedTo
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = *patch.EndDate
	}
	if patch.RequestID != nil {
		p.RequestID = *patch.RequestID
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
