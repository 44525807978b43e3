package tracking

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"hmadashboard/internal/model"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
	maxUpdateLength      = 1000
)

var markupStripper = strings.NewReplacer("<", "", ">", "")

// sanitizeString trims s and strips angle brackets.
func sanitizeString(s string) string {
	return markupStripper.Replace(strings.TrimSpace(s))
}

func sanitizeProject(in model.ProjectInput) model.ProjectInput {
	in.Name = sanitizeString(in.Name)
	in.Description = sanitizeString(in.Description)
	in.Category = sanitizeString(in.Category)
	in.AssignedTo = sanitizeString(in.AssignedTo)
	in.ID = strings.TrimSpace(in.ID)
	in.StartDate = strings.TrimSpace(in.StartDate)
	in.EndDate = strings.TrimSpace(in.EndDate)
	return in
}

func sanitizePatch(p model.ProjectPatch) model.ProjectPatch {
	sanitize := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := sanitizeString(*s)
		return &v
	}
	p.Name = sanitize(p.Name)
	p.Description = sanitize(p.Description)
	p.Category = sanitize(p.Category)
	p.AssignedTo = sanitize(p.AssignedTo)
	return p
}

func sanitizeMilestone(in model.MilestoneInput) model.MilestoneInput {
	in.Name = sanitizeString(in.Name)
	in.DueDate = strings.TrimSpace(in.DueDate)
	return in
}

func checkName(errs fieldErrors, field, label, value string, max int) {
	switch {
	case strings.TrimSpace(value) == "":
		errs[field] = label + " is required"
	case utf8.RuneCountInString(value) > max:
		errs[field] = label + " must be less than " + strconv.Itoa(max) + " characters"
	}
}

func checkDateOrder(errs fieldErrors, start, end string) {
	var startT, endT time.Time
	var err error
	if start != "" {
		if startT, err = model.ParseDate(start); err != nil {
			errs["startDate"] = "Invalid start date"
		}
	}
	if end != "" {
		if endT, err = model.ParseDate(end); err != nil {
			errs["endDate"] = "Invalid end date"
		}
	}
	if _, bad := errs["startDate"]; bad || start == "" || end == "" {
		return
	}
	if _, bad := errs["endDate"]; bad {
		return
	}
	if endT.Before(startT) {
		errs["endDate"] = "End date must be after start date"
	}
}

// ValidateProject checks a creation input.
func ValidateProject(in model.ProjectInput) error {
	errs := fieldErrors{}

	checkName(errs, "name", "Project name", in.Name, maxNameLength)
	checkName(errs, "description", "Project description", in.Description, maxDescriptionLength)

	if in.Status != "" && !in.Status.Valid() {
		errs["status"] = "Invalid project status"
	}
	if in.Priority != "" && !in.Priority.Valid() {
		errs["priority"] = "Invalid project priority"
	}

	checkDateOrder(errs, in.StartDate, in.EndDate)

	if in.CompletionPercentage != nil {
		if v := *in.CompletionPercentage; v < 0 || v > 100 {
			errs["completionPercentage"] = "Progress must be between 0 and 100"
		}
	}

	return errs.err()
}

// validatePatch checks only the fields a partial update touches; date order
// is checked against the merged result.
func validatePatch(patch model.ProjectPatch, merged model.Project) error {
	errs := fieldErrors{}

	if patch.Name != nil {
		checkName(errs, "name", "Project name", *patch.Name, maxNameLength)
	}
	if patch.Description != nil {
		checkName(errs, "description", "Project description", *patch.Description, maxDescriptionLength)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		errs["status"] = "Invalid project status"
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		errs["priority"] = "Invalid project priority"
	}
	if patch.StartDate != nil || patch.EndDate != nil {
		checkDateOrder(errs, merged.StartDate, merged.EndDate)
	}

	return errs.err()
}

// ValidateMilestone checks a milestone to add; the due date may not fall
// before today.
func ValidateMilestone(in model.MilestoneInput, today time.Time) error {
	errs := fieldErrors{}

	checkName(errs, "name", "Milestone name", in.Name, maxNameLength)

	if in.DueDate == "" {
		errs["dueDate"] = "Due date is required"
	} else if due, err := model.ParseDate(in.DueDate); err != nil {
		errs["dueDate"] = "Invalid due date"
	} else if due.Before(startOfDay(today)) {
		errs["dueDate"] = "Due date cannot be in the past"
	}

	if in.Status != "" && !in.Status.Valid() {
		errs["status"] = "Invalid milestone status"
	}

	return errs.err()
}

func validateMilestonePatch(p model.MilestonePatch) error {
	errs := fieldErrors{}

	if p.Name != nil {
		checkName(errs, "name", "Milestone name", *p.Name, maxNameLength)
	}
	if p.DueDate != nil {
		if _, err := model.ParseDate(*p.DueDate); err != nil {
			errs["dueDate"] = "Invalid due date"
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		errs["status"] = "Invalid milestone status"
	}

	return errs.err()
}

// ValidateUpdate checks a log entry supplied by a caller.
func ValidateUpdate(in model.UpdateInput) error {
	errs := fieldErrors{}

	msg := strings.TrimSpace(in.Message)
	switch {
	case msg == "":
		errs["message"] = "Update message is required"
	case utf8.RuneCountInString(msg) > maxUpdateLength:
		errs["message"] = "Update message must be less than 1000 characters"
	}

	if in.Type != "" && !in.Type.Valid() {
		errs["type"] = "Invalid update type"
	}

	return errs.err()
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
