package tracking

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"hmadashboard/internal/model"
)

const (
	defaultCategory   = "General"
	defaultAssignee   = "Unassigned"
	requestAssignee   = "Chapin Mower"
	defaultOwner      = "Marketing Executive"
	defaultUpdateUser = "Marketing Executive"
	systemUser        = "System"
	defaultCurrency   = "USD"
	createdMessage    = "Project created from request"

	defaultDuration = 30 * 24 * time.Hour
	planningOffset  = 7 * 24 * time.Hour
)

// generateProjectID returns PROJ-<year>-<3 random digits>.
func generateProjectID(now time.Time) string {
	return fmt.Sprintf("PROJ-%d-%03d", now.Year(), rand.IntN(1000))
}

func generateMilestoneID() string {
	return "m-" + uuid.NewString()
}

// defaultMilestones lays out kickoff, planning, mid-review and delivery
// checkpoints between start and end. The midpoint truncates to the earlier day.
func defaultMilestones(start, end time.Time, newID func() string) []model.Milestone {
	mid := start.Add(end.Sub(start) / 2)

	steps := []struct {
		name string
		due  time.Time
	}{
		{"Project Kickoff", start},
		{"Initial Planning Complete", start.Add(planningOffset)},
		{"Mid-Project Review", mid},
		{"Final Delivery", end},
	}

	milestones := make([]model.Milestone, 0, len(steps))
	for _, s := range steps {
		milestones = append(milestones, model.Milestone{
			ID:      newID(),
			Name:    s.name,
			DueDate: model.FormatDate(s.due),
			Status:  model.MilestonePending,
		})
	}
	return milestones
}

// projectWindow resolves the start and end dates used to lay out default
// milestones. A missing end date falls back to start + 30 days.
func projectWindow(p model.Project) (time.Time, time.Time, error) {
	start, err := model.ParseDate(p.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if p.EndDate == "" {
		return start, start.Add(defaultDuration), nil
	}
	end, err := model.ParseDate(p.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// newTracking builds the tracking record for an existing project that has
// none yet. Progress starts at the project's loaded completion.
func newTracking(p model.Project, owner string) model.Tracking {
	if owner == "" {
		owner = defaultOwner
	}
	team := []string{}
	if p.AssignedTo != "" {
		team = append(team, p.AssignedTo)
	}
	return model.Tracking{
		ProjectID:    p.ID,
		ProjectName:  p.Name,
		Status:       p.Status,
		Priority:     p.Priority,
		StartDate:    p.StartDate,
		TargetDate:   p.EndDate,
		Progress:     p.CompletionPercentage,
		Owner:        owner,
		Team:         team,
		Milestones:   []model.Milestone{},
		Updates:      []model.Update{},
		LinkedAssets: []string{},
		Budget:       model.Budget{Currency: defaultCurrency},
	}
}
