package tracking

import "hmadashboard/internal/model"

// Progress returns round(100 * completed / total), or 0 without milestones.
func Progress(milestones []model.Milestone) int {
	total := len(milestones)
	if total == 0 {
		return 0
	}
	completed := 0
	for _, m := range milestones {
		if m.Status == model.MilestoneCompleted {
			completed++
		}
	}
	// integer form of math.Round for non-negative ratios
	return (200*completed + total) / (2 * total)
}
