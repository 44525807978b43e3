package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hmadashboard/internal/model"
)

func milestonesWith(completed, total int) []model.Milestone {
	ms := make([]model.Milestone, total)
	for i := range ms {
		ms[i].Status = model.MilestonePending
		if i < completed {
			ms[i].Status = model.MilestoneCompleted
		}
	}
	return ms
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"no milestones", 0, 0, 0},
		{"none completed", 0, 4, 0},
		{"one of four", 1, 4, 25},
		{"one of three rounds down", 1, 3, 33},
		{"two of three rounds up", 2, 3, 67},
		{"one of eight rounds half up", 1, 8, 13},
		{"all completed", 5, 5, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(milestonesWith(tt.completed, tt.total)))
		})
	}
}

func TestProgress_InProgressDoesNotCount(t *testing.T) {
	ms := []model.Milestone{
		{Status: model.MilestoneInProgress},
		{Status: model.MilestoneCompleted},
	}
	assert.Equal(t, 50, Progress(ms))
}
