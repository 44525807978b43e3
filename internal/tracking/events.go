package tracking

import (
	"context"

	"go.uber.org/zap"

	mqcontracts "hmadashboard/contracts/mq"
	"hmadashboard/internal/model"
	"hmadashboard/pkg/logger"
	"hmadashboard/pkg/trace"
)

// publish emits an event after the store lock is released. Failures never
// fail the originating operation.
func (s *Store) publish(ctx context.Context, routingKey string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		logger.WithTrace(ctx, s.logger).Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func createdEvent(ctx context.Context, p model.Project, milestones int) mqcontracts.ProjectCreatedPayload {
	return mqcontracts.ProjectCreatedPayload{
		ProjectID:      string(p.ID),
		Name:           p.Name,
		Status:         string(p.Status),
		Priority:       string(p.Priority),
		Category:       p.Category,
		AssignedTo:     p.AssignedTo,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		RequestID:      p.RequestID,
		MilestoneCount: milestones,
		TraceID:        trace.FromContext(ctx),
	}
}

// patchedFields names the fields a patch touches, in declaration order.
func patchedFields(p model.ProjectPatch) []string {
	var fields []string
	add := func(set bool, name string) {
		if set {
			fields = append(fields, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Description != nil, "description")
	add(p.Status != nil, "status")
	add(p.Priority != nil, "priority")
	add(p.Category != nil, "category")
	add(p.AssignedTo != nil, "assignedTo")
	add(p.StartDate != nil, "startDate")
	add(p.EndDate != nil, "endDate")
	add(p.RequestID != nil, "requestId")
	return fields
}
