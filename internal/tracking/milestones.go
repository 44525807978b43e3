package tracking

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	mqcontracts "hmadashboard/contracts/mq"
	"hmadashboard/internal/model"
	"hmadashboard/pkg/logger"
	"hmadashboard/pkg/trace"
)

// AddMilestone appends a milestone to the project's tracking record and
// recomputes progress.
func (s *Store) AddMilestone(ctx context.Context, id string, in model.MilestoneInput) (_ *model.Milestone, err error) {
	defer func() { observe("add_milestone", err) }()
	log := logger.WithTrace(ctx, s.logger)

	in = sanitizeMilestone(in)
	if err := ValidateMilestone(in, s.now()); err != nil {
		log.Warn("Milestone validation failed", zap.String("project_id", id), zap.Error(err))
		return nil, err
	}
	due, _ := model.ParseDate(in.DueDate)

	m := model.Milestone{
		ID:      s.milestoneID(),
		Name:    in.Name,
		DueDate: model.FormatDate(due),
		Status:  in.Status,
	}
	if m.Status == "" {
		m.Status = model.MilestonePending
	}
	if m.Status == model.MilestoneCompleted {
		now := s.now().UTC()
		m.CompletedDate = &now
	}

	s.mu.Lock()
	pi := s.projectIndex(model.ID(id))
	if pi < 0 {
		s.mu.Unlock()
		return nil, &NotFoundError{Kind: "project", ID: id}
	}
	ti := s.ensureTracking(pi)
	s.tracking[ti].Milestones = append(s.tracking[ti].Milestones, m)
	progress := s.recompute(ti)
	persistErr := s.persist(ctx, TrackingKey, ProjectsKey)
	s.mu.Unlock()

	log.Info("Milestone added",
		zap.String("project_id", id),
		zap.String("milestone_id", m.ID),
		zap.Int("progress", progress),
	)

	added := m
	added.CompletedDate = cloneTimePtr(m.CompletedDate)
	return &added, persistErr
}

// UpdateMilestone merges patch into the milestone. Moving to completed stamps
// completedDate; moving to any other status clears it.
func (s *Store) UpdateMilestone(ctx context.Context, id, milestoneID string, patch model.MilestonePatch) (_ *model.Milestone, err error) {
	defer func() { observe("update_milestone", err) }()
	log := logger.WithTrace(ctx, s.logger)

	if patch.Name != nil {
		name := sanitizeString(*patch.Name)
		patch.Name = &name
	}
	if patch.DueDate != nil {
		due := strings.TrimSpace(*patch.DueDate)
		patch.DueDate = &due
	}
	if err := validateMilestonePatch(patch); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ti, mi, err := s.locateMilestone(id, milestoneID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	m := &s.tracking[ti].Milestones[mi]
	wasCompleted := m.Status == model.MilestoneCompleted
	if patch.Name != nil {
		m.Name = *patch.Name
	}
	if patch.DueDate != nil {
		due, _ := model.ParseDate(*patch.DueDate)
		m.DueDate = model.FormatDate(due)
	}
	if patch.Status != nil {
		m.Status = *patch.Status
		switch {
		case m.Status == model.MilestoneCompleted && !wasCompleted:
			now := s.now().UTC()
			m.CompletedDate = &now
		case m.Status != model.MilestoneCompleted:
			m.CompletedDate = nil
		}
	}
	completedNow := !wasCompleted && m.Status == model.MilestoneCompleted
	updated := *m
	updated.CompletedDate = cloneTimePtr(m.CompletedDate)

	progress := s.recompute(ti)
	persistErr := s.persist(ctx, TrackingKey, ProjectsKey)
	s.mu.Unlock()

	log.Info("Milestone updated",
		zap.String("project_id", id),
		zap.String("milestone_id", milestoneID),
		zap.String("status", string(updated.Status)),
		zap.Int("progress", progress),
	)
	if completedNow {
		s.publish(ctx, mqcontracts.RoutingMilestoneCompleted, mqcontracts.MilestoneCompletedPayload{
			ProjectID:   id,
			MilestoneID: milestoneID,
			Name:        updated.Name,
			Progress:    progress,
			TraceID:     trace.FromContext(ctx),
		})
	}

	return &updated, persistErr
}

// DeleteMilestone removes the milestone and recomputes progress.
func (s *Store) DeleteMilestone(ctx context.Context, id, milestoneID string) (err error) {
	defer func() { observe("delete_milestone", err) }()
	log := logger.WithTrace(ctx, s.logger)

	s.mu.Lock()
	ti, mi, err := s.locateMilestone(id, milestoneID)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	ms := s.tracking[ti].Milestones
	s.tracking[ti].Milestones = append(ms[:mi:mi], ms[mi+1:]...)
	progress := s.recompute(ti)
	persistErr := s.persist(ctx, TrackingKey, ProjectsKey)
	s.mu.Unlock()

	log.Info("Milestone deleted",
		zap.String("project_id", id),
		zap.String("milestone_id", milestoneID),
		zap.Int("progress", progress),
	)
	return persistErr
}

// UpdateProgress recomputes the project's progress from its milestones and
// returns it. A project without a tracking record reports its loaded value.
func (s *Store) UpdateProgress(ctx context.Context, id string) (_ int, err error) {
	defer func() { observe("update_progress", err) }()

	s.mu.Lock()
	pi := s.projectIndex(model.ID(id))
	if pi < 0 {
		s.mu.Unlock()
		return 0, &NotFoundError{Kind: "project", ID: id}
	}
	ti := s.trackingIndex(model.ID(id))
	if ti < 0 {
		progress := s.projects[pi].CompletionPercentage
		s.mu.Unlock()
		return progress, nil
	}
	progress := s.recompute(ti)
	persistErr := s.persist(ctx, TrackingKey, ProjectsKey)
	s.mu.Unlock()

	return progress, persistErr
}

// AddUpdate appends an entry to the project's update log.
func (s *Store) AddUpdate(ctx context.Context, id string, in model.UpdateInput) (_ *model.Update, err error) {
	defer func() { observe("add_update", err) }()
	log := logger.WithTrace(ctx, s.logger)

	if err := ValidateUpdate(in); err != nil {
		return nil, err
	}

	u := model.Update{
		Timestamp: s.now().UTC(),
		User:      sanitizeString(in.User),
		Type:      in.Type,
		Message:   strings.TrimSpace(in.Message),
	}
	if u.User == "" {
		u.User = defaultUpdateUser
	}
	if u.Type == "" {
		u.Type = model.UpdateGeneral
	}

	s.mu.Lock()
	pi := s.projectIndex(model.ID(id))
	if pi < 0 {
		s.mu.Unlock()
		return nil, &NotFoundError{Kind: "project", ID: id}
	}
	ti := s.ensureTracking(pi)
	s.tracking[ti].Updates = append(s.tracking[ti].Updates, u)
	persistErr := s.persist(ctx, TrackingKey)
	s.mu.Unlock()

	log.Debug("Project update logged",
		zap.String("project_id", id),
		zap.String("type", string(u.Type)),
	)
	return &u, persistErr
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// locateMilestone resolves the tracking and milestone indexes. Caller holds mu.
func (s *Store) locateMilestone(id, milestoneID string) (int, int, error) {
	if s.projectIndex(model.ID(id)) < 0 {
		return 0, 0, &NotFoundError{Kind: "project", ID: id}
	}
	ti := s.trackingIndex(model.ID(id))
	if ti < 0 {
		return 0, 0, &NotFoundError{Kind: "milestone", ID: milestoneID}
	}
	for mi, m := range s.tracking[ti].Milestones {
		if m.ID == milestoneID {
			return ti, mi, nil
		}
	}
	return 0, 0, &NotFoundError{Kind: "milestone", ID: milestoneID}
}
