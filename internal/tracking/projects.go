package tracking

import (
	"context"
	"time"

	"go.uber.org/zap"

	mqcontracts "hmadashboard/contracts/mq"
	"hmadashboard/internal/model"
	"hmadashboard/pkg/logger"
	"hmadashboard/pkg/trace"
)

// maxIDAttempts bounds regeneration when a random project id collides.
const maxIDAttempts = 10

// Create validates in, appends a new project with a tracking record holding
// four default milestones, and persists both collections.
func (s *Store) Create(ctx context.Context, in model.ProjectInput) (_ *model.Project, err error) {
	defer func() { observe("create", err) }()
	log := logger.WithTrace(ctx, s.logger)

	in = sanitizeProject(in)
	if err := ValidateProject(in); err != nil {
		log.Warn("Project validation failed", zap.Error(err))
		return nil, err
	}

	now := s.now().UTC()
	p := model.Project{
		ID:          model.ID(in.ID),
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Category:    in.Category,
		AssignedTo:  in.AssignedTo,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedAt:   &now,
		LastUpdated: &now,
		RequestID:   in.RequestID,
	}
	if p.Status == "" {
		p.Status = model.StatusPipeline
	}
	if p.Priority == "" {
		p.Priority = model.PriorityMedium
	}
	if p.Category == "" {
		p.Category = defaultCategory
	}
	if p.AssignedTo == "" {
		p.AssignedTo = defaultAssignee
	}
	if p.StartDate == "" {
		p.StartDate = model.FormatDate(now)
	}

	// Dates were validated above, so the window always resolves.
	start, end, err := projectWindow(p)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"startDate": "Invalid start date"}}
	}

	t := newTracking(p, in.RequestedBy)
	t.Milestones = defaultMilestones(start, end, s.milestoneID)
	t.Updates = append(t.Updates, model.Update{
		Timestamp: now,
		User:      systemUser,
		Type:      model.UpdateCreated,
		Message:   createdMessage,
	})
	t.Progress = Progress(t.Milestones)

	s.mu.Lock()
	if p.ID == "" {
		p.ID = s.freshID(now)
		t.ProjectID = p.ID
	} else if s.projectIndex(p.ID) >= 0 {
		s.mu.Unlock()
		return nil, &ValidationError{Fields: map[string]string{"id": "Project id already exists"}}
	}

	s.projects = append(s.projects, p)
	s.tracking = append(s.tracking, t)
	persistErr := s.persist(ctx, ProjectsKey, TrackingKey)
	created := s.view(p)
	s.mu.Unlock()

	log.Info("Project created",
		zap.String("project_id", string(created.ID)),
		zap.String("name", created.Name),
		zap.String("request_id", created.RequestID),
		zap.Int("milestone_count", len(t.Milestones)),
	)
	s.publish(ctx, mqcontracts.RoutingProjectCreated, createdEvent(ctx, created, len(t.Milestones)))

	return &created, persistErr
}

// freshID draws project ids until one is unused. Caller holds mu.
func (s *Store) freshID(now time.Time) model.ID {
	var id model.ID
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id = model.ID(s.projectID(now))
		if s.projectIndex(id) < 0 {
			return id
		}
	}
	return id
}

// Update merges patch into the project and refreshes its lastUpdated
// timestamp. The tracking record is left untouched.
func (s *Store) Update(ctx context.Context, id string, patch model.ProjectPatch) (_ *model.Project, err error) {
	defer func() { observe("update", err) }()
	log := logger.WithTrace(ctx, s.logger)

	patch = sanitizePatch(patch)

	s.mu.Lock()
	i := s.projectIndex(model.ID(id))
	if i < 0 {
		s.mu.Unlock()
		return nil, &NotFoundError{Kind: "project", ID: id}
	}

	merged := s.projects[i].Clone()
	patch.Apply(&merged)
	if err := validatePatch(patch, merged); err != nil {
		s.mu.Unlock()
		log.Warn("Project update rejected", zap.String("project_id", id), zap.Error(err))
		return nil, err
	}

	now := s.now().UTC()
	merged.LastUpdated = &now
	s.projects[i] = merged

	persistErr := s.persist(ctx, ProjectsKey)
	updated := s.view(merged)
	s.mu.Unlock()

	fields := patchedFields(patch)
	log.Info("Project updated",
		zap.String("project_id", id),
		zap.Strings("fields", fields),
	)
	s.publish(ctx, mqcontracts.RoutingProjectUpdated, mqcontracts.ProjectUpdatedPayload{
		ProjectID: id,
		Fields:    fields,
		TraceID:   trace.FromContext(ctx),
	})

	return &updated, persistErr
}

// UpdateStatus sets the project status, mirrors it into the tracking record
// and appends a status_change entry to the update log.
func (s *Store) UpdateStatus(ctx context.Context, id string, status model.ProjectStatus) (_ *model.Project, err error) {
	defer func() { observe("update_status", err) }()
	log := logger.WithTrace(ctx, s.logger)

	if !status.Valid() {
		return nil, &ValidationError{Fields: map[string]string{"status": "Invalid project status"}}
	}

	s.mu.Lock()
	i := s.projectIndex(model.ID(id))
	if i < 0 {
		s.mu.Unlock()
		return nil, &NotFoundError{Kind: "project", ID: id}
	}

	now := s.now().UTC()
	previous := s.projects[i].Status
	s.projects[i].Status = status
	s.projects[i].LastUpdated = &now

	ti := s.ensureTracking(i)
	s.tracking[ti].Status = status
	s.tracking[ti].Updates = append(s.tracking[ti].Updates, model.Update{
		Timestamp: now,
		User:      defaultUpdateUser,
		Type:      model.UpdateStatusChange,
		Message:   "Project status changed to " + string(status),
	})

	persistErr := s.persist(ctx, ProjectsKey, TrackingKey)
	updated := s.view(s.projects[i])
	s.mu.Unlock()

	log.Info("Project status changed",
		zap.String("project_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	s.publish(ctx, mqcontracts.RoutingProjectStatusChanged, mqcontracts.ProjectStatusChangedPayload{
		ProjectID: id,
		From:      string(previous),
		To:        string(status),
		TraceID:   trace.FromContext(ctx),
	})

	return &updated, persistErr
}

// Delete removes the project together with its tracking record.
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	defer func() { observe("delete", err) }()
	log := logger.WithTrace(ctx, s.logger)

	s.mu.Lock()
	i := s.projectIndex(model.ID(id))
	if i < 0 {
		s.mu.Unlock()
		return &NotFoundError{Kind: "project", ID: id}
	}

	s.projects = append(s.projects[:i:i], s.projects[i+1:]...)
	if ti := s.trackingIndex(model.ID(id)); ti >= 0 {
		s.tracking = append(s.tracking[:ti:ti], s.tracking[ti+1:]...)
	}

	persistErr := s.persist(ctx, ProjectsKey, TrackingKey)
	s.mu.Unlock()

	log.Info("Project deleted", zap.String("project_id", id))
	s.publish(ctx, mqcontracts.RoutingProjectDeleted, mqcontracts.ProjectDeletedPayload{
		ProjectID: id,
		TraceID:   trace.FromContext(ctx),
	})

	return persistErr
}
