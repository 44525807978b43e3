package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	mqcontracts "hmadashboard/contracts/mq"
	"hmadashboard/internal/model"
	"hmadashboard/internal/tracking"
	"hmadashboard/pkg/logger"
	"hmadashboard/pkg/mq"
	"hmadashboard/pkg/trace"
	"hmadashboard/pkg/util"
)

const (
	handlerName = "request_approved"
	maxRetries  = 3
)

// RequestConverter turns an approved request into a project.
type RequestConverter interface {
	ConvertRequest(ctx context.Context, req model.Request) (*model.Project, error)
}

type RequestApprovedHandler struct {
	store   RequestConverter
	deduper *util.Deduper
	retries *util.RetryCounter
	logger  *zap.Logger
}

// NewRequestApprovedHandler builds the handler. deduper and retries may be
// nil: without a deduper redeliveries are converted again, without a retry
// counter transient failures are requeued indefinitely.
func NewRequestApprovedHandler(store RequestConverter, deduper *util.Deduper, retries *util.RetryCounter, logger *zap.Logger) *RequestApprovedHandler {
	return &RequestApprovedHandler{
		store:   store,
		deduper: deduper,
		retries: retries,
		logger:  logger,
	}
}

func (h *RequestApprovedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mqcontracts.RequestApprovedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal RequestApprovedPayload", zap.Error(err))
		return mq.Permanent(fmt.Errorf("decode request.approved: %w", err))
	}
	if p.TraceID != "" && trace.FromContext(ctx) == "" {
		ctx = trace.WithContext(ctx, p.TraceID)
	}
	log := logger.WithTrace(ctx, h.logger).With(zap.String("request_id", p.RequestID))

	log.Info("Handling request.approved event",
		zap.String("title", p.Title),
		zap.String("type", p.Type),
	)

	dedupe := h.deduper != nil && p.RequestID != ""
	if dedupe && !h.deduper.AcquireOnce(ctx, handlerName, p.RequestID) {
		return nil
	}

	project, err := h.store.ConvertRequest(ctx, model.Request{
		ID:          p.RequestID,
		Title:       p.Title,
		Description: p.Description,
		Priority:    model.Priority(p.Priority),
		Type:        p.Type,
		DueDate:     p.DueDate,
		RequestedBy: p.RequestedBy,
		AssignedTo:  p.AssignedTo,
	})
	if err != nil {
		return h.fail(ctx, log, p.RequestID, dedupe, err)
	}

	if h.retries != nil && p.RequestID != "" {
		_ = h.retries.Reset(ctx, util.FormatRetryKey(handlerName, p.RequestID))
	}
	log.Info("Approved request converted to project",
		zap.String("project_id", string(project.ID)),
	)
	return nil
}

// fail decides between acking (Permanent) and requeueing a failed conversion.
func (h *RequestApprovedHandler) fail(ctx context.Context, log *zap.Logger, requestID string, dedupe bool, err error) error {
	var (
		vErr *tracking.ValidationError
		pErr *tracking.PersistError
	)
	switch {
	case errors.As(err, &vErr):
		log.Warn("Approved request cannot become a project", zap.Any("fields", vErr.Fields))
		return mq.Permanent(err)
	case errors.As(err, &pErr):
		// The project exists in memory; converting again would duplicate it.
		log.Error("Converted request was not persisted", zap.String("key", pErr.Key), zap.Error(err))
		return mq.Permanent(err)
	}

	if dedupe {
		h.deduper.Release(ctx, handlerName, requestID)
	}

	retryable, kind := util.IsRetryableError(err)
	if !retryable {
		log.Error("Failed to convert approved request", zap.String("error_type", kind), zap.Error(err))
		return mq.Permanent(err)
	}

	if h.retries != nil && requestID != "" {
		count, cErr := h.retries.IncrementAndGet(ctx, util.FormatRetryKey(handlerName, requestID))
		if cErr == nil && !util.ShouldRetry(count, maxRetries, retryable) {
			log.Error("Giving up on approved request after retries",
				zap.Int64("retry_count", count),
				zap.String("error_type", kind),
				zap.Error(err),
			)
			return mq.Permanent(err)
		}
	}

	log.Warn("Transient failure converting approved request, requeueing",
		zap.String("error_type", kind),
		zap.Error(err),
	)
	return err
}
