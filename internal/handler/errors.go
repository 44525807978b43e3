package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hmadashboard/internal/tracking"
	"hmadashboard/pkg/logger"
)

const notFoundMessage = "item no longer exists"

// writeError maps store errors onto HTTP responses.
func writeError(c *gin.Context, log *zap.Logger, op string, err error) {
	log = logger.WithTrace(c.Request.Context(), log)

	var (
		vErr *tracking.ValidationError
		nErr *tracking.NotFoundError
		pErr *tracking.PersistError
	)
	switch {
	case errors.As(err, &vErr):
		log.Warn(op+": validation failed", zap.Any("fields", vErr.Fields))
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message(), "fields": vErr.Fields})
	case errors.As(err, &nErr):
		log.Warn(op+": not found", zap.String("kind", nErr.Kind), zap.String("id", nErr.ID))
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage})
	case errors.As(err, &pErr):
		log.Error(op+": failed to persist changes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist changes"})
	default:
		log.Error(op+": unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindJSON decodes the request body into out, answering 400 on failure.
func bindJSON(c *gin.Context, log *zap.Logger, op string, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		logger.WithTrace(c.Request.Context(), log).Warn(op+": invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}
