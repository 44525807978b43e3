package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hmadashboard/internal/model"
	"hmadashboard/internal/tracking"
)

type MilestoneHandler struct {
	store  *tracking.Store
	logger *zap.Logger
}

func NewMilestoneHandler(store *tracking.Store, logger *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{store: store, logger: logger}
}

func (h *MilestoneHandler) AddMilestone(c *gin.Context) {
	var in model.MilestoneInput
	if !bindJSON(c, h.logger, "AddMilestone", &in) {
		return
	}

	m, err := h.store.AddMilestone(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, h.logger, "AddMilestone", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"milestone": m})
}

func (h *MilestoneHandler) UpdateMilestone(c *gin.Context) {
	var patch model.MilestonePatch
	if !bindJSON(c, h.logger, "UpdateMilestone", &patch) {
		return
	}

	m, err := h.store.UpdateMilestone(c.Request.Context(), c.Param("id"), c.Param("mid"), patch)
	if err != nil {
		writeError(c, h.logger, "UpdateMilestone", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestone": m})
}

func (h *MilestoneHandler) DeleteMilestone(c *gin.Context) {
	if err := h.store.DeleteMilestone(c.Request.Context(), c.Param("id"), c.Param("mid")); err != nil {
		writeError(c, h.logger, "DeleteMilestone", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
