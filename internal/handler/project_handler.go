package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hmadashboard/internal/model"
	"hmadashboard/internal/tracking"
	"hmadashboard/pkg/logger"
)

type ProjectHandler struct {
	store  *tracking.Store
	logger *zap.Logger
}

func NewProjectHandler(store *tracking.Store, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, logger: logger}
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects := h.store.Projects()
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, err := h.store.GetByID(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "GetProject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var in model.ProjectInput
	if !bindJSON(c, h.logger, "CreateProject", &in) {
		return
	}

	p, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, "CreateProject", err)
		return
	}

	logger.WithTrace(c.Request.Context(), h.logger).Info("CreateProject: success",
		zap.String("project_id", string(p.ID)),
		zap.String("client_ip", c.ClientIP()),
	)
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var patch model.ProjectPatch
	if !bindJSON(c, h.logger, "UpdateProject", &patch) {
		return
	}

	p, err := h.store.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, h.logger, "UpdateProject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	var body struct {
		Status model.ProjectStatus `json:"status"`
	}
	if !bindJSON(c, h.logger, "UpdateStatus", &body) {
		return
	}

	p, err := h.store.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		writeError(c, h.logger, "UpdateStatus", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, "DeleteProject", err)
		return
	}

	logger.WithTrace(c.Request.Context(), h.logger).Info("DeleteProject: success",
		zap.String("project_id", id),
		zap.String("client_ip", c.ClientIP()),
	)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ProjectHandler) RecomputeProgress(c *gin.Context) {
	progress, err := h.store.UpdateProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "RecomputeProgress", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *ProjectHandler) GetTracking(c *gin.Context) {
	t, err := h.store.GetTracking(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, "GetTracking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracking": t})
}

func (h *ProjectHandler) ListTracking(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tracking": h.store.TrackingRecords()})
}

func (h *ProjectHandler) AddUpdate(c *gin.Context) {
	var in model.UpdateInput
	if !bindJSON(c, h.logger, "AddUpdate", &in) {
		return
	}

	u, err := h.store.AddUpdate(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, h.logger, "AddUpdate", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"update": u})
}

func (h *ProjectHandler) ConvertRequest(c *gin.Context) {
	var req model.Request
	if !bindJSON(c, h.logger, "ConvertRequest", &req) {
		return
	}

	p, err := h.store.ConvertRequest(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, "ConvertRequest", err)
		return
	}

	logger.WithTrace(c.Request.Context(), h.logger).Info("ConvertRequest: success",
		zap.String("request_id", req.ID),
		zap.String("project_id", string(p.ID)),
	)
	c.JSON(http.StatusCreated, gin.H{"project": p})
}

// Refresh reloads the snapshot and local overrides and reports the outcome.
func (h *ProjectHandler) Refresh(c *gin.Context) {
	h.store.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":   h.store.Status(),
		"projects": len(h.store.Projects()),
	})
}

func (h *ProjectHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Status())
}
