package handler

import (
	"net/http"
	"time"

	"minimusiker_backend/internal/emailautomation/service"
	"minimusiker_backend/internal/emailautomation/transport"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid id"
)

// Handler handles HTTP requests for email automation
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new email automation handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the admin routes under /email-automation
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/templates", h.ListTemplates)
	rg.POST("/templates", h.CreateTemplate)
	rg.GET("/templates/:id", h.GetTemplate)
	rg.PUT("/templates/:id", h.UpdateTemplate)
	rg.DELETE("/templates/:id", h.DeleteTemplate)
	rg.GET("/templates/:id/preview", h.PreviewTemplate)
	rg.POST("/templates/:id/run", h.RunTemplate)
	rg.GET("/logs", h.ListLogs)
	rg.GET("/due", h.ListDue)
}

// ListTemplates handles GET /email-automation/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	result, err := h.svc.ListTemplates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateTemplate handles POST /email-automation/templates
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req transport.TemplateRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.CreateTemplate(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// GetTemplate handles GET /email-automation/templates/:id
func (h *Handler) GetTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.svc.GetTemplate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateTemplate handles PUT /email-automation/templates/:id
func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.TemplateRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.UpdateTemplate(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteTemplate handles DELETE /email-automation/templates/:id
func (h *Handler) DeleteTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteTemplate(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// PreviewTemplate handles GET /email-automation/templates/:id/preview?event=
func (h *Handler) PreviewTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ref := c.Query("event")
	if ref == "" {
		httpkit.Error(c, http.StatusBadRequest, "event is required", nil)
		return
	}
	result, err := h.svc.PreviewTemplate(c.Request.Context(), id, ref)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RunTemplate handles POST /email-automation/templates/:id/run
func (h *Handler) RunTemplate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.RunRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.svc.RunForEvent(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListLogs handles GET /email-automation/logs
func (h *Handler) ListLogs(c *gin.Context) {
	var req transport.ListLogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	var templateID *uuid.UUID
	if req.TemplateID != "" {
		id := uuid.MustParse(req.TemplateID)
		templateID = &id
	}
	result, err := h.svc.ListLogs(c.Request.Context(), req.Event, templateID, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListDue handles GET /email-automation/due
func (h *Handler) ListDue(c *gin.Context) {
	result, err := h.svc.ListDuePairs(c.Request.Context(), time.Now())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return false
	}
	return true
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
