package handler

import (
	"net/http"

	"minimusiker_backend/internal/audio/service"
	"minimusiker_backend/internal/audio/transport"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid id"
)

// Handler handles HTTP requests for audio files
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new audio handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterProductionRoutes registers the upload routes used by staff and
// engineers under /events
func (h *Handler) RegisterProductionRoutes(rg *gin.RouterGroup) {
	rg.GET("/:ref/audio", h.GetPipeline)
	rg.POST("/:ref/audio/uploads", h.RequestUpload)
	rg.POST("/:ref/audio/confirm", h.ConfirmUpload)
	rg.DELETE("/:ref/audio/:id", h.Delete)
	rg.GET("/:ref/audio/:id/download", h.Download)
}

// RegisterAdminRoutes registers the production routes plus approvals
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	h.RegisterProductionRoutes(rg)
	rg.PUT("/:ref/audio/:id/approval", h.SetApproval)
	rg.POST("/:ref/audio/recompute", h.Recompute)
	rg.GET("/:ref/schulsong", h.SchulsongStatus)
}

// RegisterTeacherRoutes registers the review routes under /api/teacher/events
func (h *Handler) RegisterTeacherRoutes(rg *gin.RouterGroup) {
	rg.GET("/:ref/audio", h.GetPipeline)
	rg.GET("/:ref/audio/:id/download", h.Download)
	rg.GET("/:ref/schulsong", h.SchulsongStatus)
	rg.POST("/:ref/schulsong/approve", h.TeacherApproveSchulsong)
}

// RegisterParentRoutes registers the listening routes under /api/parent/events
func (h *Handler) RegisterParentRoutes(rg *gin.RouterGroup) {
	rg.GET("/:ref/schulsong", h.SchulsongStatus)
	rg.GET("/:ref/audio/:id/download", h.Download)
}

// GetPipeline handles GET /events/:ref/audio
func (h *Handler) GetPipeline(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.GetPipeline(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RequestUpload handles POST /events/:ref/audio/uploads
func (h *Handler) RequestUpload(c *gin.Context) {
	var req transport.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.RequestUpload(c.Request.Context(), c.Param("ref"), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ConfirmUpload handles POST /events/:ref/audio/confirm
func (h *Handler) ConfirmUpload(c *gin.Context) {
	var req transport.ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ConfirmUpload(c.Request.Context(), c.Param("ref"), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Delete handles DELETE /events/:ref/audio/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteAudioFile(c.Request.Context(), c.Param("ref"), id, identity)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// Download handles GET /events/:ref/audio/:id/download
func (h *Handler) Download(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.GetDownloadURL(c.Request.Context(), c.Param("ref"), id, identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetApproval handles PUT /api/admin/events/:ref/audio/:id/approval
func (h *Handler) SetApproval(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.SetApproval(c.Request.Context(), c.Param("ref"), id, identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Recompute handles POST /api/admin/events/:ref/audio/recompute
func (h *Handler) Recompute(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.RecomputeStage(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SchulsongStatus handles GET /events/:ref/schulsong
func (h *Handler) SchulsongStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.GetSchulsongStatus(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// TeacherApproveSchulsong handles POST /api/teacher/events/:ref/schulsong/approve
func (h *Handler) TeacherApproveSchulsong(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.TeacherApproveSchulsong(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}
