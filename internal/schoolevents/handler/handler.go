package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"minimusiker_backend/internal/schoolevents/service"
	"minimusiker_backend/internal/schoolevents/transport"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	webhookSecretHeader = "X-Webhook-Secret"
	maxWebhookBody      = 64 << 10
)

// Handler handles HTTP requests for school events
type Handler struct {
	svc           *service.Service
	val           *validator.Validator
	webhookSecret string
}

// New creates a new school events handler
func New(svc *service.Service, val *validator.Validator, webhookSecret string) *Handler {
	return &Handler{svc: svc, val: val, webhookSecret: webhookSecret}
}

// RegisterAdminRoutes registers the routes under /api/admin/events
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:ref", h.Get)
	rg.PUT("/:ref/deal", h.UpdateDeal)
	rg.GET("/:ref/fee", h.GetFee)
	rg.GET("/:ref/timeline", h.GetTimeline)
	rg.PATCH("/:ref/timeline", h.UpdateTimeline)
	rg.POST("/:ref/cancel", h.Cancel)
	rg.GET("/:ref/staff", h.ListStaff)
	rg.POST("/:ref/staff", h.AssignStaff)
	rg.DELETE("/:ref/staff/:role/:staffId", h.UnassignStaff)
	rg.GET("/:ref/teachers", h.ListTeachers)
	rg.POST("/:ref/teachers", h.AddTeacher)
	rg.GET("/:ref/qr", h.RegistrationQR)
}

// RegisterTeacherRoutes registers the routes under /api/teacher/events
func (h *Handler) RegisterTeacherRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListTeacherEvents)
	rg.GET("/:ref", h.GetTeacherEvent)
}

// RegisterParentRoutes registers the routes under /api/parent/events
func (h *Handler) RegisterParentRoutes(rg *gin.RouterGroup) {
	rg.GET("/:ref", h.ParentOverview)
}

// RegisterWebhookRoutes registers the booking webhook
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/simplybook", h.SimplybookBooking)
}

// List handles GET /api/admin/events
func (h *Handler) List(c *gin.Context) {
	var req transport.ListEventsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	result, err := h.svc.ListEvents(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create handles POST /api/admin/events
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateEventRequest
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

	result, err := h.svc.CreateEvent(c.Request.Context(), identity.SubjectID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Get handles GET /api/admin/events/:ref. Any accepted identifier works.
func (h *Handler) Get(c *gin.Context) {
	result, err := h.svc.GetEvent(c.Request.Context(), c.Param("ref"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateDeal handles PUT /api/admin/events/:ref/deal
func (h *Handler) UpdateDeal(c *gin.Context) {
	var req transport.UpdateDealRequest
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

	result, err := h.svc.UpdateDeal(c.Request.Context(), c.Param("ref"), identity.SubjectID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetFee handles GET /api/admin/events/:ref/fee
func (h *Handler) GetFee(c *gin.Context) {
	result, err := h.svc.GetFee(c.Request.Context(), c.Param("ref"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetTimeline handles GET /api/admin/events/:ref/timeline
func (h *Handler) GetTimeline(c *gin.Context) {
	result, err := h.svc.GetTimeline(c.Request.Context(), c.Param("ref"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateTimeline handles PATCH /api/admin/events/:ref/timeline
func (h *Handler) UpdateTimeline(c *gin.Context) {
	var patch map[string]json.RawMessage
	if err := c.ShouldBindJSON(&patch); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.UpdateTimelineOverrides(c.Request.Context(), c.Param("ref"), patch)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Cancel handles POST /api/admin/events/:ref/cancel
func (h *Handler) Cancel(c *gin.Context) {
	result, err := h.svc.CancelEvent(c.Request.Context(), c.Param("ref"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListStaff handles GET /api/admin/events/:ref/staff
func (h *Handler) ListStaff(c *gin.Context) {
	result, err := h.svc.ListStaff(c.Request.Context(), c.Param("ref"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AssignStaff handles POST /api/admin/events/:ref/staff
func (h *Handler) AssignStaff(c *gin.Context) {
	var req transport.AssignStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	result, err := h.svc.AssignStaff(c.Request.Context(), c.Param("ref"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UnassignStaff handles DELETE /api/admin/events/:ref/staff/:role/:staffId
func (h *Handler) UnassignStaff(c *gin.Context) {
	role := c.Param("role")
	if role != httpkit.RoleStaff && role != httpkit.RoleEngineer {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "role must be staff or engineer")
		return
	}

	err := h.svc.UnassignStaff(c.Request.Context(), c.Param("ref"), c.Param("staffId"), role)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "staff unassigned"})
}

// ListTeachers handles GET /api/admin/events/:ref/teachers
func (h *Handler) ListTeachers(c *gin.Context) {
	result, err := h.svc.ListTeachers(c.Request.Context(), c.Param("ref"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AddTeacher handles POST /api/admin/events/:ref/teachers
func (h *Handler) AddTeacher(c *gin.Context) {
	var req transport.AddTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	result, err := h.svc.AddTeacher(c.Request.Context(), c.Param("ref"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// RegistrationQR handles GET /api/admin/events/:ref/qr?size=512
func (h *Handler) RegistrationQR(c *gin.Context) {
	size := 0
	if raw := c.Query("size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "size must be an integer")
			return
		}
		size = v
	}

	png, filename, err := h.svc.RegistrationQR(c.Request.Context(), c.Param("ref"), size)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "image/png", png)
}

// ListTeacherEvents handles GET /api/teacher/events
func (h *Handler) ListTeacherEvents(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ListTeacherEvents(c.Request.Context(), identity.Email())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetTeacherEvent handles GET /api/teacher/events/:ref
func (h *Handler) GetTeacherEvent(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.GetTeacherEvent(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ParentOverview handles GET /api/parent/events/:ref
func (h *Handler) ParentOverview(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ParentOverview(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SimplybookBooking handles POST /api/webhooks/simplybook
func (h *Handler) SimplybookBooking(c *gin.Context) {
	if h.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(c.GetHeader(webhookSecretHeader)), []byte(h.webhookSecret)) != 1 {
		httpkit.Error(c, http.StatusUnauthorized, "invalid webhook secret", nil)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	raw, err := c.GetRawData()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.SimplybookBookingRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	result, err := h.svc.IngestBooking(c.Request.Context(), req, string(raw))
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, result)
}
