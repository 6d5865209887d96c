package handler

import (
	"net/http"

	"minimusiker_backend/internal/roster/service"
	"minimusiker_backend/internal/roster/transport"
	"minimusiker_backend/platform/httpkit"
	"minimusiker_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest = "invalid request"
	msgInvalidID      = "invalid id"
)

// Handler handles HTTP requests for classes, groups and songs
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new roster handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterManageRoutes registers the read and write routes used by admins
// and teachers under /events/:ref
func (h *Handler) RegisterManageRoutes(rg *gin.RouterGroup) {
	h.RegisterReadRoutes(rg)
	rg.POST("/:ref/classes", h.CreateClass)
	rg.POST("/:ref/classes/import", h.ImportClasses)
	rg.PUT("/:ref/classes/:id", h.UpdateClass)
	rg.DELETE("/:ref/classes/:id", h.DeleteClass)
	rg.POST("/:ref/groups", h.CreateGroup)
	rg.PUT("/:ref/groups/:id", h.UpdateGroup)
	rg.DELETE("/:ref/groups/:id", h.DeleteGroup)
	rg.POST("/:ref/songs", h.CreateSong)
	rg.PUT("/:ref/songs/:id", h.UpdateSong)
	rg.DELETE("/:ref/songs/:id", h.DeleteSong)
	rg.PUT("/:ref/album/order", h.ReorderAlbum)
}

// RegisterReadRoutes registers the read-only routes used by staff and engineers
func (h *Handler) RegisterReadRoutes(rg *gin.RouterGroup) {
	rg.GET("/:ref/roster", h.Roster)
	rg.GET("/:ref/classes", h.ListClasses)
	rg.GET("/:ref/groups", h.ListGroups)
	rg.GET("/:ref/songs", h.ListSongs)
	rg.GET("/:ref/album.pdf", h.AlbumPDF)
}

// Roster handles GET /events/:ref/roster
func (h *Handler) Roster(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.Roster(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListClasses handles GET /events/:ref/classes
func (h *Handler) ListClasses(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.ListClasses(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateClass handles POST /events/:ref/classes
func (h *Handler) CreateClass(c *gin.Context) {
	var req transport.ClassRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.CreateClass(c.Request.Context(), c.Param("ref"), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ImportClasses handles POST /events/:ref/classes/import
func (h *Handler) ImportClasses(c *gin.Context) {
	var req transport.ImportClassesRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.ImportClasses(c.Request.Context(), c.Param("ref"), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateClass handles PUT /events/:ref/classes/:id
func (h *Handler) UpdateClass(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.ClassRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.UpdateClass(c.Request.Context(), c.Param("ref"), id, identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteClass handles DELETE /events/:ref/classes/:id
func (h *Handler) DeleteClass(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteClass(c.Request.Context(), c.Param("ref"), id, identity)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// ListGroups handles GET /events/:ref/groups
func (h *Handler) ListGroups(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.ListGroups(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateGroup handles POST /events/:ref/groups
func (h *Handler) CreateGroup(c *gin.Context) {
	var req transport.GroupRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.CreateGroup(c.Request.Context(), c.Param("ref"), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateGroup handles PUT /events/:ref/groups/:id
func (h *Handler) UpdateGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.GroupRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.UpdateGroup(c.Request.Context(), c.Param("ref"), id, identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteGroup handles DELETE /events/:ref/groups/:id
func (h *Handler) DeleteGroup(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteGroup(c.Request.Context(), c.Param("ref"), id, identity)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// ListSongs handles GET /events/:ref/songs
func (h *Handler) ListSongs(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.ListSongs(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateSong handles POST /events/:ref/songs
func (h *Handler) CreateSong(c *gin.Context) {
	var req transport.SongRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.CreateSong(c.Request.Context(), c.Param("ref"), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// UpdateSong handles PUT /events/:ref/songs/:id
func (h *Handler) UpdateSong(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.SongRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.UpdateSong(c.Request.Context(), c.Param("ref"), id, identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// DeleteSong handles DELETE /events/:ref/songs/:id
func (h *Handler) DeleteSong(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteSong(c.Request.Context(), c.Param("ref"), id, identity)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// ReorderAlbum handles PUT /events/:ref/album/order
func (h *Handler) ReorderAlbum(c *gin.Context) {
	var req transport.ReorderAlbumRequest
	if !h.bind(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	result, err := h.svc.ReorderAlbum(c.Request.Context(), c.Param("ref"), identity, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// AlbumPDF handles GET /events/:ref/album.pdf
func (h *Handler) AlbumPDF(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	data, filename, err := h.svc.AlbumPDF(c.Request.Context(), c.Param("ref"), identity)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
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
