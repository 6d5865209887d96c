package activity

import (
	"net/http"
	"strconv"

	"minimusiker_backend/internal/shared/eventref"
	"minimusiker_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the activity history of an event
type Handler struct {
	repo     *Repository
	resolver eventref.Resolver
}

// NewHandler creates a new activity handler
func NewHandler(repo *Repository, resolver eventref.Resolver) *Handler {
	return &Handler{repo: repo, resolver: resolver}
}

// List handles GET /events/:ref/activity
func (h *Handler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpkit.Error(c, http.StatusBadRequest, "invalid limit", nil)
			return
		}
		limit = n
	}

	ev, err := h.resolver.Resolve(c.Request.Context(), c.Param("ref"))
	if httpkit.HandleError(c, err) {
		return
	}
	items, err := h.repo.ListByEvent(c.Request.Context(), ev.ID, limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, items)
}
