package readmodel

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/middleware"
	"lumeer-engine/internal/query"
	"lumeer-engine/internal/utils"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/permissions", h.Permissions)
	group.GET("/data", h.QueryData)
	group.GET("/views/:id/data", h.ViewData)
	group.GET("/views/:id/collections", h.Collections)
}

func (h *Handler) Permissions(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Permissions(middleware.CurrentUser(c)))
}

// QueryData evaluates the query encoded in the q parameter. A malformed query selects everything.
// page and per_page override the query's own pagination.
func (h *Handler) QueryData(c *gin.Context) {
	q := query.DecodeQuery(c.Query("q"))
	if page, pageSize, ok := utils.GetPaginationParams(c); ok {
		if q == nil {
			q = &domain.Query{}
		}
		q.Page, q.PageSize = &page, &pageSize
	}
	c.JSON(http.StatusOK, h.service.QueryData(q, middleware.CurrentUser(c)))
}

func (h *Handler) ViewData(c *gin.Context) {
	data, err := h.service.ViewData(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) Collections(c *gin.Context) {
	collections, err := h.service.Collections(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, collections)
}
