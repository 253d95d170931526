package perspective

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"lumeer-engine/internal/domain"
	apiError "lumeer-engine/internal/errors"
	"lumeer-engine/internal/middleware"
	"lumeer-engine/internal/permission"
)

type Handler struct {
	registry *Registry
	store    Store
}

func NewHandler(registry *Registry, s Store) *Handler {
	return &Handler{registry: registry, store: s}
}

func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/views/:id/config/:perspective", h.Show)
	group.PUT("/views/:id/config/:perspective", h.Update)
}

func (h *Handler) Show(c *gin.Context) {
	p, err := h.registry.Get(domain.Perspective(c.Param("perspective")))
	if err != nil {
		c.Error(toAppError(err))
		return
	}
	config, err := p.Config(c.Param("id"))
	if err != nil {
		c.Error(toAppError(err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", config)
}

func (h *Handler) Update(c *gin.Context) {
	p, err := h.registry.Get(domain.Perspective(c.Param("perspective")))
	if err != nil {
		c.Error(toAppError(err))
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		c.Error(apiError.BadRequest("Invalid config", err))
		return
	}

	state := h.store.State()
	view, ok := state.Views[c.Param("id")]
	if !ok {
		c.Error(toAppError(ErrViewNotFound))
		return
	}
	roles := permission.ViewRoles(state.Workspace.Organization, state.Workspace.Project, &view, middleware.CurrentUser(c))
	if !permission.CanManageViewConfig(&view, roles) {
		c.Error(apiError.Forbidden("You cannot change the configuration of this view", nil))
		return
	}

	config, err := p.OnConfigChanged(view.ID, body)
	if err != nil {
		c.Error(toAppError(err))
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", config)
}

func toAppError(err error) *apiError.AppError {
	switch {
	case errors.Is(err, ErrViewNotFound), errors.Is(err, ErrUnsupportedPerspective):
		return apiError.NotFound(err.Error(), err)
	}
	return apiError.Internal(err)
}
