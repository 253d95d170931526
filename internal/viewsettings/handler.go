package viewsettings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/errors"
	"lumeer-engine/internal/middleware"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterValidations adds the settings specific tags to gin's validator.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("sorttype", func(fl validator.FieldLevel) bool {
		switch domain.AttributeSortType(fl.Field().String()) {
		case "", domain.SortAscending, domain.SortDescending:
			return true
		}
		return false
	}); err != nil {
		return err
	}
	return v.RegisterValidation("resourcetype", func(fl validator.FieldLevel) bool {
		switch domain.ResourceType(fl.Field().String()) {
		case domain.ResourceCollection, domain.ResourceLinkType:
			return true
		}
		return false
	})
}

func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/views/:id/settings", h.Show)
	group.PUT("/views/:id/settings", h.Update)
	group.DELETE("/views/:id/settings", h.Reset)
	group.POST("/views/:id/settings/attributes/hide", h.HideAttributes)
	group.POST("/views/:id/settings/attributes/show", h.ShowAttributes)
	group.POST("/views/:id/settings/attributes/move", h.MoveAttribute)
	group.POST("/views/:id/settings/attributes/set", h.SetAttribute)
}

type ResourceRequest struct {
	ResourceType string `json:"resourceType" binding:"required,resourcetype"`
	ResourceID   string `json:"resourceId" binding:"required"`
}

func (r ResourceRequest) ref() ResourceRef {
	return ResourceRef{Type: domain.ResourceType(r.ResourceType), ID: r.ResourceID}
}

type AttributesRequest struct {
	ResourceRequest
	AttributeIDs []string `json:"attributeIds" binding:"required,min=1,dive,required"`
}

type MoveRequest struct {
	ResourceRequest
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to" binding:"required,min=0"`
}

type SetAttributeRequest struct {
	ResourceRequest
	AttributeID string `json:"attributeId" binding:"required"`
	Hidden      bool   `json:"hidden"`
	Sort        string `json:"sort" binding:"sorttype"`
	Width       int    `json:"width" binding:"min=0"`
}

func (h *Handler) Show(c *gin.Context) {
	settings, err := h.service.GetSettings(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) Update(c *gin.Context) {
	var settings domain.ViewSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	result, err := h.service.SaveSettings(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), &settings)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) Reset(c *gin.Context) {
	result, err := h.service.ResetSettings(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HideAttributes(c *gin.Context) {
	var input AttributesRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	result, err := h.service.HideAttributes(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), input.ref(), input.AttributeIDs)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ShowAttributes(c *gin.Context) {
	var input AttributesRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	result, err := h.service.ShowAttributes(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), input.ref(), input.AttributeIDs)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) MoveAttribute(c *gin.Context) {
	var input MoveRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	result, err := h.service.MoveAttribute(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), input.ref(), *input.From, *input.To)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) SetAttribute(c *gin.Context) {
	var input SetAttributeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}
	attribute := domain.ResourceAttributeSettings{
		AttributeID: input.AttributeID,
		Hidden:      input.Hidden,
		Sort:        domain.AttributeSortType(input.Sort),
		Width:       input.Width,
	}
	result, err := h.service.SetAttribute(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c), input.ref(), attribute)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
