package table

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lumeer-engine/internal/domain"
	apiError "lumeer-engine/internal/errors"
	"lumeer-engine/internal/middleware"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/tables", h.Open)
	group.GET("/tables/:id", h.Show)
	group.DELETE("/tables/:id", h.Close)
	group.POST("/tables/:id/rows", h.AddRow)
	group.POST("/tables/:id/columns", h.AddColumn)
	group.POST("/tables/:id/select", h.Select)
	group.POST("/tables/:id/edit", h.Edit)
	group.POST("/tables/:id/input", h.Input)
	group.POST("/tables/:id/commit", h.Commit)
	group.POST("/tables/:id/cancel", h.Cancel)
}

type OpenTableRequest struct {
	ViewID string            `json:"viewId" binding:"required_without=Stem"`
	Stem   *domain.QueryStem `json:"stem"`
}

type AddRowRequest struct {
	Part          int    `json:"part" binding:"min=0"`
	PreviousRowID string `json:"previousRowId"`
}

type AddColumnRequest struct {
	Part int    `json:"part" binding:"min=0"`
	Name string `json:"name" binding:"required,max=255"`
}

type SelectRequest struct {
	Part   int    `json:"part" binding:"min=0"`
	RowID  string `json:"rowId" binding:"required"`
	Column int    `json:"column" binding:"min=0"`
}

type InputRequest struct {
	Value any `json:"value"`
}

type CommitRequest struct {
	SuggestionID string `json:"suggestionId"`
}

func (h *Handler) Open(c *gin.Context) {
	var input OpenTableRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apiError.NewValidationError(err))
		return
	}
	session, err := h.manager.Open(OpenRequest{ViewID: input.ViewID, Stem: input.Stem}, middleware.CurrentUser(c))
	if err != nil {
		c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusCreated, session.Snapshot())
}

func (h *Handler) Show(c *gin.Context) {
	h.with(c, func(*Session) error { return nil })
}

func (h *Handler) Close(c *gin.Context) {
	if err := h.manager.Close(c.Param("id"), middleware.CurrentUser(c)); err != nil {
		c.Error(toAppError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddRow(c *gin.Context) {
	var input AddRowRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apiError.NewValidationError(err))
		return
	}
	h.with(c, func(s *Session) error {
		_, err := s.AddRow(input.Part, input.PreviousRowID)
		return err
	})
}

func (h *Handler) AddColumn(c *gin.Context) {
	var input AddColumnRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apiError.NewValidationError(err))
		return
	}
	h.with(c, func(s *Session) error {
		_, err := s.AddColumn(input.Part, input.Name)
		return err
	})
}

func (h *Handler) Select(c *gin.Context) {
	var input SelectRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apiError.NewValidationError(err))
		return
	}
	h.with(c, func(s *Session) error {
		return s.Select(Cursor{Part: input.Part, RowID: input.RowID, Column: input.Column})
	})
}

func (h *Handler) Edit(c *gin.Context) {
	h.with(c, func(s *Session) error { return s.Edit() })
}

func (h *Handler) Input(c *gin.Context) {
	var input InputRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apiError.NewValidationError(err))
		return
	}
	h.with(c, func(s *Session) error { return s.Input(input.Value) })
}

func (h *Handler) Commit(c *gin.Context) {
	var input CommitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.Error(apiError.NewValidationError(err))
			return
		}
	}
	h.with(c, func(s *Session) error { return s.Commit(input.SuggestionID) })
}

func (h *Handler) Cancel(c *gin.Context) {
	h.with(c, func(s *Session) error { return s.Cancel() })
}

// with runs fn on the caller's session and renders the session afterwards.
func (h *Handler) with(c *gin.Context, fn func(*Session) error) {
	session, err := h.manager.Get(c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		c.Error(toAppError(err))
		return
	}
	if err := fn(session); err != nil {
		c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

func toAppError(err error) *apiError.AppError {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrViewNotFound):
		return apiError.NotFound(err.Error(), err)
	case errors.Is(err, ErrNotEditable):
		return apiError.Forbidden(err.Error(), err)
	case errors.Is(err, ErrUninitializedRow):
		return apiError.Conflict(err.Error(), err)
	case errors.Is(err, ErrNotEditing), errors.Is(err, ErrNoSelection), errors.Is(err, ErrInvalidCursor),
		errors.Is(err, ErrUnknownSuggestion), errors.Is(err, ErrNoStem):
		return apiError.UnprocessableEntity(err.Error(), err)
	}
	return apiError.Internal(err)
}
