package viewsettings

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lumeer-engine/internal/domain"
	apiError "lumeer-engine/internal/errors"
	"lumeer-engine/internal/logger"
	"lumeer-engine/internal/middleware"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) result(args mock.Arguments) (*domain.ViewSettings, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ViewSettings), args.Error(1)
}

func (m *MockService) GetSettings(ctx context.Context, viewID string, user *domain.User) (*domain.ViewSettings, error) {
	return m.result(m.Called(ctx, viewID, user))
}

func (m *MockService) SaveSettings(ctx context.Context, viewID string, user *domain.User, settings *domain.ViewSettings) (*domain.ViewSettings, error) {
	return m.result(m.Called(ctx, viewID, user, settings))
}

func (m *MockService) ResetSettings(ctx context.Context, viewID string, user *domain.User) (*domain.ViewSettings, error) {
	return m.result(m.Called(ctx, viewID, user))
}

func (m *MockService) HideAttributes(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attributeIDs []string) (*domain.ViewSettings, error) {
	return m.result(m.Called(ctx, viewID, user, resource, attributeIDs))
}

func (m *MockService) ShowAttributes(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attributeIDs []string) (*domain.ViewSettings, error) {
	return m.result(m.Called(ctx, viewID, user, resource, attributeIDs))
}

func (m *MockService) MoveAttribute(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, from, to int) (*domain.ViewSettings, error) {
	return m.result(m.Called(ctx, viewID, user, resource, from, to))
}

func (m *MockService) SetAttribute(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attribute domain.ResourceAttributeSettings) (*domain.ViewSettings, error) {
	return m.result(m.Called(ctx, viewID, user, resource, attribute))
}

var currentUser = &domain.User{ID: "u1"}

func setupRouter(t *testing.T, service Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidations())
	r := gin.New()
	r.Use(middleware.ErrorHandler(logger.Nop()))
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserKey, currentUser)
		c.Next()
	})
	NewHandler(service).Register(r.Group(""))
	return r
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Show(t *testing.T) {
	service := new(MockService)
	service.On("GetSettings", mock.Anything, "v1", currentUser).
		Return(&domain.ViewSettings{Data: domain.DataSettings{IncludeSubItems: true}}, nil)

	w := perform(setupRouter(t, service), http.MethodGet, "/views/v1/settings", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"includeSubItems":true`)
}

func TestHandler_ShowNotFound(t *testing.T) {
	service := new(MockService)
	service.On("GetSettings", mock.Anything, "v9", currentUser).Return(nil, apiError.NotFound("View not found", nil))

	w := perform(setupRouter(t, service), http.MethodGet, "/views/v9/settings", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Hide(t *testing.T) {
	service := new(MockService)
	ref := ResourceRef{Type: domain.ResourceCollection, ID: "c1"}
	service.On("HideAttributes", mock.Anything, "v1", currentUser, ref, []string{"a1", "a2"}).Return(&domain.ViewSettings{}, nil)

	w := perform(setupRouter(t, service), http.MethodPost, "/views/v1/settings/attributes/hide",
		`{"resourceType":"collection","resourceId":"c1","attributeIds":["a1","a2"]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestHandler_HideRejectsInvalidResourceType(t *testing.T) {
	service := new(MockService)

	w := perform(setupRouter(t, service), http.MethodPost, "/views/v1/settings/attributes/hide",
		`{"resourceType":"folder","resourceId":"c1","attributeIds":["a1"]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "resourcetype")
	service.AssertNotCalled(t, "HideAttributes")
}

func TestHandler_Move(t *testing.T) {
	service := new(MockService)
	ref := ResourceRef{Type: domain.ResourceLinkType, ID: "l1"}
	service.On("MoveAttribute", mock.Anything, "v1", currentUser, ref, 0, 2).Return(&domain.ViewSettings{}, nil)

	router := setupRouter(t, service)
	ok := perform(router, http.MethodPost, "/views/v1/settings/attributes/move", `{"resourceType":"linkType","resourceId":"l1","from":0,"to":2}`)
	missing := perform(router, http.MethodPost, "/views/v1/settings/attributes/move", `{"resourceType":"linkType","resourceId":"l1","to":2}`)

	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestHandler_SetRejectsUnknownSort(t *testing.T) {
	service := new(MockService)

	w := perform(setupRouter(t, service), http.MethodPost, "/views/v1/settings/attributes/set",
		`{"resourceType":"collection","resourceId":"c1","attributeId":"a1","sort":"sideways"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "sorttype")
}

func TestHandler_SetAttribute(t *testing.T) {
	service := new(MockService)
	ref := ResourceRef{Type: domain.ResourceCollection, ID: "c1"}
	attribute := domain.ResourceAttributeSettings{AttributeID: "a1", Sort: domain.SortDescending, Width: 90}
	service.On("SetAttribute", mock.Anything, "v1", currentUser, ref, attribute).Return(&domain.ViewSettings{}, nil)

	w := perform(setupRouter(t, service), http.MethodPost, "/views/v1/settings/attributes/set",
		`{"resourceType":"collection","resourceId":"c1","attributeId":"a1","sort":"desc","width":90}`)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestHandler_UpdateAndReset(t *testing.T) {
	service := new(MockService)
	service.On("SaveSettings", mock.Anything, "v1", currentUser, mock.AnythingOfType("*domain.ViewSettings")).Return(&domain.ViewSettings{}, nil)
	service.On("ResetSettings", mock.Anything, "v1", currentUser).Return(&domain.ViewSettings{}, nil)
	router := setupRouter(t, service)

	updated := perform(router, http.MethodPut, "/views/v1/settings", `{"attributes":{"collections":{"c1":[{"attributeId":"a1","hidden":true}]}}}`)
	reset := perform(router, http.MethodDelete, "/views/v1/settings", "")

	assert.Equal(t, http.StatusOK, updated.Code)
	assert.Equal(t, http.StatusOK, reset.Code)
	service.AssertExpectations(t)
}
