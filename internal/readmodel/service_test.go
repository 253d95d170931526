package readmodel

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lumeer-engine/internal/domain"
	apiError "lumeer-engine/internal/errors"
	"lumeer-engine/internal/logger"
	"lumeer-engine/internal/store"
	"lumeer-engine/redis"
)

type MockSettings struct {
	mock.Mock
}

func (m *MockSettings) GetSettings(ctx context.Context, viewID string, user *domain.User) (*domain.ViewSettings, error) {
	args := m.Called(ctx, viewID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ViewSettings), args.Error(1)
}

var reader = &domain.User{ID: "u1"}

func grant(userID string, types ...domain.RoleType) domain.Permissions {
	roles := make([]domain.Role, 0, len(types))
	for _, t := range types {
		roles = append(roles, domain.Role{Type: t})
	}
	return domain.Permissions{Users: []domain.Permission{{ID: userID, Roles: roles}}}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(logger.Nop())
	require.NoError(t, err)

	actions := []store.Action{
		store.UpsertCollections{Collections: []domain.Collection{
			{ID: "c1", Name: "Tasks", Attributes: []domain.Attribute{{ID: "a1", Name: "Title"}, {ID: "a2", Name: "Secret"}}, Permissions: grant("u1", domain.RoleRead, domain.RoleDataRead)},
			{ID: "c2", Name: "Payroll", Attributes: []domain.Attribute{{ID: "b1", Name: "Amount"}}},
		}},
		store.UpsertDocuments{Documents: []domain.Document{
			{ID: "d1", CollectionID: "c1", Data: map[string]any{"a1": "Beta", "a2": "x"}},
			{ID: "d2", CollectionID: "c1", Data: map[string]any{"a1": "Alpha", "a2": "y"}},
			{ID: "d3", CollectionID: "c2", Data: map[string]any{"b1": "1000"}},
		}},
		store.UpsertViews{Views: []domain.View{
			{ID: "v1", AuthorID: "author", Query: domain.Query{Stems: []domain.QueryStem{{CollectionID: "c1"}}}, Permissions: grant("u1", domain.RoleRead)},
			{ID: "v2", AuthorID: "author", Query: domain.Query{Fulltexts: []string{"alpha"}}, Permissions: grant("u1", domain.RoleRead)},
		}},
	}
	for _, action := range actions {
		_, err := s.Dispatch(action)
		require.NoError(t, err)
	}
	return s
}

func hiddenSecretSortedByTitle() *domain.ViewSettings {
	return &domain.ViewSettings{Attributes: domain.AttributesSettings{Collections: map[string][]domain.ResourceAttributeSettings{
		"c1": {{AttributeID: "a1", Sort: domain.SortAscending}, {AttributeID: "a2", Hidden: true}},
	}}}
}

func newTestService(t *testing.T, s *store.Store, settings Settings) (*Service, *redis.Cache) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := redis.NewCache(client)
	return NewService(context.Background(), s, settings, cache, time.Minute, logger.Nop()), cache
}

func documentIDs(documents []domain.Document) []string {
	ids := make([]string, 0, len(documents))
	for _, document := range documents {
		ids = append(ids, document.ID)
	}
	return ids
}

func TestService_ViewDataComposesPermissionsFilterAndSettings(t *testing.T) {
	settings := new(MockSettings)
	settings.On("GetSettings", mock.Anything, "v1", reader).Return(hiddenSecretSortedByTitle(), nil)
	service, _ := newTestService(t, newTestStore(t), settings)

	data, err := service.ViewData(context.Background(), "v1", reader)
	require.NoError(t, err)

	assert.Equal(t, "v1", data.ViewID)
	assert.False(t, data.CanReconfigure)
	assert.Equal(t, []string{"d2", "d1"}, documentIDs(data.Documents))
	require.Len(t, data.Collections, 1)
	assert.Equal(t, "c1", data.Collections[0].ID)
	assert.Equal(t, []domain.Attribute{{ID: "a1", Name: "Title"}}, data.Collections[0].Attributes)
	assert.True(t, data.Permissions.Collections["c1"].Roles.Has(domain.RoleDataRead))
	assert.False(t, data.Permissions.Collections["c2"].RolesWithView.Has(domain.RoleDataRead))
}

func TestService_ViewDataIsCachedUntilStateOrSettingsChange(t *testing.T) {
	s := newTestStore(t)
	settings := new(MockSettings)
	settings.On("GetSettings", mock.Anything, "v1", reader).Return(hiddenSecretSortedByTitle(), nil)
	service, cache := newTestService(t, s, settings)
	ctx := context.Background()

	first, err := service.ViewData(ctx, "v1", reader)
	require.NoError(t, err)
	second, err := service.ViewData(ctx, "v1", reader)
	require.NoError(t, err)
	assert.Equal(t, documentIDs(first.Documents), documentIDs(second.Documents))
	settings.AssertNumberOfCalls(t, "GetSettings", 1)

	_, err = s.Dispatch(store.UpsertDocuments{Documents: []domain.Document{{ID: "d4", CollectionID: "c1", Data: map[string]any{"a1": "Aaron"}}}})
	require.NoError(t, err)
	third, err := service.ViewData(ctx, "v1", reader)
	require.NoError(t, err)
	assert.Equal(t, []string{"d4", "d2", "d1"}, documentIDs(third.Documents))
	settings.AssertNumberOfCalls(t, "GetSettings", 2)

	cache.IncrementVersion(ctx, redis.ViewVersionKey("v1"))
	_, err = service.ViewData(ctx, "v1", reader)
	require.NoError(t, err)
	settings.AssertNumberOfCalls(t, "GetSettings", 3)
}

func TestService_WorksWithoutRedis(t *testing.T) {
	settings := new(MockSettings)
	settings.On("GetSettings", mock.Anything, "v1", reader).Return(nil, nil)
	service := NewService(context.Background(), newTestStore(t), settings, redis.NewCache(nil), time.Minute, logger.Nop())

	data, err := service.ViewData(context.Background(), "v1", reader)

	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, documentIDs(data.Documents))
	assert.Len(t, data.Collections[0].Attributes, 2)
}

func TestService_ViewNotFound(t *testing.T) {
	settings := new(MockSettings)
	service, _ := newTestService(t, newTestStore(t), settings)

	_, err := service.ViewData(context.Background(), "missing", reader)

	appErr, ok := apiError.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
	settings.AssertNotCalled(t, "GetSettings", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SettingsErrorIsReturned(t *testing.T) {
	settings := new(MockSettings)
	settings.On("GetSettings", mock.Anything, "v1", reader).Return(nil, apiError.Internal(assert.AnError))
	service, _ := newTestService(t, newTestStore(t), settings)

	_, err := service.ViewData(context.Background(), "v1", reader)

	assert.ErrorIs(t, err, assert.AnError)
}

func TestService_CollectionsIncludesFulltextMatches(t *testing.T) {
	settings := new(MockSettings)
	settings.On("GetSettings", mock.Anything, "v2", reader).Return(nil, nil)
	service, _ := newTestService(t, newTestStore(t), settings)

	collections, err := service.Collections(context.Background(), "v2", reader)
	require.NoError(t, err)

	require.Len(t, collections, 1)
	assert.Equal(t, "c1", collections[0].ID)
}

func TestService_CollectionsIgnoresPagination(t *testing.T) {
	s := newTestStore(t)
	page, pageSize := 0, 1
	actions := []store.Action{
		store.UpsertCollections{Collections: []domain.Collection{
			{ID: "c3", Name: "Notes", Attributes: []domain.Attribute{{ID: "n1", Name: "Text"}}, Permissions: grant("u1", domain.RoleRead, domain.RoleDataRead)},
		}},
		store.UpsertDocuments{Documents: []domain.Document{
			{ID: "d4", CollectionID: "c3", Data: map[string]any{"n1": "alpha note"}},
		}},
		store.UpsertViews{Views: []domain.View{
			{ID: "v3", AuthorID: "author", Query: domain.Query{Fulltexts: []string{"alpha"}, Page: &page, PageSize: &pageSize}, Permissions: grant("u1", domain.RoleRead)},
		}},
	}
	for _, action := range actions {
		_, err := s.Dispatch(action)
		require.NoError(t, err)
	}
	settings := new(MockSettings)
	settings.On("GetSettings", mock.Anything, "v3", reader).Return(nil, nil)
	service, _ := newTestService(t, s, settings)

	data, err := service.ViewData(context.Background(), "v3", reader)
	require.NoError(t, err)
	assert.Equal(t, []string{"d2"}, documentIDs(data.Documents))

	collections, err := service.Collections(context.Background(), "v3", reader)
	require.NoError(t, err)
	ids := make([]string, 0, len(collections))
	for _, collection := range collections {
		ids = append(ids, collection.ID)
	}
	assert.ElementsMatch(t, []string{"c1", "c3"}, ids)
}

func TestService_QueryDataAndPermissions(t *testing.T) {
	service, _ := newTestService(t, newTestStore(t), new(MockSettings))

	data := service.QueryData(nil, reader)
	assert.Equal(t, []string{"d1", "d2"}, documentIDs(data.Documents))
	assert.True(t, data.CanReconfigure)

	permissions := service.Permissions(reader)
	assert.True(t, permissions.Collections["c1"].Roles.Has(domain.RoleRead))
	assert.Empty(t, permissions.Collections["c2"].Roles)
}
