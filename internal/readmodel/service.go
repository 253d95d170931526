// Package readmodel composes permissions, query filtering and view settings into the data a
// perspective renders.
package readmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/errors"
	"lumeer-engine/internal/permission"
	"lumeer-engine/internal/query"
	"lumeer-engine/internal/store"
	"lumeer-engine/internal/utils"
	"lumeer-engine/internal/viewsettings"
	"lumeer-engine/redis"
)

// Workspace is the read side of the local store.
type Workspace interface {
	State() store.State
}

// Settings resolves the view settings effective for a user.
type Settings interface {
	GetSettings(ctx context.Context, viewID string, user *domain.User) (*domain.ViewSettings, error)
}

// ViewData is everything a perspective needs to render a view for one user.
type ViewData struct {
	ViewID         string                      `json:"viewId,omitempty"`
	Query          domain.Query                `json:"query"`
	CanReconfigure bool                        `json:"canReconfigure"`
	Permissions    domain.ResourcesPermissions `json:"permissions"`
	Collections    []domain.Collection         `json:"collections"`
	LinkTypes      []domain.LinkType           `json:"linkTypes"`
	Documents      []domain.Document           `json:"documents"`
	LinkInstances  []domain.LinkInstance       `json:"linkInstances"`

	// QueryCollections are the visible collections the query touches, full-text matches
	// included, over every matching document rather than the requested page.
	QueryCollections []domain.Collection `json:"queryCollections"`
}

type Service struct {
	workspace  Workspace
	settings   Settings
	cache      *redis.Cache
	ttl        time.Duration
	generation int64
	log        zerolog.Logger
}

// NewService bumps the workspace generation so entries cached by earlier processes are never
// served against a freshly loaded store.
func NewService(ctx context.Context, workspace Workspace, settings Settings, cache *redis.Cache, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		workspace:  workspace,
		settings:   settings,
		cache:      cache,
		ttl:        ttl,
		generation: cache.IncrementVersion(ctx, redis.WorkspaceVersionKey),
		log:        log,
	}
}

// Permissions returns the user's roles on every collection and link type, without a view.
func (s *Service) Permissions(user *domain.User) domain.ResourcesPermissions {
	state := s.workspace.State()
	return permission.ComputeResourcesPermissions(permission.Input{
		Organization: state.Workspace.Organization,
		Project:      state.Workspace.Project,
		Collections:  state.CollectionsList(),
		LinkTypes:    state.LinkTypesList(),
		User:         user,
	})
}

// ViewData returns the sorted, filtered and projected data of the view. Results are cached per
// store version, settings version and user.
func (s *Service) ViewData(ctx context.Context, viewID string, user *domain.User) (*ViewData, error) {
	state := s.workspace.State()
	view, ok := state.Views[viewID]
	if !ok {
		return nil, errors.NotFound("View not found", nil)
	}

	key := s.cacheKey(ctx, state, viewID, user)
	var cached ViewData
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("read model cache unavailable")
	} else if found {
		return &cached, nil
	}

	settings, err := s.settings.GetSettings(ctx, viewID, user)
	if err != nil {
		return nil, err
	}
	data := s.compose(state, &view, &view.Query, settings, user)
	data.ViewID = viewID

	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("read model not cached")
	}
	return data, nil
}

// QueryData evaluates an ad-hoc query outside of any view. Nothing is hidden. Documents are
// paginated when the query carries both page and page size.
func (s *Service) QueryData(q *domain.Query, user *domain.User) *ViewData {
	if q == nil {
		q = &domain.Query{}
	}
	return s.compose(s.workspace.State(), nil, q, nil, user)
}

// Collections returns the visible collections the view's query touches, including collections
// matched only by full-text.
func (s *Service) Collections(ctx context.Context, viewID string, user *domain.User) ([]domain.Collection, error) {
	data, err := s.ViewData(ctx, viewID, user)
	if err != nil {
		return nil, err
	}
	return data.QueryCollections, nil
}

func (s *Service) compose(state store.State, view *domain.View, q *domain.Query, settings *domain.ViewSettings, user *domain.User) *ViewData {
	collections := state.CollectionsList()
	linkTypes := state.LinkTypesList()
	constraintData := state.ConstraintData()

	permissions := permission.ComputeResourcesPermissions(permission.Input{
		Organization: state.Workspace.Organization,
		Project:      state.Workspace.Project,
		View:         view,
		Collections:  collections,
		LinkTypes:    linkTypes,
		User:         user,
	})
	result := query.FilterDocumentsAndLinksByQuery(query.Input{
		Documents:              state.DocumentsList(),
		Collections:            collections,
		LinkTypes:              linkTypes,
		LinkInstances:          state.LinkInstancesList(),
		Query:                  q,
		CollectionsPermissions: permissions.Collections,
		LinkTypesPermissions:   permissions.LinkTypes,
		User:                   user,
		ConstraintData:         constraintData,
		IncludeSubItems:        settings != nil && settings.Data.IncludeSubItems,
	})

	canReconfigure := viewsettings.CanReconfigure(state.Workspace, view, user)
	visible := viewsettings.VisibleCollections(readableCollections(collections, permissions.Collections), settings, canReconfigure)

	documents := viewsettings.SortDocuments(result.Documents, collections, settings, constraintData)
	queryCollections := query.FilterCollectionsByQuery(visible, documents, linkTypes, q, constraintData)
	if q.Page != nil && q.PageSize != nil {
		documents = utils.Paginate(documents, *q.Page, *q.PageSize)
	}

	return &ViewData{
		Query:            *q,
		CanReconfigure:   canReconfigure,
		Permissions:      permissions,
		Collections:      visible,
		QueryCollections: queryCollections,
		LinkTypes:        viewsettings.VisibleLinkTypes(readableLinkTypes(linkTypes, permissions.LinkTypes), settings, canReconfigure),
		Documents:        documents,
		LinkInstances:    viewsettings.SortLinkInstances(result.LinkInstances, linkTypes, settings, constraintData),
	}
}

func (s *Service) cacheKey(ctx context.Context, state store.State, viewID string, user *domain.User) string {
	userID := ""
	if user != nil {
		userID = user.ID
	}
	viewVersion := s.cache.GetVersion(ctx, redis.ViewVersionKey(viewID))
	return fmt.Sprintf("readmodel:%d:%d:%d:%s:%s", s.generation, state.Version, viewVersion, viewID, userID)
}

func readableCollections(collections []domain.Collection, permissions domain.AllowedPermissionsMap) []domain.Collection {
	result := make([]domain.Collection, 0, len(collections))
	for _, collection := range collections {
		if canRead(permissions[collection.ID]) {
			result = append(result, collection)
		}
	}
	return result
}

func readableLinkTypes(linkTypes []domain.LinkType, permissions domain.AllowedPermissionsMap) []domain.LinkType {
	result := make([]domain.LinkType, 0, len(linkTypes))
	for _, linkType := range linkTypes {
		if canRead(permissions[linkType.ID]) {
			result = append(result, linkType)
		}
	}
	return result
}

func canRead(permissions domain.AllowedPermissions) bool {
	return permissions.RolesWithView.HasAny(domain.RoleRead, domain.RoleDataRead)
}
