package viewsettings

import (
	"context"

	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/errors"
	"lumeer-engine/internal/permission"
	"lumeer-engine/redis"
)

// Workspace gives read access to the entities settings refer to.
type Workspace interface {
	Workspace() domain.Workspace
	View(id string) (domain.View, bool)
	Collection(id string) (domain.Collection, bool)
	LinkType(id string) (domain.LinkType, bool)
}

// ResourceRef names the collection or link type a settings change applies to.
type ResourceRef struct {
	Type domain.ResourceType
	ID   string
}

type Service interface {
	GetSettings(ctx context.Context, viewID string, user *domain.User) (*domain.ViewSettings, error)
	SaveSettings(ctx context.Context, viewID string, user *domain.User, settings *domain.ViewSettings) (*domain.ViewSettings, error)
	ResetSettings(ctx context.Context, viewID string, user *domain.User) (*domain.ViewSettings, error)
	HideAttributes(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attributeIDs []string) (*domain.ViewSettings, error)
	ShowAttributes(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attributeIDs []string) (*domain.ViewSettings, error)
	MoveAttribute(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, from, to int) (*domain.ViewSettings, error)
	SetAttribute(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attribute domain.ResourceAttributeSettings) (*domain.ViewSettings, error)
}

type DefaultService struct {
	repository Repository
	workspace  Workspace
	cache      *redis.Cache
	log        zerolog.Logger
}

func NewService(repository Repository, workspace Workspace, cache *redis.Cache, log zerolog.Logger) Service {
	return &DefaultService{
		repository: repository,
		workspace:  workspace,
		cache:      cache,
		log:        log,
	}
}

// CanReconfigure reports whether the user may change the view's query and see hidden attributes.
// A nil view is always reconfigurable.
func CanReconfigure(workspace domain.Workspace, view *domain.View, user *domain.User) bool {
	roles := permission.ViewRoles(workspace.Organization, workspace.Project, view, user)
	return permission.CanChangeViewQuery(view, roles)
}

// GetSettings returns the user's saved settings, falling back to the settings saved with the view.
func (s *DefaultService) GetSettings(ctx context.Context, viewID string, user *domain.User) (*domain.ViewSettings, error) {
	view, err := s.view(viewID)
	if err != nil {
		return nil, err
	}
	stored, err := s.repository.Find(ctx, viewID, user.ID)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if stored != nil {
		return stored, nil
	}
	return Clone(view.Settings), nil
}

func (s *DefaultService) SaveSettings(ctx context.Context, viewID string, user *domain.User, settings *domain.ViewSettings) (*domain.ViewSettings, error) {
	if _, err := s.reconfigurableView(viewID, user); err != nil {
		return nil, err
	}
	return s.save(ctx, viewID, user, settings)
}

func (s *DefaultService) ResetSettings(ctx context.Context, viewID string, user *domain.User) (*domain.ViewSettings, error) {
	view, err := s.reconfigurableView(viewID, user)
	if err != nil {
		return nil, err
	}
	if err := s.repository.Delete(ctx, viewID, user.ID); err != nil {
		return nil, errors.Internal(err)
	}
	s.invalidate(ctx, viewID)
	return Clone(view.Settings), nil
}

func (s *DefaultService) HideAttributes(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attributeIDs []string) (*domain.ViewSettings, error) {
	return s.modify(ctx, viewID, user, resource, func(settings *domain.ViewSettings, r domain.AttributesResource) *domain.ViewSettings {
		return Hide(settings, r, attributeIDs...)
	})
}

func (s *DefaultService) ShowAttributes(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attributeIDs []string) (*domain.ViewSettings, error) {
	return s.modify(ctx, viewID, user, resource, func(settings *domain.ViewSettings, r domain.AttributesResource) *domain.ViewSettings {
		return Show(settings, r, attributeIDs...)
	})
}

func (s *DefaultService) MoveAttribute(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, from, to int) (*domain.ViewSettings, error) {
	return s.modify(ctx, viewID, user, resource, func(settings *domain.ViewSettings, r domain.AttributesResource) *domain.ViewSettings {
		return Move(settings, r, from, to)
	})
}

func (s *DefaultService) SetAttribute(ctx context.Context, viewID string, user *domain.User, resource ResourceRef, attribute domain.ResourceAttributeSettings) (*domain.ViewSettings, error) {
	return s.modify(ctx, viewID, user, resource, func(settings *domain.ViewSettings, r domain.AttributesResource) *domain.ViewSettings {
		if _, ok := domain.FindAttribute(r.Attributes, attribute.AttributeID); !ok {
			return settings
		}
		return SetAttribute(settings, r, attribute)
	})
}

func (s *DefaultService) modify(
	ctx context.Context,
	viewID string,
	user *domain.User,
	ref ResourceRef,
	fn func(*domain.ViewSettings, domain.AttributesResource) *domain.ViewSettings,
) (*domain.ViewSettings, error) {
	if _, err := s.reconfigurableView(viewID, user); err != nil {
		return nil, err
	}
	resource, err := s.resource(ref)
	if err != nil {
		return nil, err
	}
	current, err := s.GetSettings(ctx, viewID, user)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, viewID, user, fn(current, resource))
}

func (s *DefaultService) save(ctx context.Context, viewID string, user *domain.User, settings *domain.ViewSettings) (*domain.ViewSettings, error) {
	if err := s.repository.Save(ctx, viewID, user.ID, settings); err != nil {
		return nil, errors.Internal(err)
	}
	s.invalidate(ctx, viewID)
	s.log.Debug().Str("view", viewID).Str("user", user.ID).Msg("view settings saved")
	return settings, nil
}

// invalidate bumps the view version so cached read models are rebuilt.
func (s *DefaultService) invalidate(ctx context.Context, viewID string) {
	s.cache.IncrementVersion(ctx, redis.ViewVersionKey(viewID))
}

func (s *DefaultService) view(viewID string) (*domain.View, error) {
	view, ok := s.workspace.View(viewID)
	if !ok {
		return nil, errors.NotFound("View not found", nil)
	}
	return &view, nil
}

func (s *DefaultService) reconfigurableView(viewID string, user *domain.User) (*domain.View, error) {
	view, err := s.view(viewID)
	if err != nil {
		return nil, err
	}
	if !CanReconfigure(s.workspace.Workspace(), view, user) {
		return nil, errors.Forbidden("You can't change settings of this view", nil)
	}
	return view, nil
}

func (s *DefaultService) resource(ref ResourceRef) (domain.AttributesResource, error) {
	switch ref.Type {
	case domain.ResourceCollection:
		if collection, ok := s.workspace.Collection(ref.ID); ok {
			return collection.AsResource(), nil
		}
	case domain.ResourceLinkType:
		if linkType, ok := s.workspace.LinkType(ref.ID); ok {
			return linkType.AsResource(), nil
		}
	default:
		return domain.AttributesResource{}, errors.BadRequest("Unknown resource type", nil)
	}
	return domain.AttributesResource{}, errors.NotFound("Resource not found", nil)
}
