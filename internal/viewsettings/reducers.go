package viewsettings

import (
	"maps"
	"slices"

	"lumeer-engine/internal/domain"
)

// Hide marks the attributes hidden in the resource's settings. The input is not modified.
func Hide(settings *domain.ViewSettings, resource domain.AttributesResource, attributeIDs ...string) *domain.ViewSettings {
	return setHidden(settings, resource, attributeIDs, true)
}

// Show clears the hidden flag of the attributes.
func Show(settings *domain.ViewSettings, resource domain.AttributesResource, attributeIDs ...string) *domain.ViewSettings {
	return setHidden(settings, resource, attributeIDs, false)
}

func setHidden(settings *domain.ViewSettings, resource domain.AttributesResource, attributeIDs []string, hidden bool) *domain.ViewSettings {
	return modify(settings, resource, func(attributes []domain.ResourceAttributeSettings) []domain.ResourceAttributeSettings {
		for i := range attributes {
			if slices.Contains(attributeIDs, attributes[i].AttributeID) {
				attributes[i].Hidden = hidden
			}
		}
		return attributes
	})
}

// Move moves the attribute at position from to position to within the composed order.
// Out of range positions leave the settings unchanged.
func Move(settings *domain.ViewSettings, resource domain.AttributesResource, from, to int) *domain.ViewSettings {
	return modify(settings, resource, func(attributes []domain.ResourceAttributeSettings) []domain.ResourceAttributeSettings {
		if from < 0 || to < 0 || from >= len(attributes) || to >= len(attributes) || from == to {
			return attributes
		}
		moved := attributes[from]
		attributes = slices.Delete(attributes, from, from+1)
		return slices.Insert(attributes, to, moved)
	})
}

// Add places a newly created attribute at position, or at the end when position is out of range.
func Add(settings *domain.ViewSettings, resource domain.AttributesResource, attributeID string, position int) *domain.ViewSettings {
	return modify(settings, resource, func(attributes []domain.ResourceAttributeSettings) []domain.ResourceAttributeSettings {
		index := slices.IndexFunc(attributes, func(s domain.ResourceAttributeSettings) bool { return s.AttributeID == attributeID })
		entry := domain.ResourceAttributeSettings{AttributeID: attributeID}
		if index >= 0 {
			entry = attributes[index]
			attributes = slices.Delete(attributes, index, index+1)
		}
		if position < 0 || position > len(attributes) {
			position = len(attributes)
		}
		return slices.Insert(attributes, position, entry)
	})
}

// SetAttribute replaces the stored settings of one attribute.
func SetAttribute(settings *domain.ViewSettings, resource domain.AttributesResource, attribute domain.ResourceAttributeSettings) *domain.ViewSettings {
	return modify(settings, resource, func(attributes []domain.ResourceAttributeSettings) []domain.ResourceAttributeSettings {
		for i := range attributes {
			if attributes[i].AttributeID == attribute.AttributeID {
				attributes[i] = attribute
			}
		}
		return attributes
	})
}

// modify composes the resource's settings, applies fn to a private copy and stores the result
// in a copy of settings.
func modify(settings *domain.ViewSettings, resource domain.AttributesResource, fn func([]domain.ResourceAttributeSettings) []domain.ResourceAttributeSettings) *domain.ViewSettings {
	result := Clone(settings)
	attributes := fn(Compose(resource.Attributes, result.ForResource(resource.Type, resource.ID)))
	if resource.Type == domain.ResourceLinkType {
		if result.Attributes.LinkTypes == nil {
			result.Attributes.LinkTypes = make(map[string][]domain.ResourceAttributeSettings)
		}
		result.Attributes.LinkTypes[resource.ID] = attributes
	} else {
		if result.Attributes.Collections == nil {
			result.Attributes.Collections = make(map[string][]domain.ResourceAttributeSettings)
		}
		result.Attributes.Collections[resource.ID] = attributes
	}
	return result
}

// Clone deep-copies settings; nil yields empty settings.
func Clone(settings *domain.ViewSettings) *domain.ViewSettings {
	if settings == nil {
		return &domain.ViewSettings{}
	}
	return &domain.ViewSettings{
		Attributes: domain.AttributesSettings{
			Collections:          cloneAttributes(settings.Attributes.Collections),
			LinkTypes:            cloneAttributes(settings.Attributes.LinkTypes),
			LinkTypesCollections: cloneAttributes(settings.Attributes.LinkTypesCollections),
		},
		Data: settings.Data,
	}
}

func cloneAttributes(source map[string][]domain.ResourceAttributeSettings) map[string][]domain.ResourceAttributeSettings {
	if source == nil {
		return nil
	}
	result := maps.Clone(source)
	for key, value := range result {
		result[key] = slices.Clone(value)
	}
	return result
}

// State holds settings keyed by settings id (a view id, or a perspective key for unsaved views).
type State map[string]*domain.ViewSettings

// Set stores settings under id, returning a new state.
func (s State) Set(id string, settings *domain.ViewSettings) State {
	result := maps.Clone(s)
	if result == nil {
		result = make(State)
	}
	result[id] = Clone(settings)
	return result
}

// Reset replaces the settings under id with empty settings.
func (s State) Reset(id string) State {
	return s.Set(id, nil)
}

// Clear drops every stored setting.
func (s State) Clear() State {
	return State{}
}

// Get returns the settings stored under id, or nil.
func (s State) Get(id string) *domain.ViewSettings {
	return s[id]
}
