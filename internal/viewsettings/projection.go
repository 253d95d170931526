// Package viewsettings projects collections and link types through the per-view attribute
// settings (hidden, order, sort, width) and persists those settings.
package viewsettings

import (
	"lumeer-engine/internal/domain"
)

// ProjectedAttribute is an attribute as a perspective should render it.
type ProjectedAttribute struct {
	domain.Attribute
	Hidden bool                     `json:"hidden,omitempty"`
	Sort   domain.AttributeSortType `json:"sort,omitempty"`
	Width  int                      `json:"width,omitempty"`
}

// Projection is a resource with its attributes ordered and filtered for display.
type Projection struct {
	ResourceID   string               `json:"resourceId"`
	ResourceType domain.ResourceType  `json:"resourceType"`
	Attributes   []ProjectedAttribute `json:"attributes"`
}

// ApplyVisibility orders the resource's attributes by the settings, followed by attributes the
// settings do not mention in declared order. Users who cannot reconfigure the view do not get
// hidden attributes at all; everybody else gets them with the Hidden hint set.
// The resource itself is never modified.
func ApplyVisibility(resource domain.AttributesResource, settings []domain.ResourceAttributeSettings, canReconfigure bool) Projection {
	projection := Projection{
		ResourceID:   resource.ID,
		ResourceType: resource.Type,
		Attributes:   make([]ProjectedAttribute, 0, len(resource.Attributes)),
	}
	for _, setting := range Compose(resource.Attributes, settings) {
		if setting.Hidden && !canReconfigure {
			continue
		}
		attribute, _ := domain.FindAttribute(resource.Attributes, setting.AttributeID)
		projection.Attributes = append(projection.Attributes, ProjectedAttribute{
			Attribute: attribute,
			Hidden:    setting.Hidden,
			Sort:      setting.Sort,
			Width:     setting.Width,
		})
	}
	return projection
}

// Compose returns one settings entry per existing attribute: stored entries first in their
// stored order, then the remaining attributes in declared order. Entries for attributes that no
// longer exist are dropped.
func Compose(attributes []domain.Attribute, settings []domain.ResourceAttributeSettings) []domain.ResourceAttributeSettings {
	exists := make(map[string]bool, len(attributes))
	for _, attribute := range attributes {
		exists[attributeKey(attribute)] = true
	}
	result := make([]domain.ResourceAttributeSettings, 0, len(attributes))
	used := make(map[string]bool, len(settings))
	for _, setting := range settings {
		if exists[setting.AttributeID] && !used[setting.AttributeID] {
			used[setting.AttributeID] = true
			result = append(result, setting)
		}
	}
	for _, attribute := range attributes {
		if key := attributeKey(attribute); !used[key] {
			result = append(result, domain.ResourceAttributeSettings{AttributeID: key})
		}
	}
	return result
}

func attributeKey(attribute domain.Attribute) string {
	if attribute.ID != "" {
		return attribute.ID
	}
	return attribute.CorrelationID
}

// VisibleCollections returns copies of the collections without the attributes hidden by the
// settings, unless the user can reconfigure the view.
func VisibleCollections(collections []domain.Collection, settings *domain.ViewSettings, canReconfigure bool) []domain.Collection {
	if canReconfigure {
		return collections
	}
	result := make([]domain.Collection, 0, len(collections))
	for _, collection := range collections {
		collection.Attributes = visibleAttributes(collection.Attributes, settings.ForResource(domain.ResourceCollection, collection.ID))
		result = append(result, collection)
	}
	return result
}

// VisibleLinkTypes is VisibleCollections for link types.
func VisibleLinkTypes(linkTypes []domain.LinkType, settings *domain.ViewSettings, canReconfigure bool) []domain.LinkType {
	if canReconfigure {
		return linkTypes
	}
	result := make([]domain.LinkType, 0, len(linkTypes))
	for _, linkType := range linkTypes {
		linkType.Attributes = visibleAttributes(linkType.Attributes, settings.ForResource(domain.ResourceLinkType, linkType.ID))
		result = append(result, linkType)
	}
	return result
}

func visibleAttributes(attributes []domain.Attribute, settings []domain.ResourceAttributeSettings) []domain.Attribute {
	hidden := make(map[string]bool)
	for _, setting := range settings {
		if setting.Hidden {
			hidden[setting.AttributeID] = true
		}
	}
	result := make([]domain.Attribute, 0, len(attributes))
	for _, attribute := range attributes {
		if !hidden[attributeKey(attribute)] {
			result = append(result, attribute)
		}
	}
	return result
}
