package domain

import "encoding/json"

// Perspective names a way of rendering the same filtered data.
type Perspective string

const (
	PerspectiveTable    Perspective = "table"
	PerspectiveKanban   Perspective = "kanban"
	PerspectiveCalendar Perspective = "calendar"
	PerspectiveGantt    Perspective = "ganttChart"
	PerspectiveForm     Perspective = "form"
	PerspectiveSearch   Perspective = "search"
)

type AttributeSortType string

const (
	SortAscending  AttributeSortType = "asc"
	SortDescending AttributeSortType = "desc"
)

// ResourceAttributeSettings is the stored preference for one attribute.
type ResourceAttributeSettings struct {
	AttributeID string            `json:"attributeId"`
	Hidden      bool              `json:"hidden,omitempty"`
	Sort        AttributeSortType `json:"sort,omitempty"`
	Width       int               `json:"width,omitempty"`
}

type AttributesSettings struct {
	Collections map[string][]ResourceAttributeSettings `json:"collections,omitempty"`
	LinkTypes   map[string][]ResourceAttributeSettings `json:"linkTypes,omitempty"`
	// keyed by "linkTypeId:collectionId"
	LinkTypesCollections map[string][]ResourceAttributeSettings `json:"linkTypesCollections,omitempty"`
}

type DataSettings struct {
	IncludeSubItems bool `json:"includeSubItems,omitempty"`
}

type ViewSettings struct {
	Attributes AttributesSettings `json:"attributes"`
	Data       DataSettings       `json:"data"`
}

// ForResource returns the attribute settings stored for a resource.
func (s *ViewSettings) ForResource(resourceType ResourceType, id string) []ResourceAttributeSettings {
	if s == nil {
		return nil
	}
	if resourceType == ResourceLinkType {
		return s.Attributes.LinkTypes[id]
	}
	return s.Attributes.Collections[id]
}

type View struct {
	ID                     string                          `json:"id"`
	Code                   string                          `json:"code"`
	Name                   string                          `json:"name"`
	AuthorID               string                          `json:"authorId"`
	Perspective            Perspective                     `json:"perspective"`
	Query                  Query                           `json:"query"`
	Config                 map[Perspective]json.RawMessage `json:"config,omitempty"`
	Settings               *ViewSettings                   `json:"settings,omitempty"`
	AuthorCollectionsRoles map[string][]RoleType           `json:"authorCollectionsRoles,omitempty"`
	AuthorLinkTypesRoles   map[string][]RoleType           `json:"authorLinkTypesRoles,omitempty"`
	Permissions            Permissions                     `json:"permissions"`
	Folders                []string                        `json:"folders,omitempty"`
}
