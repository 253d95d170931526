package query

import (
	"lumeer-engine/internal/domain"
)

// CanReadDocument reports whether the user may see a document of a collection they lack
// DataRead on: contributors see their own documents, assignees see their tasks.
func CanReadDocument(document domain.Document, collection domain.Collection, permissions domain.AllowedPermissions, user *domain.User) bool {
	roles := permissions.RolesWithView
	if roles.Has(domain.RoleDataRead) {
		return true
	}
	if user == nil {
		return false
	}
	if roles.Has(domain.RoleDataContribute) && document.CreatedBy != "" && document.CreatedBy == user.ID {
		return true
	}
	if collection.Purpose != nil && collection.Purpose.Type == domain.PurposeTasks && roles.Has(domain.RoleRead) {
		return isAssignee(document.Data[collection.Purpose.AssigneeAttributeID], user.Email)
	}
	return false
}

// CanReadLinkInstance reports whether the user may see a link instance.
func CanReadLinkInstance(link domain.LinkInstance, permissions domain.AllowedPermissions, user *domain.User) bool {
	roles := permissions.RolesWithView
	if roles.Has(domain.RoleDataRead) {
		return true
	}
	return user != nil && roles.Has(domain.RoleDataContribute) && link.CreatedBy != "" && link.CreatedBy == user.ID
}

// FilterDocumentsByReadPermission keeps the documents of the given collections the user may
// read, in their original order.
func FilterDocumentsByReadPermission(documents []domain.Document, collections []domain.Collection, permissions domain.AllowedPermissionsMap, user *domain.User) []domain.Document {
	byID := collectionsMap(collections)
	result := make([]domain.Document, 0, len(documents))
	for _, document := range documents {
		collection, ok := byID[document.CollectionID]
		if !ok {
			continue
		}
		if CanReadDocument(document, collection, permissions[collection.ID], user) {
			result = append(result, document)
		}
	}
	return result
}

// FilterLinksByReadPermission keeps the link instances of the given link types the user may
// read, in their original order.
func FilterLinksByReadPermission(links []domain.LinkInstance, linkTypes []domain.LinkType, permissions domain.AllowedPermissionsMap, user *domain.User) []domain.LinkInstance {
	byID := linkTypesMap(linkTypes)
	result := make([]domain.LinkInstance, 0, len(links))
	for _, link := range links {
		if _, ok := byID[link.LinkTypeID]; !ok {
			continue
		}
		if CanReadLinkInstance(link, permissions[link.LinkTypeID], user) {
			result = append(result, link)
		}
	}
	return result
}

func isAssignee(value any, email string) bool {
	if email == "" {
		return false
	}
	switch v := value.(type) {
	case string:
		return v == email
	case []string:
		for _, item := range v {
			if item == email {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == email {
				return true
			}
		}
	}
	return false
}
