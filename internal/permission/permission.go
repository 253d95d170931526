// Package permission computes the roles the current user holds on workspace resources.
package permission

import (
	"lumeer-engine/internal/domain"
)

// Input is everything the permission computation depends on. Any field may be nil.
type Input struct {
	Organization *domain.Organization
	Project      *domain.Project
	View         *domain.View
	Collections  []domain.Collection
	LinkTypes    []domain.LinkType
	User         *domain.User
}

// ComputeResourcesPermissions computes permissions for every collection and link type in the input.
func ComputeResourcesPermissions(in Input) domain.ResourcesPermissions {
	collections := ComputeCollectionsPermissions(in)
	return domain.ResourcesPermissions{
		Collections: collections,
		LinkTypes:   computeLinkTypesPermissions(in, collections),
	}
}

// ComputeCollectionsPermissions computes permissions for the collections in the input.
func ComputeCollectionsPermissions(in Input) domain.AllowedPermissionsMap {
	result := make(domain.AllowedPermissionsMap, len(in.Collections))
	inherited := projectTransitiveRoles(in.Organization, in.Project, in.User)
	viewRoles, referenced := viewContext(in)

	for _, collection := range in.Collections {
		roles := userRoles(collection.Permissions, in.User).Union(inherited)
		withView := roles
		if in.View != nil && referenced.collections[collection.ID] {
			withView = roles.Union(widen(viewRoles, in.View.AuthorCollectionsRoles[collection.ID]))
		}
		result[collection.ID] = domain.AllowedPermissions{Roles: roles, RolesWithView: withView}
	}
	return result
}

// ComputeLinkTypesPermissions computes permissions for the link types in the input.
func ComputeLinkTypesPermissions(in Input) domain.AllowedPermissionsMap {
	return computeLinkTypesPermissions(in, ComputeCollectionsPermissions(in))
}

func computeLinkTypesPermissions(in Input, collections domain.AllowedPermissionsMap) domain.AllowedPermissionsMap {
	result := make(domain.AllowedPermissionsMap, len(in.LinkTypes))
	inherited := projectTransitiveRoles(in.Organization, in.Project, in.User)
	viewRoles, referenced := viewContext(in)

	for _, linkType := range in.LinkTypes {
		var roles, withView domain.RoleSet
		if linkType.PermissionsType == domain.PermissionsCustom {
			roles = userRoles(linkType.Permissions, in.User).Union(inherited)
			withView = roles
		} else {
			first, second := collections[linkType.CollectionIDs[0]], collections[linkType.CollectionIDs[1]]
			roles = orEmpty(first.Roles).Intersect(orEmpty(second.Roles))
			withView = orEmpty(first.RolesWithView).Intersect(orEmpty(second.RolesWithView))
		}
		if in.View != nil && referenced.linkTypes[linkType.ID] {
			withView = withView.Union(widen(viewRoles, in.View.AuthorLinkTypesRoles[linkType.ID]))
		}
		result[linkType.ID] = domain.AllowedPermissions{Roles: roles, RolesWithView: withView}
	}
	return result
}

// UserPermissionsInCollection computes permissions for a single collection. A nil collection
// yields empty permissions.
func UserPermissionsInCollection(in Input, collection *domain.Collection) domain.AllowedPermissions {
	if collection == nil {
		return emptyPermissions()
	}
	in.Collections = []domain.Collection{*collection}
	return ComputeCollectionsPermissions(in)[collection.ID]
}

// UserPermissionsInLinkType computes permissions for a single link type, using the
// collections in the input for merged link types.
func UserPermissionsInLinkType(in Input, linkType *domain.LinkType) domain.AllowedPermissions {
	if linkType == nil {
		return emptyPermissions()
	}
	in.LinkTypes = []domain.LinkType{*linkType}
	return ComputeLinkTypesPermissions(in)[linkType.ID]
}

// ViewRoles returns the roles the user holds on the view itself. The author holds every view role.
func ViewRoles(org *domain.Organization, project *domain.Project, view *domain.View, user *domain.User) domain.RoleSet {
	if view == nil || user == nil {
		return domain.RoleSet{}
	}
	if view.AuthorID != "" && view.AuthorID == user.ID {
		return domain.NewRoleSet(domain.ViewRoleTypes...)
	}
	return userRoles(view.Permissions, user).Union(projectTransitiveRoles(org, project, user))
}

// CanChangeViewQuery reports whether the user may reconfigure the view's query. Without an
// opened view the user works on an ad-hoc query and may always change it.
func CanChangeViewQuery(view *domain.View, viewRoles domain.RoleSet) bool {
	return view == nil || viewRoles.Has(domain.RoleQueryConfig)
}

// CanManageViewConfig reports whether the user may change the perspective configuration.
func CanManageViewConfig(view *domain.View, viewRoles domain.RoleSet) bool {
	return view == nil || viewRoles.Has(domain.RolePerspectiveConfig)
}

// widen maps the author's view roles onto a resource, bounded by the roles the author
// recorded for that resource and by the roles a view may pass on at all. Only the author
// of the view gets widened roles.
func widen(viewRoles domain.RoleSet, authorRoles []domain.RoleType) domain.RoleSet {
	result := make(domain.RoleSet)
	for _, role := range authorRoles {
		if viewRoles.Has(role) && domain.IsViewRoleType(role) {
			result[role] = true
		}
	}
	return result
}

type referencedResources struct {
	collections map[string]bool
	linkTypes   map[string]bool
}

func viewContext(in Input) (domain.RoleSet, referencedResources) {
	referenced := referencedResources{collections: map[string]bool{}, linkTypes: map[string]bool{}}
	if in.View == nil || in.User == nil || in.View.AuthorID == "" || in.View.AuthorID != in.User.ID {
		return domain.RoleSet{}, referenced
	}

	linkTypesByID := make(map[string]domain.LinkType, len(in.LinkTypes))
	for _, linkType := range in.LinkTypes {
		linkTypesByID[linkType.ID] = linkType
	}
	for _, stem := range in.View.Query.Stems {
		referenced.collections[stem.CollectionID] = true
		for _, linkTypeID := range stem.LinkTypeIDs {
			referenced.linkTypes[linkTypeID] = true
			if linkType, ok := linkTypesByID[linkTypeID]; ok {
				referenced.collections[linkType.CollectionIDs[0]] = true
				referenced.collections[linkType.CollectionIDs[1]] = true
			}
		}
	}
	return ViewRoles(in.Organization, in.Project, in.View, in.User), referenced
}

// userRoles collects every role granted to the user directly or through one of their groups.
func userRoles(permissions domain.Permissions, user *domain.User) domain.RoleSet {
	return collectRoles(permissions, user, false)
}

func transitiveRoles(permissions domain.Permissions, user *domain.User) domain.RoleSet {
	return collectRoles(permissions, user, true)
}

func collectRoles(permissions domain.Permissions, user *domain.User, onlyTransitive bool) domain.RoleSet {
	result := make(domain.RoleSet)
	if user == nil {
		return result
	}
	add := func(permission domain.Permission) {
		for _, role := range permission.Roles {
			if !onlyTransitive || role.Transitive {
				result[role.Type] = true
			}
		}
	}
	for _, permission := range permissions.Users {
		if permission.ID == user.ID {
			add(permission)
		}
	}
	for _, permission := range permissions.Groups {
		for _, groupID := range user.GroupIDs {
			if permission.ID == groupID {
				add(permission)
			}
		}
	}
	return result
}

// projectTransitiveRoles are the roles flowing from the organization and project down to
// every resource of the project.
func projectTransitiveRoles(org *domain.Organization, project *domain.Project, user *domain.User) domain.RoleSet {
	result := make(domain.RoleSet)
	if org != nil {
		result = result.Union(transitiveRoles(org.Permissions, user))
	}
	if project != nil {
		result = result.Union(transitiveRoles(project.Permissions, user))
	}
	return result
}

func orEmpty(set domain.RoleSet) domain.RoleSet {
	if set == nil {
		return domain.RoleSet{}
	}
	return set
}

func emptyPermissions() domain.AllowedPermissions {
	return domain.AllowedPermissions{Roles: domain.RoleSet{}, RolesWithView: domain.RoleSet{}}
}
