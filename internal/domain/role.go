package domain

import "sort"

// RoleType is a single capability a user can hold on a resource.
type RoleType string

const (
	RoleRead                 RoleType = "Read"
	RoleManage               RoleType = "Manage"
	RoleDataRead             RoleType = "DataRead"
	RoleDataWrite            RoleType = "DataWrite"
	RoleDataContribute       RoleType = "DataContribute"
	RoleDataDelete           RoleType = "DataDelete"
	RoleCommentContribute    RoleType = "CommentContribute"
	RoleQueryConfig          RoleType = "QueryConfig"
	RolePerspectiveConfig    RoleType = "PerspectiveConfig"
	RoleTechConfig           RoleType = "TechConfig"
	RoleUserConfig           RoleType = "UserConfig"
	RoleAttributeEdit        RoleType = "AttributeEdit"
	RoleCollectionContribute RoleType = "CollectionContribute"
	RoleLinkContribute       RoleType = "LinkContribute"
	RoleViewContribute       RoleType = "ViewContribute"
)

// ViewRoleTypes are the only roles a shared view can pass on to the resources in its query.
var ViewRoleTypes = []RoleType{
	RoleRead,
	RoleDataRead,
	RoleDataWrite,
	RoleDataContribute,
	RoleDataDelete,
	RoleQueryConfig,
	RoleManage,
	RoleCommentContribute,
	RoleTechConfig,
	RoleUserConfig,
	RolePerspectiveConfig,
}

// IsViewRoleType reports whether role may be granted through a view.
func IsViewRoleType(role RoleType) bool {
	for _, r := range ViewRoleTypes {
		if r == role {
			return true
		}
	}
	return false
}

// Role is a granted role; transitive roles flow from organization to project to resources.
type Role struct {
	Type       RoleType `json:"type"`
	Transitive bool     `json:"transitive,omitempty"`
}

// RoleSet is an unordered set of roles.
type RoleSet map[RoleType]bool

func NewRoleSet(roles ...RoleType) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = true
	}
	return set
}

func (s RoleSet) Has(role RoleType) bool {
	return s[role]
}

func (s RoleSet) HasAny(roles ...RoleType) bool {
	for _, role := range roles {
		if s[role] {
			return true
		}
	}
	return false
}

func (s RoleSet) Add(roles ...RoleType) {
	for _, role := range roles {
		s[role] = true
	}
}

// Union returns a new set holding the roles of both sets.
func (s RoleSet) Union(other RoleSet) RoleSet {
	result := make(RoleSet, len(s)+len(other))
	for role := range s {
		result[role] = true
	}
	for role := range other {
		result[role] = true
	}
	return result
}

// Intersect returns a new set holding only the roles present in both sets.
func (s RoleSet) Intersect(other RoleSet) RoleSet {
	result := make(RoleSet)
	for role := range s {
		if other[role] {
			result[role] = true
		}
	}
	return result
}

// Sorted returns the roles in lexical order, used for stable serialization.
func (s RoleSet) Sorted() []RoleType {
	roles := make([]RoleType, 0, len(s))
	for role := range s {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Permission lists the roles granted to one user or group.
type Permission struct {
	ID    string `json:"id"`
	Roles []Role `json:"roles"`
}

// Permissions is the stored permission specification of a resource.
type Permissions struct {
	Users  []Permission `json:"users,omitempty"`
	Groups []Permission `json:"groups,omitempty"`
}

// AllowedPermissions is the computed result for one resource. RolesWithView additionally
// contains the roles the user gains through the currently opened view.
type AllowedPermissions struct {
	Roles         RoleSet `json:"roles"`
	RolesWithView RoleSet `json:"rolesWithView"`
}

// AllowedPermissionsMap is keyed by resource id.
type AllowedPermissionsMap map[string]AllowedPermissions

// ResourcesPermissions groups computed permissions per resource kind.
type ResourcesPermissions struct {
	Collections AllowedPermissionsMap `json:"collections"`
	LinkTypes   AllowedPermissionsMap `json:"linkTypes"`
}
