package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lumeer-engine/internal/domain"
)

func roles(types ...domain.RoleType) []domain.Role {
	result := make([]domain.Role, 0, len(types))
	for _, t := range types {
		result = append(result, domain.Role{Type: t})
	}
	return result
}

func fixture() Input {
	user := &domain.User{ID: "u1", Email: "u1@lumeer.io", GroupIDs: []string{"g1"}}
	return Input{
		Organization: &domain.Organization{ID: "o1"},
		Project:      &domain.Project{ID: "p1"},
		User:         user,
		Collections: []domain.Collection{
			{ID: "c1", Name: "Tasks", Permissions: domain.Permissions{
				Users: []domain.Permission{{ID: "u1", Roles: roles(domain.RoleRead, domain.RoleDataRead)}},
			}},
			{ID: "c2", Name: "People", Permissions: domain.Permissions{
				Groups: []domain.Permission{{ID: "g1", Roles: roles(domain.RoleRead)}},
			}},
			{ID: "c3", Name: "Secret"},
		},
		LinkTypes: []domain.LinkType{
			{ID: "l1", CollectionIDs: [2]string{"c1", "c2"}},
			{ID: "l2", CollectionIDs: [2]string{"c1", "c3"}, PermissionsType: domain.PermissionsCustom, Permissions: domain.Permissions{
				Users: []domain.Permission{{ID: "u1", Roles: roles(domain.RoleRead, domain.RoleDataWrite)}},
			}},
		},
	}
}

func TestComputeResourcesPermissions_DirectAndGroupGrants(t *testing.T) {
	result := ComputeResourcesPermissions(fixture())

	assert.Equal(t, domain.NewRoleSet(domain.RoleRead, domain.RoleDataRead), result.Collections["c1"].Roles)
	assert.Equal(t, domain.NewRoleSet(domain.RoleRead), result.Collections["c2"].Roles)
	assert.Empty(t, result.Collections["c3"].Roles)
	assert.Equal(t, result.Collections["c1"].Roles, result.Collections["c1"].RolesWithView)
}

func TestComputeResourcesPermissions_LinkTypes(t *testing.T) {
	result := ComputeResourcesPermissions(fixture())

	// merged link type takes the intersection of both collections
	assert.Equal(t, domain.NewRoleSet(domain.RoleRead), result.LinkTypes["l1"].Roles)
	assert.Equal(t, domain.NewRoleSet(domain.RoleRead, domain.RoleDataWrite), result.LinkTypes["l2"].Roles)
}

func TestComputeResourcesPermissions_TransitiveRoles(t *testing.T) {
	in := fixture()
	in.Organization.Permissions.Users = []domain.Permission{{ID: "u1", Roles: []domain.Role{
		{Type: domain.RoleDataContribute, Transitive: true},
		{Type: domain.RoleManage},
	}}}

	result := ComputeResourcesPermissions(in)

	assert.True(t, result.Collections["c3"].Roles.Has(domain.RoleDataContribute))
	assert.False(t, result.Collections["c3"].Roles.Has(domain.RoleManage))
}

func TestComputeResourcesPermissions_AbsentResourceHasNoEntry(t *testing.T) {
	result := ComputeResourcesPermissions(fixture())

	_, ok := result.Collections["unknown"]
	assert.False(t, ok)
	assert.Len(t, result.Collections, 3)
}

func TestComputeResourcesPermissions_NilInputs(t *testing.T) {
	result := ComputeResourcesPermissions(Input{})
	assert.Empty(t, result.Collections)
	assert.Empty(t, result.LinkTypes)

	in := fixture()
	in.User = nil
	result = ComputeResourcesPermissions(in)
	assert.Empty(t, result.Collections["c1"].Roles)
}

func TestComputeResourcesPermissions_Deterministic(t *testing.T) {
	in := fixture()
	first := ComputeResourcesPermissions(in)

	reversed := fixture()
	reversed.Collections = []domain.Collection{in.Collections[2], in.Collections[1], in.Collections[0]}
	reversed.LinkTypes = []domain.LinkType{in.LinkTypes[1], in.LinkTypes[0]}

	assert.Equal(t, first, ComputeResourcesPermissions(in))
	assert.Equal(t, first, ComputeResourcesPermissions(reversed))
}

func TestComputeResourcesPermissions_ViewWidening(t *testing.T) {
	in := fixture()
	in.View = &domain.View{
		ID:       "v1",
		AuthorID: in.User.ID,
		Query:    domain.Query{Stems: []domain.QueryStem{{CollectionID: "c3"}}},
		AuthorCollectionsRoles: map[string][]domain.RoleType{
			"c3": {domain.RoleRead, domain.RoleDataRead, domain.RoleCollectionContribute},
			"c2": {domain.RoleDataRead},
		},
	}

	result := ComputeResourcesPermissions(in)

	// bounded by the author table and by the roles a view passes on
	assert.Equal(t, domain.NewRoleSet(domain.RoleRead, domain.RoleDataRead), result.Collections["c3"].RolesWithView)
	assert.Empty(t, result.Collections["c3"].Roles)
	// c2 is not referenced by the view's query
	assert.False(t, result.Collections["c2"].RolesWithView.Has(domain.RoleDataRead))
}

func TestComputeResourcesPermissions_ViewDoesNotWidenForOtherUsers(t *testing.T) {
	in := fixture()
	in.View = &domain.View{
		ID:       "v1",
		AuthorID: "author",
		Query:    domain.Query{Stems: []domain.QueryStem{{CollectionID: "c3"}}},
		Permissions: domain.Permissions{
			Users: []domain.Permission{{ID: in.User.ID, Roles: roles(domain.RoleRead, domain.RoleDataRead, domain.RoleQueryConfig)}},
		},
		AuthorCollectionsRoles: map[string][]domain.RoleType{"c3": {domain.RoleRead, domain.RoleDataRead}},
	}

	result := ComputeResourcesPermissions(in)
	assert.Empty(t, result.Collections["c3"].RolesWithView)

	in.View.Permissions = domain.Permissions{}
	result = ComputeResourcesPermissions(in)
	assert.Empty(t, result.Collections["c3"].RolesWithView)
}

func TestComputeResourcesPermissions_ViewNeverGrantsNonViewRoles(t *testing.T) {
	in := fixture()
	in.User.ID = "author"
	in.View = &domain.View{
		AuthorID:               "author",
		Query:                  domain.Query{Stems: []domain.QueryStem{{CollectionID: "c3"}}},
		AuthorCollectionsRoles: map[string][]domain.RoleType{"c3": {domain.RoleCollectionContribute, domain.RoleRead}},
	}

	result := ComputeResourcesPermissions(in)

	assert.Equal(t, domain.NewRoleSet(domain.RoleRead), result.Collections["c3"].RolesWithView)
}

func TestUserPermissionsInCollection_Nil(t *testing.T) {
	p := UserPermissionsInCollection(fixture(), nil)
	assert.Empty(t, p.Roles)
}

func TestCanChangeViewQuery(t *testing.T) {
	assert.True(t, CanChangeViewQuery(nil, nil))
	assert.False(t, CanChangeViewQuery(&domain.View{}, domain.NewRoleSet(domain.RoleRead)))
	assert.True(t, CanChangeViewQuery(&domain.View{}, domain.NewRoleSet(domain.RoleQueryConfig)))
}

func TestViewRoles_Author(t *testing.T) {
	view := &domain.View{AuthorID: "u1"}
	got := ViewRoles(nil, nil, view, &domain.User{ID: "u1"})
	assert.True(t, got.Has(domain.RoleQueryConfig))
	assert.Len(t, got, len(domain.ViewRoleTypes))
}
