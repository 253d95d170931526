package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumeer-engine/internal/domain"
)

func readable(ids ...string) domain.AllowedPermissionsMap {
	result := make(domain.AllowedPermissionsMap, len(ids))
	for _, id := range ids {
		roles := domain.NewRoleSet(domain.RoleRead, domain.RoleDataRead)
		result[id] = domain.AllowedPermissions{Roles: roles, RolesWithView: roles}
	}
	return result
}

func documentIDs(documents []domain.Document) []string {
	ids := make([]string, 0, len(documents))
	for _, d := range documents {
		ids = append(ids, d.ID)
	}
	return ids
}

func linkFixture() Input {
	return Input{
		Collections: []domain.Collection{
			{ID: "tasks", Name: "Tasks", Attributes: []domain.Attribute{{ID: "a1", Name: "name"}}},
			{ID: "people", Name: "People", Attributes: []domain.Attribute{{ID: "a1", Name: "name"}}},
		},
		LinkTypes: []domain.LinkType{{ID: "assigned", CollectionIDs: [2]string{"tasks", "people"}}},
		Documents: []domain.Document{
			{ID: "t1", CollectionID: "tasks", Data: map[string]any{"a1": "Write report"}},
			{ID: "t2", CollectionID: "tasks", Data: map[string]any{"a1": "Review"}},
			{ID: "p1", CollectionID: "people", Data: map[string]any{"a1": "Alice"}},
			{ID: "p2", CollectionID: "people", Data: map[string]any{"a1": "Bob"}},
		},
		LinkInstances: []domain.LinkInstance{
			{ID: "li1", LinkTypeID: "assigned", DocumentIDs: [2]string{"t1", "p1"}},
			{ID: "li2", LinkTypeID: "assigned", DocumentIDs: [2]string{"t2", "p2"}},
		},
		CollectionsPermissions: readable("tasks", "people"),
		LinkTypesPermissions:   readable("assigned"),
		User:                   &domain.User{ID: "u1", Email: "u1@lumeer.io"},
	}
}

func TestFilter_FulltextMatchesOnlyMatchingDocument(t *testing.T) {
	in := Input{
		Collections: []domain.Collection{{ID: "c1", Name: "Tasks", Attributes: []domain.Attribute{{ID: "a1", Name: "name"}}}},
		Documents: []domain.Document{
			{ID: "1", CollectionID: "c1", Data: map[string]any{"a1": "a"}},
			{ID: "2", CollectionID: "c1", Data: map[string]any{"a1": "b"}},
		},
		Query:                  &domain.Query{Fulltexts: []string{"a"}},
		CollectionsPermissions: readable("c1"),
	}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"1"}, documentIDs(result.Documents))
}

func TestFilter_NoDataReadYieldsNoDocuments(t *testing.T) {
	in := linkFixture()
	in.CollectionsPermissions = readable("people")
	in.CollectionsPermissions["tasks"] = domain.AllowedPermissions{
		Roles:         domain.NewRoleSet(domain.RoleRead),
		RolesWithView: domain.NewRoleSet(domain.RoleRead),
	}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"p1", "p2"}, documentIDs(result.Documents))
}

func TestFilter_EmptyQueryKeepsInputOrder(t *testing.T) {
	in := linkFixture()
	in.Query = &domain.Query{Page: intPtr(2), PageSize: intPtr(10)}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"t1", "t2", "p1", "p2"}, documentIDs(result.Documents))
	assert.Len(t, result.LinkInstances, 2)
}

func TestFilter_LinkChainWithFilterOnLinkedCollection(t *testing.T) {
	in := linkFixture()
	in.Query = &domain.Query{Stems: []domain.QueryStem{{
		CollectionID: "tasks",
		LinkTypeIDs:  []string{"assigned"},
		Filters: []domain.AttributeFilter{
			{CollectionID: "people", AttributeID: "a1", Condition: domain.ConditionEquals, Value: "Alice"},
		},
	}}}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"t1", "p1"}, documentIDs(result.Documents))
	require.Len(t, result.LinkInstances, 1)
	assert.Equal(t, "li1", result.LinkInstances[0].ID)
}

func TestFilter_PartialPathKeptWithoutDownstreamFilters(t *testing.T) {
	in := linkFixture()
	in.Documents = append(in.Documents, domain.Document{ID: "t3", CollectionID: "tasks", Data: map[string]any{"a1": "Orphan"}})
	in.Query = &domain.Query{Stems: []domain.QueryStem{{CollectionID: "tasks", LinkTypeIDs: []string{"assigned"}}}}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"t1", "t2", "p1", "p2", "t3"}, documentIDs(result.Documents))
}

func TestFilter_FulltextEvaluatedPerPath(t *testing.T) {
	in := linkFixture()
	in.Query = &domain.Query{
		Stems:     []domain.QueryStem{{CollectionID: "tasks", LinkTypeIDs: []string{"assigned"}}},
		Fulltexts: []string{"review", "BOB"},
	}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"t2", "p2"}, documentIDs(result.Documents))
}

func TestFilter_StemDocumentIDs(t *testing.T) {
	in := linkFixture()
	in.Query = &domain.Query{Stems: []domain.QueryStem{{CollectionID: "tasks", DocumentIDs: []string{"t2"}}}}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"t2"}, documentIDs(result.Documents))
	assert.Empty(t, result.LinkInstances)
}

func TestFilter_IncludeSubItems(t *testing.T) {
	in := linkFixture()
	in.Documents = append(in.Documents,
		domain.Document{ID: "t1a", CollectionID: "tasks", Data: map[string]any{"a1": "Draft"}, MetaData: domain.DocumentMetaData{ParentID: "t1"}},
		domain.Document{ID: "t1b", CollectionID: "tasks", Data: map[string]any{"a1": "Proofread"}, MetaData: domain.DocumentMetaData{ParentID: "t1a"}},
	)
	in.Query = &domain.Query{Stems: []domain.QueryStem{{CollectionID: "tasks", DocumentIDs: []string{"t1"}}}}

	without := FilterDocumentsAndLinksByQuery(in)
	in.IncludeSubItems = true
	with := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"t1"}, documentIDs(without.Documents))
	assert.Equal(t, []string{"t1", "t1a", "t1b"}, documentIDs(with.Documents))
}

func TestFilter_ContributorSeesOwnDocuments(t *testing.T) {
	in := linkFixture()
	in.Documents[1].CreatedBy = "u1"
	contribute := domain.NewRoleSet(domain.RoleRead, domain.RoleDataContribute)
	in.CollectionsPermissions["tasks"] = domain.AllowedPermissions{Roles: contribute, RolesWithView: contribute}
	in.Query = &domain.Query{Stems: []domain.QueryStem{{CollectionID: "tasks"}}}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"t2"}, documentIDs(result.Documents))
}

func TestFilter_TaskAssigneeSeesTask(t *testing.T) {
	in := linkFixture()
	in.Collections[0].Purpose = &domain.CollectionPurpose{Type: domain.PurposeTasks, AssigneeAttributeID: "a2"}
	in.Documents[0].Data["a2"] = []any{"u1@lumeer.io"}
	in.CollectionsPermissions["tasks"] = domain.AllowedPermissions{RolesWithView: domain.NewRoleSet(domain.RoleRead)}

	result := FilterDocumentsAndLinksByQuery(in)

	assert.Equal(t, []string{"t1", "p1", "p2"}, documentIDs(result.Documents))
}

func TestFilterCollectionsByQuery(t *testing.T) {
	in := linkFixture()
	in.Collections = append(in.Collections, domain.Collection{ID: "notes", Name: "Notes"})

	all := FilterCollectionsByQuery(in.Collections, in.Documents, in.LinkTypes, nil, domain.ConstraintData{})
	byStem := FilterCollectionsByQuery(in.Collections, in.Documents, in.LinkTypes,
		&domain.Query{Stems: []domain.QueryStem{{CollectionID: "tasks", LinkTypeIDs: []string{"assigned"}}}}, domain.ConstraintData{})
	byName := FilterCollectionsByQuery(in.Collections, in.Documents, in.LinkTypes,
		&domain.Query{Fulltexts: []string{"not"}}, domain.ConstraintData{})
	byDocument := FilterCollectionsByQuery(in.Collections, in.Documents, in.LinkTypes,
		&domain.Query{Fulltexts: []string{"alice"}}, domain.ConstraintData{})

	assert.Len(t, all, 3)
	assert.Len(t, byStem, 2)
	require.Len(t, byName, 1)
	assert.Equal(t, "notes", byName[0].ID)
	require.Len(t, byDocument, 1)
	assert.Equal(t, "people", byDocument[0].ID)
}

func intPtr(v int) *int {
	return &v
}
