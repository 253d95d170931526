package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumeer-engine/internal/domain"
)

func seeded(t *testing.T) State {
	t.Helper()
	state := NewState()
	var err error
	for _, action := range []Action{
		UpsertCollections{Collections: []domain.Collection{{ID: "c1"}, {ID: "c2"}}},
		UpsertLinkTypes{LinkTypes: []domain.LinkType{{ID: "l1", CollectionIDs: [2]string{"c1", "c2"}}}},
		UpsertDocuments{Documents: []domain.Document{
			{ID: "d1", CollectionID: "c1", Data: map[string]any{"a1": "x"}},
			{ID: "d2", CollectionID: "c2"},
			{ID: "d3", CollectionID: "c2"},
		}},
		UpsertLinkInstances{LinkInstances: []domain.LinkInstance{{ID: "i1", LinkTypeID: "l1", DocumentIDs: [2]string{"d1", "d2"}}}},
	} {
		state, err = Reduce(state, action)
		require.NoError(t, err)
	}
	return state
}

func TestReduce_UpsertIsIdempotent(t *testing.T) {
	state := seeded(t)
	action := UpsertDocuments{Documents: []domain.Document{{ID: "d1", CollectionID: "c1", Data: map[string]any{"a1": "y"}}}}

	once, err := Reduce(state, action)
	require.NoError(t, err)
	twice, err := Reduce(once, action)
	require.NoError(t, err)

	assert.Equal(t, once.Documents, twice.Documents)
	assert.Equal(t, "y", twice.Documents["d1"].Data["a1"])
	assert.Equal(t, state.Version+2, twice.Version)
	// the previous snapshot is untouched
	assert.Equal(t, "x", state.Documents["d1"].Data["a1"])
}

func TestReduce_CollectionIDIsImmutable(t *testing.T) {
	state := seeded(t)

	next, err := Reduce(state, UpsertDocuments{Documents: []domain.Document{{ID: "d1", CollectionID: "c2"}}})

	assert.ErrorIs(t, err, ErrCollectionChanged)
	assert.Equal(t, state.Version, next.Version)
	assert.Equal(t, "c1", next.Documents["d1"].CollectionID)
}

func TestReduce_IgnoresStaleDocument(t *testing.T) {
	now := time.Now()
	state, err := Reduce(seeded(t), UpsertDocuments{Documents: []domain.Document{{ID: "d1", CollectionID: "c1", UpdateDate: now, Data: map[string]any{"a1": "new"}}}})
	require.NoError(t, err)

	state, err = Reduce(state, UpsertDocuments{Documents: []domain.Document{{ID: "d1", CollectionID: "c1", UpdateDate: now.Add(-time.Second), Data: map[string]any{"a1": "old"}}}})
	require.NoError(t, err)

	assert.Equal(t, "new", state.Documents["d1"].Data["a1"])
}

func TestReduce_CorrelationIDReconciliation(t *testing.T) {
	state := seeded(t)
	state, err := Reduce(state, UpsertDocuments{Documents: []domain.Document{
		{CorrelationID: "tmp-1", CollectionID: "c1"},
		{CorrelationID: "tmp-2", CollectionID: "c1", MetaData: domain.DocumentMetaData{ParentID: "tmp-1"}},
	}})
	require.NoError(t, err)
	state, err = Reduce(state, UpsertLinkInstances{LinkInstances: []domain.LinkInstance{
		{CorrelationID: "tmp-l", LinkTypeID: "l1", DocumentIDs: [2]string{"tmp-1", "d3"}},
	}})
	require.NoError(t, err)

	state, err = Reduce(state, UpsertDocuments{Documents: []domain.Document{{ID: "d9", CorrelationID: "tmp-1", CollectionID: "c1"}}})
	require.NoError(t, err)

	_, pending := state.Documents["tmp-1"]
	assert.False(t, pending)
	assert.Equal(t, "d9", state.Documents["d9"].ID)
	assert.Equal(t, [2]string{"d9", "d3"}, state.LinkInstances["tmp-l"].DocumentIDs)
	assert.Equal(t, "d9", state.Documents["tmp-2"].MetaData.ParentID)

	state, err = Reduce(state, UpsertLinkInstances{LinkInstances: []domain.LinkInstance{
		{ID: "i9", CorrelationID: "tmp-l", LinkTypeID: "l1", DocumentIDs: [2]string{"d9", "d3"}},
	}})
	require.NoError(t, err)
	_, pending = state.LinkInstances["tmp-l"]
	assert.False(t, pending)
	assert.Contains(t, state.LinkInstances, "i9")
}

func TestReduce_LinkValidation(t *testing.T) {
	state := seeded(t)

	_, err := Reduce(state, UpsertLinkInstances{LinkInstances: []domain.LinkInstance{{ID: "i2", LinkTypeID: "l9", DocumentIDs: [2]string{"d1", "d2"}}}})
	assert.ErrorIs(t, err, ErrUnknownLinkType)

	_, err = Reduce(state, UpsertLinkInstances{LinkInstances: []domain.LinkInstance{{ID: "i2", LinkTypeID: "l1", DocumentIDs: [2]string{"d2", "d3"}}}})
	assert.ErrorIs(t, err, ErrInvalidLink)

	_, err = Reduce(state, UpsertLinkInstances{LinkInstances: []domain.LinkInstance{{ID: "i2", LinkTypeID: "l1", DocumentIDs: [2]string{"d1", "d1"}}}})
	assert.ErrorIs(t, err, ErrInvalidLink)

	_, err = Reduce(state, UpsertLinkTypes{LinkTypes: []domain.LinkType{{ID: "l2", CollectionIDs: [2]string{"c1", ""}}}})
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestReduce_PatchData(t *testing.T) {
	state := seeded(t)

	next, err := Reduce(state, PatchDocumentData{Key: "d1", Data: map[string]any{"a2": 5}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a1": "x", "a2": 5}, next.Documents["d1"].Data)
	assert.Equal(t, map[string]any{"a1": "x"}, state.Documents["d1"].Data)

	next, err = Reduce(next, PatchLinkInstanceData{Key: "i1", Data: map[string]any{"w": 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, next.LinkInstances["i1"].Data["w"])

	_, err = Reduce(next, PatchDocumentData{Key: "zz"})
	assert.ErrorIs(t, err, ErrUnknownDocument)
}

func TestReduce_RemovalsCascade(t *testing.T) {
	state := seeded(t)

	withoutDocument, err := Reduce(state, RemoveDocument{Key: "d2"})
	require.NoError(t, err)
	assert.Empty(t, withoutDocument.LinkInstances)

	withoutCollection, err := Reduce(state, RemoveCollection{ID: "c2"})
	require.NoError(t, err)
	assert.Len(t, withoutCollection.Documents, 1)
	assert.Empty(t, withoutCollection.LinkTypes)
	assert.Empty(t, withoutCollection.LinkInstances)

	withoutLinkType, err := Reduce(state, RemoveLinkType{ID: "l1"})
	require.NoError(t, err)
	assert.Empty(t, withoutLinkType.LinkInstances)
	assert.Len(t, withoutLinkType.Documents, 3)
}

func TestReduce_ViewsUsersWorkspaceClear(t *testing.T) {
	state := seeded(t)
	workspace := domain.Workspace{Project: &domain.Project{ID: "p1"}}

	state, _ = Reduce(state, SetWorkspace{Workspace: workspace})
	state, _ = Reduce(state, UpsertViews{Views: []domain.View{{ID: "v1"}, {ID: "v2"}}})
	state, _ = Reduce(state, RemoveView{ID: "v2"})
	state, _ = Reduce(state, UpsertUsers{Users: []domain.User{{ID: "u2", Name: "B"}, {ID: "u1", Name: "A"}}})

	assert.Len(t, state.Views, 1)
	assert.Equal(t, []string{"A", "B"}, []string{state.UsersList()[0].Name, state.UsersList()[1].Name})
	assert.Len(t, state.ConstraintData().Users, 2)

	cleared, err := Reduce(state, Clear{})
	require.NoError(t, err)
	assert.Empty(t, cleared.Documents)
	assert.Equal(t, workspace, cleared.Workspace)
	assert.Equal(t, state.Version+1, cleared.Version)
}

func TestState_ListsAreOrdered(t *testing.T) {
	now := time.Now()
	state, err := Reduce(NewState(), UpsertDocuments{Documents: []domain.Document{
		{ID: "b", CollectionID: "c1", CreationDate: now},
		{ID: "a", CollectionID: "c1", CreationDate: now.Add(time.Second)},
		{ID: "c", CollectionID: "c1", CreationDate: now},
	}})
	require.NoError(t, err)

	documents := state.DocumentsList()

	assert.Equal(t, []string{"b", "c", "a"}, []string{documents[0].ID, documents[1].ID, documents[2].ID})
}
