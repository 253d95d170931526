package viewsettings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumeer-engine/internal/domain"
)

func attributeIDs(settings []domain.ResourceAttributeSettings) []string {
	ids := make([]string, 0, len(settings))
	for _, s := range settings {
		ids = append(ids, s.AttributeID)
	}
	return ids
}

func TestHideAndShow(t *testing.T) {
	resource := tasks().AsResource()

	hidden := Hide(nil, resource, "a2", "a4")
	shown := Show(hidden, resource, "a4")

	stored := hidden.ForResource(domain.ResourceCollection, "c1")
	require.Len(t, stored, 4)
	assert.True(t, stored[1].Hidden)
	assert.True(t, stored[3].Hidden)
	assert.False(t, shown.ForResource(domain.ResourceCollection, "c1")[3].Hidden)
	// the input settings are never mutated
	assert.True(t, hidden.ForResource(domain.ResourceCollection, "c1")[3].Hidden)
}

func TestMove(t *testing.T) {
	resource := tasks().AsResource()

	moved := Move(nil, resource, 0, 2)
	unchanged := Move(moved, resource, 1, 9)

	assert.Equal(t, []string{"a2", "a3", "a1", "a4"}, attributeIDs(moved.ForResource(domain.ResourceCollection, "c1")))
	assert.Equal(t, []string{"a2", "a3", "a1", "a4"}, attributeIDs(unchanged.ForResource(domain.ResourceCollection, "c1")))
}

func TestAdd(t *testing.T) {
	collection := tasks()
	collection.Attributes = append(collection.Attributes, domain.Attribute{ID: "a5"})

	added := Add(nil, collection.AsResource(), "a5", 1)
	appended := Add(nil, collection.AsResource(), "a5", -1)

	assert.Equal(t, []string{"a1", "a5", "a2", "a3", "a4"}, attributeIDs(added.ForResource(domain.ResourceCollection, "c1")))
	assert.Equal(t, []string{"a1", "a2", "a3", "a4", "a5"}, attributeIDs(appended.ForResource(domain.ResourceCollection, "c1")))
}

func TestSetAttribute_LinkType(t *testing.T) {
	linkType := domain.LinkType{ID: "l1", Attributes: []domain.Attribute{{ID: "x"}, {ID: "y"}}}

	result := SetAttribute(nil, linkType.AsResource(), domain.ResourceAttributeSettings{AttributeID: "y", Sort: domain.SortAscending, Width: 50})

	stored := result.ForResource(domain.ResourceLinkType, "l1")
	require.Len(t, stored, 2)
	assert.Equal(t, domain.ResourceAttributeSettings{AttributeID: "y", Sort: domain.SortAscending, Width: 50}, stored[1])
	assert.Empty(t, result.Attributes.Collections)
}

func TestState_SetResetClear(t *testing.T) {
	settings := Hide(nil, tasks().AsResource(), "a1")

	state := State{}.Set("v1", settings)
	reset := state.Reset("v1")
	cleared := reset.Clear()

	assert.Equal(t, settings, state.Get("v1"))
	assert.Equal(t, &domain.ViewSettings{}, reset.Get("v1"))
	assert.NotNil(t, state.Get("v1").Attributes.Collections)
	assert.Nil(t, cleared.Get("v1"))
}

func TestClone_IsDeep(t *testing.T) {
	settings := Hide(nil, tasks().AsResource(), "a1")

	clone := Clone(settings)
	clone.Attributes.Collections["c1"][0].Hidden = false

	assert.True(t, settings.Attributes.Collections["c1"][0].Hidden)
}
