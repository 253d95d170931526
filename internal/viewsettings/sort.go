package viewsettings

import (
	"slices"

	"lumeer-engine/internal/constraint"
	"lumeer-engine/internal/domain"
)

type sortKey struct {
	attributeID string
	constraint  *domain.Constraint
	descending  bool
}

// SortDocuments returns the documents ordered by the sort hints of their collections' settings.
// Documents of a collection without sort hints keep their relative input order.
func SortDocuments(documents []domain.Document, collections []domain.Collection, settings *domain.ViewSettings, data domain.ConstraintData) []domain.Document {
	keys := make(map[string][]sortKey, len(collections))
	for _, collection := range collections {
		keys[collection.ID] = sortKeys(collection.Attributes, settings.ForResource(domain.ResourceCollection, collection.ID))
	}
	return sortGrouped(documents, func(d domain.Document) string { return d.CollectionID }, func(a, b domain.Document) int {
		return compareData(a.Data, b.Data, keys[a.CollectionID], data)
	})
}

// SortLinkInstances is SortDocuments for link instances.
func SortLinkInstances(links []domain.LinkInstance, linkTypes []domain.LinkType, settings *domain.ViewSettings, data domain.ConstraintData) []domain.LinkInstance {
	keys := make(map[string][]sortKey, len(linkTypes))
	for _, linkType := range linkTypes {
		keys[linkType.ID] = sortKeys(linkType.Attributes, settings.ForResource(domain.ResourceLinkType, linkType.ID))
	}
	return sortGrouped(links, func(l domain.LinkInstance) string { return l.LinkTypeID }, func(a, b domain.LinkInstance) int {
		return compareData(a.Data, b.Data, keys[a.LinkTypeID], data)
	})
}

// sortGrouped sorts the items of each group among the positions the group occupies, so items of
// different resources never trade places.
func sortGrouped[T any](items []T, group func(T) string, compare func(a, b T) int) []T {
	positions := make(map[string][]int)
	var order []string
	for i, item := range items {
		g := group(item)
		if _, ok := positions[g]; !ok {
			order = append(order, g)
		}
		positions[g] = append(positions[g], i)
	}
	result := make([]T, len(items))
	for _, g := range order {
		members := make([]T, 0, len(positions[g]))
		for _, i := range positions[g] {
			members = append(members, items[i])
		}
		slices.SortStableFunc(members, compare)
		for j, i := range positions[g] {
			result[i] = members[j]
		}
	}
	return result
}

func sortKeys(attributes []domain.Attribute, settings []domain.ResourceAttributeSettings) []sortKey {
	var keys []sortKey
	for _, setting := range settings {
		if setting.Sort == "" {
			continue
		}
		attribute, ok := domain.FindAttribute(attributes, setting.AttributeID)
		if !ok {
			continue
		}
		keys = append(keys, sortKey{
			attributeID: setting.AttributeID,
			constraint:  attribute.Constraint,
			descending:  setting.Sort == domain.SortDescending,
		})
	}
	return keys
}

func compareData(a, b map[string]any, keys []sortKey, data domain.ConstraintData) int {
	for _, key := range keys {
		result := constraint.Compare(key.constraint, a[key.attributeID], b[key.attributeID], data)
		if key.descending {
			result = -result
		}
		if result != 0 {
			return result
		}
	}
	return 0
}
