// Package query filters documents, link instances and collections by a query and by what the
// current user is allowed to read.
package query

import (
	"lumeer-engine/internal/domain"
)

// IsEmpty reports whether the query has no stems, no full-texts and no pagination.
func IsEmpty(q *domain.Query) bool {
	return IsEmptyExceptPagination(q) && (q == nil || (q.Page == nil && q.PageSize == nil))
}

// IsEmptyExceptPagination reports whether the query selects everything visible.
func IsEmptyExceptPagination(q *domain.Query) bool {
	return q == nil || (len(q.Stems) == 0 && len(q.Fulltexts) == 0)
}

// CollectionIDs returns the ids of all collections reachable from the query's stems, anchors
// first, without duplicates.
func CollectionIDs(q *domain.Query, linkTypes []domain.LinkType) []string {
	if q == nil {
		return nil
	}
	linkTypesByID := linkTypesMap(linkTypes)
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, stem := range q.Stems {
		add(stem.CollectionID)
	}
	for _, stem := range q.Stems {
		for _, linkTypeID := range stem.LinkTypeIDs {
			if linkType, ok := linkTypesByID[linkTypeID]; ok {
				add(linkType.CollectionIDs[0])
				add(linkType.CollectionIDs[1])
			}
		}
	}
	return ids
}

// LinkTypeIDs returns the ids of all link types used by the query's stems.
func LinkTypeIDs(q *domain.Query) []string {
	if q == nil {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for _, stem := range q.Stems {
		for _, id := range stem.LinkTypeIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// WithoutLinks returns a copy of the query with the link chains and link filters dropped.
func WithoutLinks(q *domain.Query) *domain.Query {
	if q == nil {
		return nil
	}
	result := *q
	result.Stems = make([]domain.QueryStem, 0, len(q.Stems))
	for _, stem := range q.Stems {
		filters := make([]domain.AttributeFilter, 0, len(stem.Filters))
		for _, filter := range stem.Filters {
			if filter.CollectionID == stem.CollectionID {
				filters = append(filters, filter)
			}
		}
		result.Stems = append(result.Stems, domain.QueryStem{
			CollectionID: stem.CollectionID,
			DocumentIDs:  stem.DocumentIDs,
			Filters:      filters,
		})
	}
	return &result
}

func linkTypesMap(linkTypes []domain.LinkType) map[string]domain.LinkType {
	result := make(map[string]domain.LinkType, len(linkTypes))
	for _, linkType := range linkTypes {
		result[linkType.ID] = linkType
	}
	return result
}

func collectionsMap(collections []domain.Collection) map[string]domain.Collection {
	result := make(map[string]domain.Collection, len(collections))
	for _, collection := range collections {
		result[collection.ID] = collection
	}
	return result
}
