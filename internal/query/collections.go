package query

import (
	"strings"

	"lumeer-engine/internal/constraint"
	"lumeer-engine/internal/domain"
)

// FilterCollectionsByQuery returns the collections a query touches: every collection of its
// stems, plus for full-text queries each collection whose name or some readable document meets
// all terms. An empty query selects all collections. Input order is kept.
func FilterCollectionsByQuery(collections []domain.Collection, documents []domain.Document, linkTypes []domain.LinkType, q *domain.Query, data domain.ConstraintData) []domain.Collection {
	if IsEmptyExceptPagination(q) {
		return collections
	}

	selected := make(map[string]bool)
	for _, id := range CollectionIDs(q, linkTypes) {
		selected[id] = true
	}

	var fulltexts []string
	for _, text := range q.Fulltexts {
		if text = strings.TrimSpace(text); text != "" {
			fulltexts = append(fulltexts, constraint.Fold(text))
		}
	}
	if len(fulltexts) > 0 {
		byID := collectionsMap(collections)
		for _, collection := range collections {
			if nameMeetsFulltexts(collection.Name, fulltexts) {
				selected[collection.ID] = true
			}
		}
		for _, document := range documents {
			if selected[document.CollectionID] {
				continue
			}
			collection, ok := byID[document.CollectionID]
			if ok && DocumentMeetsFulltexts(document, collection, fulltexts, data) {
				selected[collection.ID] = true
			}
		}
	}

	result := make([]domain.Collection, 0, len(selected))
	for _, collection := range collections {
		if selected[collection.ID] {
			result = append(result, collection)
		}
	}
	return result
}

func nameMeetsFulltexts(name string, fulltexts []string) bool {
	folded := constraint.Fold(name)
	for _, text := range fulltexts {
		if !strings.Contains(folded, text) {
			return false
		}
	}
	return true
}
