package query

import (
	"strings"

	"lumeer-engine/internal/constraint"
	"lumeer-engine/internal/domain"
)

// Input is the data a query is evaluated against.
type Input struct {
	Documents              []domain.Document
	Collections            []domain.Collection
	LinkTypes              []domain.LinkType
	LinkInstances          []domain.LinkInstance
	Query                  *domain.Query
	CollectionsPermissions domain.AllowedPermissionsMap
	LinkTypesPermissions   domain.AllowedPermissionsMap
	User                   *domain.User
	ConstraintData         domain.ConstraintData
	IncludeSubItems        bool
}

// Result holds the documents and link instances satisfying a query, in input order.
type Result struct {
	Documents     []domain.Document     `json:"documents"`
	LinkInstances []domain.LinkInstance `json:"linkInstances"`
}

// FilterDocumentsAndLinksByQuery returns the readable documents and links selected by the query.
// The output keeps the order of the input slices; sorting for display happens elsewhere.
func FilterDocumentsAndLinksByQuery(in Input) Result {
	documents := FilterDocumentsByReadPermission(in.Documents, in.Collections, in.CollectionsPermissions, in.User)
	links := FilterLinksByReadPermission(in.LinkInstances, in.LinkTypes, in.LinkTypesPermissions, in.User)

	if IsEmptyExceptPagination(in.Query) {
		return Result{Documents: documents, LinkInstances: links}
	}

	f := newFilter(in, documents, links)
	for _, stem := range f.stems(in.Query) {
		f.applyStem(stem)
	}
	if in.IncludeSubItems || in.Query.IncludeSubItems {
		f.includeSubItems()
	}

	result := Result{
		Documents:     make([]domain.Document, 0, len(f.keptDocuments)),
		LinkInstances: make([]domain.LinkInstance, 0, len(f.keptLinks)),
	}
	for _, document := range documents {
		if f.keptDocuments[document.Key()] {
			result.Documents = append(result.Documents, document)
		}
	}
	for _, link := range links {
		if f.keptLinks[link.Key()] {
			result.LinkInstances = append(result.LinkInstances, link)
		}
	}
	return result
}

type filter struct {
	in                    Input
	fulltexts             []string
	collections           map[string]domain.Collection
	linkTypes             map[string]domain.LinkType
	documents             map[string]domain.Document
	documentsByCollection map[string][]domain.Document
	linksByType           map[string][]domain.LinkInstance
	keptDocuments         map[string]bool
	keptLinks             map[string]bool
}

func newFilter(in Input, documents []domain.Document, links []domain.LinkInstance) *filter {
	f := &filter{
		in:                    in,
		collections:           collectionsMap(in.Collections),
		linkTypes:             linkTypesMap(in.LinkTypes),
		documents:             make(map[string]domain.Document, len(documents)),
		documentsByCollection: make(map[string][]domain.Document),
		linksByType:           make(map[string][]domain.LinkInstance),
		keptDocuments:         make(map[string]bool),
		keptLinks:             make(map[string]bool),
	}
	for _, text := range in.Query.Fulltexts {
		if text = strings.TrimSpace(text); text != "" {
			f.fulltexts = append(f.fulltexts, constraint.Fold(text))
		}
	}
	for _, document := range documents {
		f.documents[document.Key()] = document
		f.documentsByCollection[document.CollectionID] = append(f.documentsByCollection[document.CollectionID], document)
	}
	for _, link := range links {
		f.linksByType[link.LinkTypeID] = append(f.linksByType[link.LinkTypeID], link)
	}
	return f
}

// stems returns the query stems, or one stem per collection for a full-text only query.
func (f *filter) stems(q *domain.Query) []domain.QueryStem {
	if len(q.Stems) > 0 {
		return q.Stems
	}
	stems := make([]domain.QueryStem, 0, len(f.in.Collections))
	for _, collection := range f.in.Collections {
		stems = append(stems, domain.QueryStem{CollectionID: collection.ID})
	}
	return stems
}

// path is one chain of linked documents starting at a stem's anchor document.
type path struct {
	documents []domain.Document
	links     []domain.LinkInstance
}

func (f *filter) applyStem(stem domain.QueryStem) {
	collection, ok := f.collections[stem.CollectionID]
	if !ok {
		return
	}

	// collections visited along the stem, by chain position
	chain := []string{collection.ID}
	for _, linkTypeID := range stem.LinkTypeIDs {
		linkType, ok := f.linkTypes[linkTypeID]
		if !ok {
			break
		}
		previous := chain[len(chain)-1]
		if linkType.CollectionIDs[0] != previous && linkType.CollectionIDs[1] != previous {
			break
		}
		chain = append(chain, linkType.OtherCollectionID(previous))
	}

	var documentIDs map[string]bool
	if len(stem.DocumentIDs) > 0 {
		documentIDs = make(map[string]bool, len(stem.DocumentIDs))
		for _, id := range stem.DocumentIDs {
			documentIDs[id] = true
		}
	}

	for _, document := range f.documentsByCollection[collection.ID] {
		if documentIDs != nil && !documentIDs[document.ID] {
			continue
		}
		if !f.documentMeetsFilters(document, stem.Filters) {
			continue
		}
		f.walk(stem, chain, path{documents: []domain.Document{document}})
	}
}

// walk extends a path along the stem's link chain and keeps every path that satisfies
// the stem. A path may stop early when no link continues it.
func (f *filter) walk(stem domain.QueryStem, chain []string, p path) {
	depth := len(p.documents) - 1
	if depth < len(chain)-1 {
		linkTypeID := stem.LinkTypeIDs[depth]
		current := p.documents[depth]
		nextCollection := chain[depth+1]
		extended := false
		for _, link := range f.linksByType[linkTypeID] {
			if link.DocumentIDs[0] != current.Key() && link.DocumentIDs[1] != current.Key() {
				continue
			}
			if !linkMeetsFilters(link, stem.LinkFilters, f.linkTypes[linkTypeID], f.in.ConstraintData) {
				continue
			}
			next, ok := f.documents[link.OtherDocumentID(current.Key())]
			if !ok || next.CollectionID != nextCollection || containsDocument(p.documents, next) {
				continue
			}
			if !f.documentMeetsFilters(next, stem.Filters) {
				continue
			}
			extended = true
			f.walk(stem, chain, path{
				documents: append(append([]domain.Document{}, p.documents...), next),
				links:     append(append([]domain.LinkInstance{}, p.links...), link),
			})
		}
		if extended {
			return
		}
		if hasFiltersBeyond(stem, chain, depth) {
			return
		}
	}

	if !f.pathMeetsFulltexts(p) {
		return
	}
	for _, document := range p.documents {
		f.keptDocuments[document.Key()] = true
	}
	for _, link := range p.links {
		f.keptLinks[link.Key()] = true
	}
}

// hasFiltersBeyond reports whether the stem filters a chain position the path did not reach.
func hasFiltersBeyond(stem domain.QueryStem, chain []string, depth int) bool {
	reached := make(map[string]bool)
	for _, id := range chain[:depth+1] {
		reached[id] = true
	}
	for _, filter := range stem.Filters {
		if !reached[filter.CollectionID] {
			return true
		}
	}
	for _, filter := range stem.LinkFilters {
		for i, linkTypeID := range stem.LinkTypeIDs {
			if linkTypeID == filter.LinkTypeID && i >= depth {
				return true
			}
		}
	}
	return false
}

func (f *filter) pathMeetsFulltexts(p path) bool {
	for _, text := range f.fulltexts {
		met := false
		for _, document := range p.documents {
			if f.documentMeetsFulltext(document, text) {
				met = true
				break
			}
		}
		if !met {
			for _, link := range p.links {
				if dataMeetsFulltext(link.Data, f.linkTypes[link.LinkTypeID].Attributes, text, f.in.ConstraintData) {
					met = true
					break
				}
			}
		}
		if !met {
			return false
		}
	}
	return true
}

func (f *filter) documentMeetsFulltext(document domain.Document, text string) bool {
	return dataMeetsFulltext(document.Data, f.collections[document.CollectionID].Attributes, text, f.in.ConstraintData)
}

// DocumentMeetsFulltexts reports whether every term occurs in some displayed attribute value.
func DocumentMeetsFulltexts(document domain.Document, collection domain.Collection, fulltexts []string, data domain.ConstraintData) bool {
	for _, text := range fulltexts {
		if !dataMeetsFulltext(document.Data, collection.Attributes, constraint.Fold(strings.TrimSpace(text)), data) {
			return false
		}
	}
	return true
}

// dataMeetsFulltext expects text already folded.
func dataMeetsFulltext(data map[string]any, attributes []domain.Attribute, text string, constraintData domain.ConstraintData) bool {
	for attributeID, value := range data {
		var c *domain.Constraint
		if attribute, ok := domain.FindAttribute(attributes, attributeID); ok {
			c = attribute.Constraint
		}
		if strings.Contains(constraint.Fold(constraint.Format(c, value, constraintData)), text) {
			return true
		}
	}
	return false
}

func (f *filter) documentMeetsFilters(document domain.Document, filters []domain.AttributeFilter) bool {
	collection := f.collections[document.CollectionID]
	for _, filter := range filters {
		if filter.CollectionID != document.CollectionID {
			continue
		}
		attribute, _ := domain.FindAttribute(collection.Attributes, filter.AttributeID)
		if !valueMeetsCondition(attribute.Constraint, document.Data[filter.AttributeID], filter.Condition, filter.Value, f.in.ConstraintData) {
			return false
		}
	}
	return true
}

func linkMeetsFilters(link domain.LinkInstance, filters []domain.LinkAttributeFilter, linkType domain.LinkType, data domain.ConstraintData) bool {
	for _, filter := range filters {
		if filter.LinkTypeID != link.LinkTypeID {
			continue
		}
		attribute, _ := domain.FindAttribute(linkType.Attributes, filter.AttributeID)
		if !valueMeetsCondition(attribute.Constraint, link.Data[filter.AttributeID], filter.Condition, filter.Value, data) {
			return false
		}
	}
	return true
}

func valueMeetsCondition(c *domain.Constraint, value any, condition domain.FilterCondition, expected any, data domain.ConstraintData) bool {
	switch condition {
	case domain.ConditionIsEmpty:
		return constraint.IsEmpty(value)
	case domain.ConditionNotEmpty:
		return !constraint.IsEmpty(value)
	case domain.ConditionEquals:
		return constraint.Equal(c, value, expected)
	case domain.ConditionNotEquals:
		return !constraint.Equal(c, value, expected)
	case domain.ConditionContains, domain.ConditionNotContains:
		contains := strings.Contains(
			constraint.Fold(constraint.Format(c, value, data)),
			constraint.Fold(constraint.Format(nil, expected, data)),
		)
		return contains == (condition == domain.ConditionContains)
	case domain.ConditionGreaterThan:
		return !constraint.IsEmpty(value) && constraint.Compare(c, value, expected, data) > 0
	case domain.ConditionLowerThan:
		return !constraint.IsEmpty(value) && constraint.Compare(c, value, expected, data) < 0
	}
	return true
}

// includeSubItems keeps every readable descendant of a kept document.
func (f *filter) includeSubItems() {
	children := make(map[string][]string)
	for key, document := range f.documents {
		if document.MetaData.ParentID != "" {
			children[document.MetaData.ParentID] = append(children[document.MetaData.ParentID], key)
		}
	}
	queue := make([]string, 0, len(f.keptDocuments))
	for key := range f.keptDocuments {
		queue = append(queue, key)
	}
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		for _, child := range children[key] {
			if !f.keptDocuments[child] {
				f.keptDocuments[child] = true
				queue = append(queue, child)
			}
		}
	}
}

func containsDocument(documents []domain.Document, document domain.Document) bool {
	for _, d := range documents {
		if d.Key() == document.Key() {
			return true
		}
	}
	return false
}
