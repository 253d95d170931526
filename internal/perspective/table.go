package perspective

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/pipeline"
)

// TableConfigPart is the column order of one table part.
type TableConfigPart struct {
	CollectionID string   `json:"collectionId"`
	LinkTypeID   string   `json:"linkTypeId,omitempty"`
	AttributeIDs []string `json:"attributeIds"`
}

type TableConfig struct {
	Parts []TableConfigPart `json:"parts"`
}

type Table struct {
	*binding
}

func NewTable(s Store, runner *pipeline.Runner[json.RawMessage], log zerolog.Logger) *Table {
	t := &Table{}
	t.binding = &binding{perspective: domain.PerspectiveTable, store: s, runner: runner, check: t.CheckOrTransformConfig, log: log}
	return t
}

// CheckOrTransformConfig rebuilds the parts along the first query stem. Column orders of parts
// that still match are kept; removed attributes are dropped and new ones appended.
func (t *Table) CheckOrTransformConfig(config json.RawMessage, ctx Context) (json.RawMessage, error) {
	current := decode[TableConfig](config)
	result := TableConfig{Parts: []TableConfigPart{}}

	if ctx.Query == nil || len(ctx.Query.Stems) == 0 {
		return json.Marshal(result)
	}
	stem := ctx.Query.Stems[0]
	collection, ok := ctx.Collections[stem.CollectionID]
	if !ok {
		return json.Marshal(result)
	}

	result.Parts = append(result.Parts, tablePart(current, 0, collection.ID, "", collection.Attributes))
	for i, linkTypeID := range stem.LinkTypeIDs {
		linkType, ok := ctx.LinkTypes[linkTypeID]
		if !ok {
			break
		}
		next, ok := ctx.Collections[linkType.OtherCollectionID(result.Parts[i].CollectionID)]
		if !ok {
			break
		}
		attributes := append(append([]domain.Attribute(nil), linkType.Attributes...), next.Attributes...)
		result.Parts = append(result.Parts, tablePart(current, i+1, next.ID, linkType.ID, attributes))
	}
	return json.Marshal(result)
}

func tablePart(current TableConfig, index int, collectionID, linkTypeID string, attributes []domain.Attribute) TableConfigPart {
	part := TableConfigPart{CollectionID: collectionID, LinkTypeID: linkTypeID, AttributeIDs: []string{}}
	seen := map[string]bool{}
	if index < len(current.Parts) && current.Parts[index].CollectionID == collectionID && current.Parts[index].LinkTypeID == linkTypeID {
		for _, id := range current.Parts[index].AttributeIDs {
			if hasAttribute(attributes, id) && !seen[id] {
				seen[id] = true
				part.AttributeIDs = append(part.AttributeIDs, id)
			}
		}
	}
	for _, attribute := range attributes {
		if attribute.ID != "" && !seen[attribute.ID] {
			seen[attribute.ID] = true
			part.AttributeIDs = append(part.AttributeIDs, attribute.ID)
		}
	}
	return part
}
