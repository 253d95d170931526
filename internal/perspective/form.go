package perspective

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/pipeline"
)

// FormCell places one attribute of the form's collection.
type FormCell struct {
	AttributeID string `json:"attributeId"`
	Label       string `json:"label,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type FormSection struct {
	Title string     `json:"title,omitempty"`
	Cells []FormCell `json:"cells"`
}

// FormConfig lays out a single collection's attributes for creating documents.
type FormConfig struct {
	CollectionID string        `json:"collectionId,omitempty"`
	Sections     []FormSection `json:"sections"`
}

type Form struct {
	*binding
}

func NewForm(s Store, runner *pipeline.Runner[json.RawMessage], log zerolog.Logger) *Form {
	f := &Form{}
	f.binding = &binding{perspective: domain.PerspectiveForm, store: s, runner: runner, check: f.CheckOrTransformConfig, log: log}
	return f
}

// CheckOrTransformConfig binds the form to one of the query's anchor collections, keeping the
// previous one while the query still starts from it. Cells of missing attributes and repeated
// attributes are dropped, as are sections left without a title and cells.
func (f *Form) CheckOrTransformConfig(config json.RawMessage, ctx Context) (json.RawMessage, error) {
	current := decode[FormConfig](config)
	result := FormConfig{Sections: []FormSection{}}

	anchors := ctx.anchors()
	if len(anchors) == 0 {
		return json.Marshal(result)
	}
	collection := anchors[0]
	for _, anchor := range anchors {
		if anchor.ID == current.CollectionID {
			collection = anchor
			break
		}
	}
	result.CollectionID = collection.ID
	if current.CollectionID != collection.ID {
		return json.Marshal(result)
	}

	placed := map[string]bool{}
	for _, section := range current.Sections {
		checked := FormSection{Title: strings.TrimSpace(section.Title), Cells: []FormCell{}}
		for _, cell := range section.Cells {
			if placed[cell.AttributeID] || !hasAttribute(collection.Attributes, cell.AttributeID) {
				continue
			}
			placed[cell.AttributeID] = true
			checked.Cells = append(checked.Cells, cell)
		}
		if checked.Title == "" && len(checked.Cells) == 0 {
			continue
		}
		result.Sections = append(result.Sections, checked)
	}
	return json.Marshal(result)
}
