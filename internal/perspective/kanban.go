package perspective

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/pipeline"
)

const defaultKanbanColumnWidth = 300

// KanbanStem names the attribute whose values split a collection's documents into columns.
type KanbanStem struct {
	CollectionID string `json:"collectionId"`
	AttributeID  string `json:"attributeId,omitempty"`
}

type KanbanColumn struct {
	Title string `json:"title"`
	Width int    `json:"width"`
}

type KanbanConfig struct {
	Stems   []KanbanStem   `json:"stems"`
	Columns []KanbanColumn `json:"columns"`
}

type Kanban struct {
	*binding
}

func NewKanban(s Store, runner *pipeline.Runner[json.RawMessage], log zerolog.Logger) *Kanban {
	k := &Kanban{}
	k.binding = &binding{perspective: domain.PerspectiveKanban, store: s, runner: runner, check: k.CheckOrTransformConfig, log: log}
	return k
}

// CheckOrTransformConfig keeps one stem per query collection and drops columns without a title.
func (k *Kanban) CheckOrTransformConfig(config json.RawMessage, ctx Context) (json.RawMessage, error) {
	current := decode[KanbanConfig](config)
	result := KanbanConfig{Stems: []KanbanStem{}, Columns: []KanbanColumn{}}

	for _, collection := range ctx.anchors() {
		stem := KanbanStem{CollectionID: collection.ID}
		for _, previous := range current.Stems {
			if previous.CollectionID == collection.ID && hasAttribute(collection.Attributes, previous.AttributeID) {
				stem.AttributeID = previous.AttributeID
				break
			}
		}
		result.Stems = append(result.Stems, stem)
	}

	seen := map[string]bool{}
	for _, column := range current.Columns {
		title := strings.TrimSpace(column.Title)
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		if column.Width <= 0 {
			column.Width = defaultKanbanColumnWidth
		}
		column.Title = title
		result.Columns = append(result.Columns, column)
	}
	return json.Marshal(result)
}
