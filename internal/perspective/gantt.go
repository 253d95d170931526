package perspective

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/pipeline"
)

type GanttMode string

const (
	GanttDay   GanttMode = "Day"
	GanttWeek  GanttMode = "Week"
	GanttMonth GanttMode = "Month"
)

type GanttStem struct {
	CollectionID        string `json:"collectionId"`
	NameAttributeID     string `json:"nameAttributeId,omitempty"`
	StartAttributeID    string `json:"startAttributeId,omitempty"`
	EndAttributeID      string `json:"endAttributeId,omitempty"`
	ProgressAttributeID string `json:"progressAttributeId,omitempty"`
}

type GanttConfig struct {
	Mode  GanttMode   `json:"mode"`
	Stems []GanttStem `json:"stems"`
}

type Gantt struct {
	*binding
}

func NewGantt(s Store, runner *pipeline.Runner[json.RawMessage], log zerolog.Logger) *Gantt {
	g := &Gantt{}
	g.binding = &binding{perspective: domain.PerspectiveGantt, store: s, runner: runner, check: g.CheckOrTransformConfig, log: log}
	return g
}

func (g *Gantt) CheckOrTransformConfig(config json.RawMessage, ctx Context) (json.RawMessage, error) {
	current := decode[GanttConfig](config)
	result := GanttConfig{Mode: current.Mode, Stems: []GanttStem{}}
	switch result.Mode {
	case GanttDay, GanttWeek, GanttMonth:
	default:
		result.Mode = GanttDay
	}

	for _, collection := range ctx.anchors() {
		stem := GanttStem{CollectionID: collection.ID}
		for _, previous := range current.Stems {
			if previous.CollectionID != collection.ID {
				continue
			}
			if hasAttribute(collection.Attributes, previous.NameAttributeID) {
				stem.NameAttributeID = previous.NameAttributeID
			}
			if isDateAttribute(collection.Attributes, previous.StartAttributeID) {
				stem.StartAttributeID = previous.StartAttributeID
			}
			if isDateAttribute(collection.Attributes, previous.EndAttributeID) {
				stem.EndAttributeID = previous.EndAttributeID
			}
			if isProgressAttribute(collection.Attributes, previous.ProgressAttributeID) {
				stem.ProgressAttributeID = previous.ProgressAttributeID
			}
			break
		}
		result.Stems = append(result.Stems, stem)
	}
	return json.Marshal(result)
}

// isProgressAttribute accepts numeric attributes, or attributes without a constraint.
func isProgressAttribute(attributes []domain.Attribute, id string) bool {
	attribute, ok := domain.FindAttribute(attributes, id)
	if id == "" || !ok {
		return false
	}
	if attribute.Constraint == nil {
		return true
	}
	return attribute.Constraint.Type == domain.ConstraintNumber || attribute.Constraint.Type == domain.ConstraintPercentage
}
