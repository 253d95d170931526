package perspective

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/pipeline"
)

type CalendarMode string

const (
	CalendarMonth CalendarMode = "month"
	CalendarWeek  CalendarMode = "week"
	CalendarDay   CalendarMode = "day"
)

type CalendarStem struct {
	CollectionID     string `json:"collectionId"`
	NameAttributeID  string `json:"nameAttributeId,omitempty"`
	StartAttributeID string `json:"startAttributeId,omitempty"`
	EndAttributeID   string `json:"endAttributeId,omitempty"`
}

type CalendarConfig struct {
	Mode  CalendarMode   `json:"mode"`
	Stems []CalendarStem `json:"stems"`
}

type Calendar struct {
	*binding
}

func NewCalendar(s Store, runner *pipeline.Runner[json.RawMessage], log zerolog.Logger) *Calendar {
	c := &Calendar{}
	c.binding = &binding{perspective: domain.PerspectiveCalendar, store: s, runner: runner, check: c.CheckOrTransformConfig, log: log}
	return c
}

// CheckOrTransformConfig keeps one stem per query collection. Start and end must point to
// date attributes.
func (c *Calendar) CheckOrTransformConfig(config json.RawMessage, ctx Context) (json.RawMessage, error) {
	current := decode[CalendarConfig](config)
	result := CalendarConfig{Mode: current.Mode, Stems: []CalendarStem{}}
	switch result.Mode {
	case CalendarMonth, CalendarWeek, CalendarDay:
	default:
		result.Mode = CalendarMonth
	}

	for _, collection := range ctx.anchors() {
		stem := CalendarStem{CollectionID: collection.ID}
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
			break
		}
		result.Stems = append(result.Stems, stem)
	}
	return json.Marshal(result)
}

func isDateAttribute(attributes []domain.Attribute, id string) bool {
	attribute, ok := domain.FindAttribute(attributes, id)
	return id != "" && ok && attribute.Constraint != nil && attribute.Constraint.Type == domain.ConstraintDateTime
}
