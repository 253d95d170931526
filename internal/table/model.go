// Package table implements the table perspective's cell editing state machine. A session owns
// the cursor and the rows of every table part; edits are sent to the Remote Store on a worker
// pool and their results are applied to the local store.
package table

import (
	"errors"

	"lumeer-engine/internal/constraint"
	"lumeer-engine/internal/domain"
)

var (
	ErrUninitializedRow  = errors.New("previous row has no persisted document")
	ErrNotEditable       = errors.New("cell is not editable")
	ErrNotEditing        = errors.New("no cell is being edited")
	ErrNoSelection       = errors.New("no cell is selected")
	ErrInvalidCursor     = errors.New("cursor does not point to a cell")
	ErrUnknownSuggestion = errors.New("unknown suggestion")
	ErrNoStem            = errors.New("query has no collection to show")
	ErrSessionNotFound   = errors.New("table session not found")
	ErrViewNotFound      = errors.New("view not found")
)

type CellState string

const (
	StateViewing    CellState = "viewing"
	StateSelected   CellState = "selected"
	StateEditing    CellState = "editing"
	StateSuggesting CellState = "suggesting"
	StateSaving     CellState = "saving"
)

// Cursor addresses one cell: a column of a row in a table part.
type Cursor struct {
	Part   int    `json:"part"`
	RowID  string `json:"rowId"`
	Column int    `json:"column"`
}

// Column is either an existing attribute or a new one that gets created on first commit.
type Column struct {
	AttributeID   string              `json:"attributeId,omitempty"`
	CorrelationID string              `json:"correlationId,omitempty"`
	Name          string              `json:"name"`
	ResourceType  domain.ResourceType `json:"resourceType"`
	ResourceID    string              `json:"resourceId"`
	Constraint    *domain.Constraint  `json:"constraint,omitempty"`
	Computed      bool                `json:"computed,omitempty"`
}

// Key addresses the column's values in row data.
func (c Column) Key() string {
	if c.AttributeID != "" {
		return c.AttributeID
	}
	return c.CorrelationID
}

// Row is one document of a part, reached from PreviousRowID through LinkInstanceID in linked parts.
type Row struct {
	ID             string         `json:"id"`
	DocumentID     string         `json:"documentId,omitempty"`
	CorrelationID  string         `json:"correlationId,omitempty"`
	LinkInstanceID string         `json:"linkInstanceId,omitempty"`
	PreviousRowID  string         `json:"previousRowId,omitempty"`
	Data           map[string]any `json:"data"`
	LinkData       map[string]any `json:"linkData,omitempty"`
	Creating       bool           `json:"creating,omitempty"`
}

func (r *Row) Persisted() bool {
	return r.DocumentID != ""
}

func (r *Row) value(column Column) any {
	if column.ResourceType == domain.ResourceLinkType {
		return r.LinkData[column.Key()]
	}
	return r.Data[column.Key()]
}

func (r *Row) setValue(column Column, value any) {
	if column.ResourceType == domain.ResourceLinkType {
		if r.LinkData == nil {
			r.LinkData = map[string]any{}
		}
		r.LinkData[column.Key()] = value
		return
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[column.Key()] = value
}

func (r *Row) empty() bool {
	for _, values := range []map[string]any{r.Data, r.LinkData} {
		for _, value := range values {
			if !constraint.IsEmpty(value) {
				return false
			}
		}
	}
	return true
}

func (r Row) clone() Row {
	r.Data = cloneData(r.Data)
	r.LinkData = cloneData(r.LinkData)
	return r
}

// Part is one collection of the table; parts after the first are reached through LinkTypeID.
type Part struct {
	Index        int      `json:"index"`
	CollectionID string   `json:"collectionId"`
	LinkTypeID   string   `json:"linkTypeId,omitempty"`
	Columns      []Column `json:"columns"`
	Rows         []*Row   `json:"-"`
}

func (p *Part) row(id string) (*Row, int) {
	for i, row := range p.Rows {
		if row.ID == id {
			return row, i
		}
	}
	return nil, -1
}

func (p *Part) removeRow(id string) {
	if _, i := p.row(id); i >= 0 {
		p.Rows = append(p.Rows[:i:i], p.Rows[i+1:]...)
	}
}

// renameKey moves values stored under a column correlation id to the created attribute id.
func (p *Part) renameKey(from, to string, resourceType domain.ResourceType) {
	for _, row := range p.Rows {
		data := row.Data
		if resourceType == domain.ResourceLinkType {
			data = row.LinkData
		}
		if value, ok := data[from]; ok {
			delete(data, from)
			data[to] = value
		}
	}
}

type EventType string

const (
	EventSaved     EventType = "saved"
	EventFailed    EventType = "failed"
	EventDiscarded EventType = "discarded"
	EventRejected  EventType = "rejected"
)

// Event reports the outcome of an asynchronous edit.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Part      int       `json:"part"`
	RowID     string    `json:"rowId"`
	Message   string    `json:"message,omitempty"`
}

// PartSnapshot is the serializable view of a part.
type PartSnapshot struct {
	Index        int      `json:"index"`
	CollectionID string   `json:"collectionId"`
	LinkTypeID   string   `json:"linkTypeId,omitempty"`
	Columns      []Column `json:"columns"`
	Rows         []Row    `json:"rows"`
}

// Snapshot is a consistent copy of a session.
type Snapshot struct {
	ID          string            `json:"id"`
	State       CellState         `json:"state"`
	Cursor      *Cursor           `json:"cursor,omitempty"`
	EditValue   any               `json:"editValue,omitempty"`
	Suggestions []domain.Document `json:"suggestions,omitempty"`
	Parts       []PartSnapshot    `json:"parts"`
}

func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	result := make(map[string]any, len(data))
	for k, v := range data {
		result[k] = v
	}
	return result
}
