package table

import (
	"context"
	"sync"

	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/query"
	"lumeer-engine/internal/remote"
	"lumeer-engine/internal/store"
	"lumeer-engine/internal/worker"
)

const (
	eventName      = "table:event"
	maxSuggestions = 5
)

// Store is the part of the local store a session reads and writes.
type Store interface {
	Dispatch(action store.Action) (string, error)
	State() store.State
}

type queued struct {
	data     map[string]any
	linkData map[string]any
}

type Session struct {
	mu          sync.Mutex
	id          string
	user        *domain.User
	parts       []*Part
	permissions domain.ResourcesPermissions
	state       CellState
	cursor      *Cursor
	editValue   any
	suggestions []domain.Document
	pending     map[string]*queued

	store    Store
	remote   remote.Store
	executor worker.Executor
	bus      *events.TypedEventBus[Event]
	log      zerolog.Logger
}

func newSession(id string, user *domain.User, parts []*Part, permissions domain.ResourcesPermissions, deps dependencies) (*Session, error) {
	bus, err := events.NewTypedEventBus[Event](events.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &Session{
		id:          id,
		user:        user,
		parts:       parts,
		permissions: permissions,
		state:       StateViewing,
		pending:     map[string]*queued{},
		store:       deps.store,
		remote:      deps.remote,
		executor:    deps.executor,
		bus:         bus,
		log:         deps.log.With().Str("table", id).Logger(),
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

// Subscribe registers fn for the outcomes of asynchronous edits.
func (s *Session) Subscribe(fn func(ctx context.Context, event Event) error) func() {
	return s.bus.Subscribe(eventName, fn)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{ID: s.id, State: s.state, EditValue: s.editValue}
	if s.cursor != nil {
		cursor := *s.cursor
		snapshot.Cursor = &cursor
	}
	snapshot.Suggestions = append(snapshot.Suggestions, s.suggestions...)
	for _, part := range s.parts {
		ps := PartSnapshot{
			Index:        part.Index,
			CollectionID: part.CollectionID,
			LinkTypeID:   part.LinkTypeID,
			Columns:      append([]Column(nil), part.Columns...),
			Rows:         make([]Row, 0, len(part.Rows)),
		}
		for _, row := range part.Rows {
			ps.Rows = append(ps.Rows, row.clone())
		}
		snapshot.Parts = append(snapshot.Parts, ps)
	}
	return snapshot
}

// AddRow appends an empty, not yet persisted row to a part. Rows of linked parts chain to previousRowID.
func (s *Session) AddRow(partIndex int, previousRowID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partIndex < 0 || partIndex >= len(s.parts) {
		return "", ErrInvalidCursor
	}
	if partIndex > 0 {
		if previous, _ := s.parts[partIndex-1].row(previousRowID); previous == nil {
			return "", ErrInvalidCursor
		}
	} else {
		previousRowID = ""
	}
	row := &Row{ID: uuid.NewString(), PreviousRowID: previousRowID, Data: map[string]any{}}
	s.parts[partIndex].Rows = append(s.parts[partIndex].Rows, row)
	return row.ID, nil
}

// AddColumn appends a column for an attribute that does not exist yet.
func (s *Session) AddColumn(partIndex int, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if partIndex < 0 || partIndex >= len(s.parts) {
		return 0, ErrInvalidCursor
	}
	part := s.parts[partIndex]
	part.Columns = append(part.Columns, Column{
		CorrelationID: uuid.NewString(),
		Name:          name,
		ResourceType:  domain.ResourceCollection,
		ResourceID:    part.CollectionID,
	})
	return len(part.Columns) - 1, nil
}

// Select moves the cursor. A local edit in progress is discarded; dispatched edits keep running.
func (s *Session) Select(cursor Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, _, err := s.cell(cursor); err != nil {
		return err
	}
	if s.state == StateEditing || s.state == StateSuggesting {
		s.discardLocalEdit()
	}
	s.cursor = &cursor
	s.state = StateSelected
	return nil
}

// Edit starts editing the selected cell.
func (s *Session) Edit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateEditing || s.state == StateSuggesting {
		return nil
	}
	if s.cursor == nil || s.state != StateSelected {
		return ErrNoSelection
	}
	part, row, column, err := s.cell(*s.cursor)
	if err != nil {
		return err
	}
	if !s.editable(part, column) {
		return ErrNotEditable
	}
	s.editValue = row.value(column)
	s.state = StateEditing
	return nil
}

// Input replaces the edited value. New rows of linked parts offer existing documents to link.
func (s *Session) Input(value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing && s.state != StateSuggesting {
		return ErrNotEditing
	}
	part, row, column, err := s.cell(*s.cursor)
	if err != nil {
		return err
	}
	s.editValue = value
	s.suggestions = nil
	s.state = StateEditing

	text, ok := value.(string)
	if part.Index == 0 || row.Persisted() || row.Creating || column.ResourceType != domain.ResourceCollection || !ok || text == "" {
		return nil
	}
	s.suggestions = s.suggest(part, row, text)
	if len(s.suggestions) > 0 {
		s.state = StateSuggesting
	}
	return nil
}

func (s *Session) suggest(part *Part, row *Row, text string) []domain.Document {
	state := s.store.State()
	collection, ok := state.Collections[part.CollectionID]
	if !ok {
		return nil
	}
	linked := map[string]bool{}
	if previous, _ := s.parts[part.Index-1].row(row.PreviousRowID); previous != nil {
		for _, sibling := range part.Rows {
			if sibling.PreviousRowID == previous.ID && sibling.DocumentID != "" {
				linked[sibling.DocumentID] = true
			}
		}
	}
	permissions := s.permissions.Collections[part.CollectionID]
	data := state.ConstraintData()

	var result []domain.Document
	for _, document := range state.DocumentsList() {
		if document.CollectionID != part.CollectionID || document.ID == "" || linked[document.ID] {
			continue
		}
		if !query.CanReadDocument(document, collection, permissions, s.user) {
			continue
		}
		if query.DocumentMeetsFulltexts(document, collection, []string{text}, data) {
			result = append(result, document)
			if len(result) == maxSuggestions {
				break
			}
		}
	}
	return result
}

// Cancel drops the edited value; the cell shows its last known-good value again.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEditing && s.state != StateSuggesting {
		return ErrNotEditing
	}
	s.discardLocalEdit()
	s.state = StateViewing
	return nil
}

func (s *Session) discardLocalEdit() {
	s.editValue = nil
	s.suggestions = nil
	if part, row, _, err := s.cell(*s.cursor); err == nil {
		s.discardIfEmpty(part, row)
	}
}

// discardIfEmpty drops a never persisted row once all of its cells are empty.
func (s *Session) discardIfEmpty(part *Part, row *Row) bool {
	if row.Persisted() || row.Creating || !row.empty() {
		return false
	}
	part.removeRow(row.ID)
	if s.cursor != nil && s.cursor.RowID == row.ID {
		s.cursor = nil
	}
	s.emit(Event{Type: EventDiscarded, Part: part.Index, RowID: row.ID})
	return true
}

func (s *Session) cell(cursor Cursor) (*Part, *Row, Column, error) {
	if cursor.Part < 0 || cursor.Part >= len(s.parts) {
		return nil, nil, Column{}, ErrInvalidCursor
	}
	part := s.parts[cursor.Part]
	row, _ := part.row(cursor.RowID)
	if row == nil || cursor.Column < 0 || cursor.Column >= len(part.Columns) {
		return nil, nil, Column{}, ErrInvalidCursor
	}
	return part, row, part.Columns[cursor.Column], nil
}

func (s *Session) editable(part *Part, column Column) bool {
	if column.Computed {
		return false
	}
	permissions := s.permissions.Collections[part.CollectionID]
	if column.ResourceType == domain.ResourceLinkType {
		permissions = s.permissions.LinkTypes[column.ResourceID]
	}
	return permissions.RolesWithView.HasAny(domain.RoleDataWrite, domain.RoleDataContribute)
}

func (s *Session) previousRow(part *Part, row *Row) *Row {
	if part.Index == 0 {
		return nil
	}
	previous, _ := s.parts[part.Index-1].row(row.PreviousRowID)
	return previous
}

func (s *Session) emit(event Event) {
	event.SessionID = s.id
	s.bus.Emit(eventName, event)
}

// finish returns a saving cell to viewing once its request completed.
func (s *Session) finish(cursor Cursor) {
	if s.state == StateSaving && s.cursor != nil && *s.cursor == cursor {
		s.state = StateViewing
	}
}

func (s *Session) fail(cursor Cursor, rowID string, err error) {
	s.finish(cursor)
	s.log.Error().Err(err).Str("row", rowID).Msg("table edit failed")
	s.emit(Event{Type: EventFailed, Part: cursor.Part, RowID: rowID, Message: err.Error()})
}
