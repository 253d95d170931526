package table

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lumeer-engine/internal/constraint"
	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/remote"
	"lumeer-engine/internal/store"
)

// operation is a dispatched edit. rollback runs with the session locked.
type operation struct {
	cursor   Cursor
	rowID    string
	run      func(ctx context.Context) error
	rollback func()
}

// Commit saves the edited value, or links the chosen suggestion when suggestionID is set.
// An unchanged value issues no request.
func (s *Session) Commit(suggestionID string) error {
	s.mu.Lock()
	op, err := s.commit(suggestionID)
	s.mu.Unlock()
	if err != nil || op == nil {
		return err
	}
	s.dispatch(op)
	return nil
}

func (s *Session) dispatch(op *operation) {
	task := func(ctx context.Context) error {
		if err := op.run(ctx); err != nil {
			s.mu.Lock()
			op.rollback()
			s.fail(op.cursor, op.rowID, err)
			s.mu.Unlock()
		}
		return nil
	}
	if err := s.executor.Submit(task); err != nil {
		s.mu.Lock()
		op.rollback()
		s.fail(op.cursor, op.rowID, fmt.Errorf("dispatch edit: %w", err))
		s.mu.Unlock()
	}
}

func (s *Session) commit(suggestionID string) (*operation, error) {
	if s.state != StateEditing && s.state != StateSuggesting {
		return nil, ErrNotEditing
	}
	cursor := *s.cursor
	part, row, column, err := s.cell(cursor)
	if err != nil {
		return nil, err
	}
	if suggestionID != "" {
		return s.commitSuggestion(cursor, part, row, suggestionID)
	}

	value := s.editValue
	if constraint.Equal(column.Constraint, row.value(column), value) {
		s.editValue = nil
		s.suggestions = nil
		s.state = StateViewing
		s.discardIfEmpty(part, row)
		return nil, nil
	}

	previous := s.previousRow(part, row)
	if part.Index > 0 && (previous == nil || !previous.Persisted()) {
		s.log.Warn().Str("row", row.ID).Int("part", part.Index).Msg("previous row is not saved yet")
		s.emit(Event{Type: EventRejected, Part: part.Index, RowID: row.ID, Message: ErrUninitializedRow.Error()})
		return nil, ErrUninitializedRow
	}
	if row.Persisted() && column.ResourceType == domain.ResourceLinkType && row.LinkInstanceID == "" {
		return nil, ErrUninitializedRow
	}

	s.editValue = nil
	s.suggestions = nil

	switch {
	case row.Creating:
		s.enqueue(row, column, value)
		s.state = StateViewing
		return nil, nil
	case row.Persisted():
		s.state = StateSaving
		return s.patchOperation(cursor, part, row, column, value), nil
	default:
		if constraint.IsEmpty(value) {
			row.setValue(column, value)
			if s.discardIfEmpty(part, row) {
				s.state = StateViewing
				return nil, nil
			}
		}
		s.state = StateSaving
		return s.createOperation(cursor, part, row, previous, value), nil
	}
}

// enqueue records an edit made while the row's document is still being created.
func (s *Session) enqueue(row *Row, column Column, value any) {
	row.setValue(column, value)
	q, ok := s.pending[row.CorrelationID]
	if !ok {
		q = &queued{data: map[string]any{}, linkData: map[string]any{}}
		s.pending[row.CorrelationID] = q
	}
	if column.ResourceType == domain.ResourceLinkType {
		q.linkData[column.Key()] = value
	} else {
		q.data[column.Key()] = value
	}
}

func (s *Session) patchOperation(cursor Cursor, part *Part, row *Row, column Column, value any) *operation {
	old := row.value(column)
	row.setValue(column, value)
	partIndex, rowID, collectionID := part.Index, row.ID, part.CollectionID
	documentID, linkInstanceID := row.DocumentID, row.LinkInstanceID

	return &operation{
		cursor: cursor,
		rowID:  rowID,
		run: func(ctx context.Context) error {
			attributeID, err := s.ensureAttribute(ctx, partIndex, cursor.Column)
			if err != nil {
				return err
			}
			patch := map[string]any{attributeID: value}
			if column.ResourceType == domain.ResourceLinkType {
				link, err := s.remote.PatchLinkInstanceData(ctx, linkInstanceID, patch)
				if err != nil {
					return err
				}
				s.apply(store.UpsertLinkInstances{LinkInstances: []domain.LinkInstance{link}})
			} else {
				document, err := s.remote.PatchDocumentData(ctx, collectionID, documentID, patch)
				if err != nil {
					return err
				}
				s.apply(store.UpsertDocuments{Documents: []domain.Document{document}})
			}
			s.mu.Lock()
			s.finish(cursor)
			s.mu.Unlock()
			s.emit(Event{Type: EventSaved, Part: partIndex, RowID: rowID})
			return nil
		},
		rollback: func() {
			part := s.parts[partIndex]
			if row, _ := part.row(rowID); row != nil {
				row.setValue(part.Columns[cursor.Column], old)
			}
		},
	}
}

// createOperation persists a new row: the attribute if the column has none yet, then the
// document, then the link instance chaining it to the previous part's row.
func (s *Session) createOperation(cursor Cursor, part *Part, row *Row, previous *Row, value any) *operation {
	row.Creating = true
	if row.CorrelationID == "" {
		row.CorrelationID = uuid.NewString()
	}
	row.setValue(part.Columns[cursor.Column], value)
	partIndex, rowID, correlationID := part.Index, row.ID, row.CorrelationID
	collectionID, linkTypeID := part.CollectionID, part.LinkTypeID
	previousDocumentID := ""
	if previous != nil {
		previousDocumentID = previous.DocumentID
	}

	var created domain.Document
	return &operation{
		cursor: cursor,
		rowID:  rowID,
		run: func(ctx context.Context) error {
			if _, err := s.ensureAttribute(ctx, partIndex, cursor.Column); err != nil {
				return err
			}

			s.mu.Lock()
			part := s.parts[partIndex]
			var data, linkData map[string]any
			if row, _ := part.row(rowID); row != nil {
				data = s.resolveKeys(part, row.Data)
				linkData = s.resolveKeys(part, row.LinkData)
			}
			s.mu.Unlock()

			document := domain.Document{CorrelationID: correlationID, CollectionID: collectionID, Data: data}
			s.apply(store.UpsertDocuments{Documents: []domain.Document{document}})
			var err error
			created, err = s.remote.CreateDocument(ctx, document)
			if err != nil {
				return err
			}
			if created.CorrelationID == "" {
				created.CorrelationID = correlationID
			}
			s.apply(store.UpsertDocuments{Documents: []domain.Document{created}})

			var link domain.LinkInstance
			if partIndex > 0 {
				link, err = s.remote.CreateLinkInstance(ctx, domain.LinkInstance{
					CorrelationID: uuid.NewString(),
					LinkTypeID:    linkTypeID,
					DocumentIDs:   [2]string{previousDocumentID, created.ID},
					Data:          linkData,
				})
				if err != nil {
					return err
				}
				s.apply(store.UpsertLinkInstances{LinkInstances: []domain.LinkInstance{link}})
			}

			s.mu.Lock()
			if row, _ := part.row(rowID); row != nil {
				row.DocumentID = created.ID
				row.LinkInstanceID = link.ID
				row.Creating = false
			}
			missing := s.queuedWithoutAttribute(part, correlationID)
			s.mu.Unlock()

			for _, column := range missing {
				if _, err := s.ensureAttribute(ctx, partIndex, column); err != nil {
					s.mu.Lock()
					if q := s.pending[correlationID]; q != nil {
						if row, _ := part.row(rowID); row != nil {
							restore(row.Data, q.data, created.Data)
							restore(row.LinkData, q.linkData, link.Data)
						}
					}
					delete(s.pending, correlationID)
					s.fail(cursor, rowID, err)
					s.mu.Unlock()
					return nil
				}
			}

			s.mu.Lock()
			q := s.pending[correlationID]
			delete(s.pending, correlationID)
			var queuedData, queuedLinkData map[string]any
			if q != nil {
				queuedData = changedOnly(s.resolveKeys(part, q.data), created.Data)
				queuedLinkData = changedOnly(s.resolveKeys(part, q.linkData), link.Data)
			}
			s.finish(cursor)
			s.mu.Unlock()

			if err := s.flush(ctx, collectionID, created.ID, link.ID, queuedData, queuedLinkData); err != nil {
				s.mu.Lock()
				if row, _ := part.row(rowID); row != nil {
					restore(row.Data, queuedData, created.Data)
					restore(row.LinkData, queuedLinkData, link.Data)
				}
				s.fail(cursor, rowID, err)
				s.mu.Unlock()
				return nil
			}
			s.emit(Event{Type: EventSaved, Part: partIndex, RowID: rowID})
			return nil
		},
		rollback: func() {
			delete(s.pending, correlationID)
			row, _ := s.parts[partIndex].row(rowID)
			if row == nil {
				return
			}
			row.Creating = false
			if created.ID != "" {
				row.DocumentID = created.ID
				row.Data = cloneData(created.Data)
				row.LinkData = nil
				return
			}
			row.CorrelationID = ""
			row.Data = map[string]any{}
			row.LinkData = nil
			s.apply(store.RemoveDocument{Key: correlationID})
		},
	}
}

// flush sends the edits queued during creation as one update per entity.
func (s *Session) flush(ctx context.Context, collectionID, documentID, linkInstanceID string, data, linkData map[string]any) error {
	if len(data) > 0 {
		document, err := s.remote.PatchDocumentData(ctx, collectionID, documentID, data)
		if err != nil {
			return err
		}
		s.apply(store.UpsertDocuments{Documents: []domain.Document{document}})
	}
	if len(linkData) > 0 && linkInstanceID != "" {
		link, err := s.remote.PatchLinkInstanceData(ctx, linkInstanceID, linkData)
		if err != nil {
			return err
		}
		s.apply(store.UpsertLinkInstances{LinkInstances: []domain.LinkInstance{link}})
	}
	return nil
}

func (s *Session) commitSuggestion(cursor Cursor, part *Part, row *Row, documentID string) (*operation, error) {
	if s.state != StateSuggesting {
		return nil, ErrUnknownSuggestion
	}
	var suggestion *domain.Document
	for i := range s.suggestions {
		if s.suggestions[i].ID == documentID {
			suggestion = &s.suggestions[i]
			break
		}
	}
	if suggestion == nil {
		return nil, ErrUnknownSuggestion
	}
	previous := s.previousRow(part, row)
	if previous == nil || !previous.Persisted() {
		s.log.Warn().Str("row", row.ID).Int("part", part.Index).Msg("previous row is not saved yet")
		return nil, ErrUninitializedRow
	}

	row.DocumentID = suggestion.ID
	row.Data = cloneData(suggestion.Data)
	row.Creating = true
	s.editValue = nil
	s.suggestions = nil
	s.state = StateSaving

	partIndex, rowID, linkTypeID := part.Index, row.ID, part.LinkTypeID
	documentIDs := [2]string{previous.DocumentID, suggestion.ID}
	return &operation{
		cursor: cursor,
		rowID:  rowID,
		run: func(ctx context.Context) error {
			link, err := s.remote.CreateLinkInstance(ctx, domain.LinkInstance{
				CorrelationID: uuid.NewString(),
				LinkTypeID:    linkTypeID,
				DocumentIDs:   documentIDs,
			})
			if err != nil {
				return err
			}
			s.apply(store.UpsertLinkInstances{LinkInstances: []domain.LinkInstance{link}})
			s.mu.Lock()
			if row, _ := s.parts[partIndex].row(rowID); row != nil {
				row.LinkInstanceID = link.ID
				row.LinkData = cloneData(link.Data)
				row.Creating = false
			}
			s.finish(cursor)
			s.mu.Unlock()
			s.emit(Event{Type: EventSaved, Part: partIndex, RowID: rowID})
			return nil
		},
		rollback: func() {
			if row, _ := s.parts[partIndex].row(rowID); row != nil {
				row.DocumentID = ""
				row.Data = map[string]any{}
				row.Creating = false
			}
		},
	}, nil
}

// ensureAttribute returns the column's attribute id, creating the attribute first when needed.
func (s *Session) ensureAttribute(ctx context.Context, partIndex, columnIndex int) (string, error) {
	s.mu.Lock()
	column := s.parts[partIndex].Columns[columnIndex]
	s.mu.Unlock()
	if column.AttributeID != "" {
		return column.AttributeID, nil
	}

	created, err := s.remote.CreateAttributes(ctx, column.ResourceType, column.ResourceID, []domain.Attribute{
		{CorrelationID: column.CorrelationID, Name: column.Name},
	})
	if err != nil {
		return "", err
	}
	attribute, ok := createdAttribute(created, column.CorrelationID)
	if !ok {
		return "", fmt.Errorf("%w: attribute %q was not created", remote.ErrRemote, column.Name)
	}
	s.registerAttribute(column, attribute)

	s.mu.Lock()
	defer s.mu.Unlock()
	part := s.parts[partIndex]
	part.Columns[columnIndex].AttributeID = attribute.ID
	part.renameKey(column.CorrelationID, attribute.ID, column.ResourceType)
	for _, q := range s.pending {
		renameKey(q.data, column.CorrelationID, attribute.ID)
		renameKey(q.linkData, column.CorrelationID, attribute.ID)
	}
	return attribute.ID, nil
}

func (s *Session) registerAttribute(column Column, attribute domain.Attribute) {
	state := s.store.State()
	switch column.ResourceType {
	case domain.ResourceLinkType:
		if linkType, ok := state.LinkTypes[column.ResourceID]; ok {
			linkType.Attributes = append(append([]domain.Attribute(nil), linkType.Attributes...), attribute)
			s.apply(store.UpsertLinkTypes{LinkTypes: []domain.LinkType{linkType}})
		}
	default:
		if collection, ok := state.Collections[column.ResourceID]; ok {
			collection.Attributes = append(append([]domain.Attribute(nil), collection.Attributes...), attribute)
			s.apply(store.UpsertCollections{Collections: []domain.Collection{collection}})
		}
	}
}

func (s *Session) apply(action store.Action) {
	if _, err := s.store.Dispatch(action); err != nil {
		s.log.Warn().Err(err).Str("action", string(action.Type())).Msg("local store rejected table update")
	}
}

// queuedWithoutAttribute lists the columns holding edits queued for the row whose attribute
// does not exist yet. The caller holds s.mu.
func (s *Session) queuedWithoutAttribute(part *Part, correlationID string) []int {
	q := s.pending[correlationID]
	if q == nil {
		return nil
	}
	var columns []int
	for i, column := range part.Columns {
		if column.AttributeID != "" {
			continue
		}
		data := q.data
		if column.ResourceType == domain.ResourceLinkType {
			data = q.linkData
		}
		if _, ok := data[column.CorrelationID]; ok {
			columns = append(columns, i)
		}
	}
	return columns
}

// resolveKeys keeps the values whose column has an attribute id, keyed by that id.
func (s *Session) resolveKeys(part *Part, data map[string]any) map[string]any {
	result := map[string]any{}
	for key, value := range data {
		resolved := ""
		for _, column := range part.Columns {
			if column.AttributeID == key || (column.CorrelationID == key && column.AttributeID != "") {
				resolved = column.AttributeID
				break
			}
		}
		if resolved == "" {
			s.log.Warn().Str("key", key).Msg("skipping value of a column without attribute")
			continue
		}
		result[resolved] = value
	}
	return result
}

func createdAttribute(created []domain.Attribute, correlationID string) (domain.Attribute, bool) {
	for _, attribute := range created {
		if attribute.CorrelationID == correlationID && attribute.ID != "" {
			return attribute, true
		}
	}
	if len(created) == 1 && created[0].ID != "" {
		return created[0], true
	}
	return domain.Attribute{}, false
}

func changedOnly(data, confirmed map[string]any) map[string]any {
	result := map[string]any{}
	for key, value := range data {
		if current, ok := confirmed[key]; ok && constraint.Equal(nil, current, value) {
			continue
		}
		result[key] = value
	}
	return result
}

func restore(target, keys, confirmed map[string]any) {
	if target == nil {
		return
	}
	for key := range keys {
		if value, ok := confirmed[key]; ok {
			target[key] = value
			continue
		}
		delete(target, key)
	}
}

func renameKey(data map[string]any, from, to string) {
	if value, ok := data[from]; ok {
		delete(data, from)
		data[to] = value
	}
}
