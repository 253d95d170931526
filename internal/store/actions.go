package store

import (
	"maps"
	"time"

	"lumeer-engine/internal/domain"
)

type ActionType string

const (
	ActionSetWorkspace          ActionType = "workspace/set"
	ActionUpsertUsers           ActionType = "users/upsert"
	ActionUpsertCollections     ActionType = "collections/upsert"
	ActionRemoveCollection      ActionType = "collections/remove"
	ActionUpsertLinkTypes       ActionType = "linkTypes/upsert"
	ActionRemoveLinkType        ActionType = "linkTypes/remove"
	ActionUpsertDocuments       ActionType = "documents/upsert"
	ActionPatchDocumentData     ActionType = "documents/patchData"
	ActionRemoveDocument        ActionType = "documents/remove"
	ActionUpsertLinkInstances   ActionType = "linkInstances/upsert"
	ActionPatchLinkInstanceData ActionType = "linkInstances/patchData"
	ActionRemoveLinkInstance    ActionType = "linkInstances/remove"
	ActionUpsertViews           ActionType = "views/upsert"
	ActionRemoveView            ActionType = "views/remove"
	ActionClear                 ActionType = "clear"
)

// Action is a state transition applied by Reduce.
type Action interface {
	Type() ActionType
	reduce(State) (State, error)
}

type SetWorkspace struct{ Workspace domain.Workspace }

func (SetWorkspace) Type() ActionType { return ActionSetWorkspace }

func (a SetWorkspace) reduce(s State) (State, error) {
	s.Workspace = a.Workspace
	return s, nil
}

type UpsertUsers struct{ Users []domain.User }

func (UpsertUsers) Type() ActionType { return ActionUpsertUsers }

func (a UpsertUsers) reduce(s State) (State, error) {
	s.Users = cloneMap(s.Users)
	for _, user := range a.Users {
		s.Users[user.ID] = user
	}
	return s, nil
}

type UpsertCollections struct{ Collections []domain.Collection }

func (UpsertCollections) Type() ActionType { return ActionUpsertCollections }

func (a UpsertCollections) reduce(s State) (State, error) {
	s.Collections = cloneMap(s.Collections)
	for _, collection := range a.Collections {
		s.Collections[collection.ID] = collection
	}
	return s, nil
}

// RemoveCollection drops the collection with its documents, link types and their instances.
type RemoveCollection struct{ ID string }

func (RemoveCollection) Type() ActionType { return ActionRemoveCollection }

func (a RemoveCollection) reduce(s State) (State, error) {
	s.Collections = cloneMap(s.Collections)
	delete(s.Collections, a.ID)

	s.Documents = cloneMap(s.Documents)
	maps.DeleteFunc(s.Documents, func(_ string, d domain.Document) bool { return d.CollectionID == a.ID })

	s.LinkTypes = cloneMap(s.LinkTypes)
	removed := make(map[string]bool)
	maps.DeleteFunc(s.LinkTypes, func(id string, l domain.LinkType) bool {
		if l.CollectionIDs[0] == a.ID || l.CollectionIDs[1] == a.ID {
			removed[id] = true
			return true
		}
		return false
	})

	s.LinkInstances = cloneMap(s.LinkInstances)
	maps.DeleteFunc(s.LinkInstances, func(_ string, l domain.LinkInstance) bool { return removed[l.LinkTypeID] })
	return s, nil
}

type UpsertLinkTypes struct{ LinkTypes []domain.LinkType }

func (UpsertLinkTypes) Type() ActionType { return ActionUpsertLinkTypes }

func (a UpsertLinkTypes) reduce(s State) (State, error) {
	s.LinkTypes = cloneMap(s.LinkTypes)
	for _, linkType := range a.LinkTypes {
		if linkType.CollectionIDs[0] == "" || linkType.CollectionIDs[1] == "" {
			return s, ErrInvalidLink
		}
		s.LinkTypes[linkType.ID] = linkType
	}
	return s, nil
}

type RemoveLinkType struct{ ID string }

func (RemoveLinkType) Type() ActionType { return ActionRemoveLinkType }

func (a RemoveLinkType) reduce(s State) (State, error) {
	s.LinkTypes = cloneMap(s.LinkTypes)
	delete(s.LinkTypes, a.ID)
	s.LinkInstances = cloneMap(s.LinkInstances)
	maps.DeleteFunc(s.LinkInstances, func(_ string, l domain.LinkInstance) bool { return l.LinkTypeID == a.ID })
	return s, nil
}

// UpsertDocuments stores documents by id. A document carrying both an id and the correlation id
// it was created under replaces its pending entry; references to the correlation id are
// rewritten. Stale copies (older update date) are ignored.
type UpsertDocuments struct{ Documents []domain.Document }

func (UpsertDocuments) Type() ActionType { return ActionUpsertDocuments }

func (a UpsertDocuments) reduce(s State) (State, error) {
	s.Documents = cloneMap(s.Documents)
	renamed := make(map[string]string)
	for _, document := range a.Documents {
		key := document.Key()
		if document.ID != "" && document.CorrelationID != "" {
			if pending, ok := s.Documents[document.CorrelationID]; ok && pending.ID == "" {
				if pending.CollectionID != document.CollectionID {
					return s, ErrCollectionChanged
				}
				delete(s.Documents, document.CorrelationID)
				renamed[document.CorrelationID] = document.ID
			}
		}
		if current, ok := s.Documents[key]; ok {
			if current.CollectionID != document.CollectionID {
				return s, ErrCollectionChanged
			}
			if isStale(current.UpdateDate, document.UpdateDate) {
				continue
			}
		}
		s.Documents[key] = document
	}
	if len(renamed) > 0 {
		s = renameDocumentReferences(s, renamed)
	}
	return s, nil
}

// PatchDocumentData merges data into a stored document.
type PatchDocumentData struct {
	Key  string
	Data map[string]any
}

func (PatchDocumentData) Type() ActionType { return ActionPatchDocumentData }

func (a PatchDocumentData) reduce(s State) (State, error) {
	document, ok := s.Documents[a.Key]
	if !ok {
		return s, ErrUnknownDocument
	}
	document.Data = mergeData(document.Data, a.Data)
	s.Documents = cloneMap(s.Documents)
	s.Documents[a.Key] = document
	return s, nil
}

// RemoveDocument drops a document and every link instance attached to it.
type RemoveDocument struct{ Key string }

func (RemoveDocument) Type() ActionType { return ActionRemoveDocument }

func (a RemoveDocument) reduce(s State) (State, error) {
	s.Documents = cloneMap(s.Documents)
	delete(s.Documents, a.Key)
	s.LinkInstances = cloneMap(s.LinkInstances)
	maps.DeleteFunc(s.LinkInstances, func(_ string, l domain.LinkInstance) bool {
		return l.DocumentIDs[0] == a.Key || l.DocumentIDs[1] == a.Key
	})
	return s, nil
}

// UpsertLinkInstances stores link instances by id after checking that both documents belong to
// the link type's collections. Documents not yet in the state are not checked.
type UpsertLinkInstances struct{ LinkInstances []domain.LinkInstance }

func (UpsertLinkInstances) Type() ActionType { return ActionUpsertLinkInstances }

func (a UpsertLinkInstances) reduce(s State) (State, error) {
	s.LinkInstances = cloneMap(s.LinkInstances)
	for _, link := range a.LinkInstances {
		if err := ValidateLinkInstance(s, link); err != nil {
			return s, err
		}
		if link.ID != "" && link.CorrelationID != "" {
			if pending, ok := s.LinkInstances[link.CorrelationID]; ok && pending.ID == "" {
				delete(s.LinkInstances, link.CorrelationID)
			}
		}
		if current, ok := s.LinkInstances[link.Key()]; ok && link.CreationDate.IsZero() {
			link.CreationDate = current.CreationDate
		}
		s.LinkInstances[link.Key()] = link
	}
	return s, nil
}

// ValidateLinkInstance checks a link instance against its link type and the known documents.
func ValidateLinkInstance(s State, link domain.LinkInstance) error {
	linkType, ok := s.LinkTypes[link.LinkTypeID]
	if !ok {
		return ErrUnknownLinkType
	}
	if link.DocumentIDs[0] == "" || link.DocumentIDs[1] == "" || link.DocumentIDs[0] == link.DocumentIDs[1] {
		return ErrInvalidLink
	}
	for i, documentID := range link.DocumentIDs {
		document, ok := s.Documents[documentID]
		if !ok {
			continue
		}
		other, known := s.Documents[link.DocumentIDs[1-i]]
		if document.CollectionID != linkType.CollectionIDs[0] && document.CollectionID != linkType.CollectionIDs[1] {
			return ErrInvalidLink
		}
		if known && linkType.CollectionIDs[0] != linkType.CollectionIDs[1] && other.CollectionID == document.CollectionID {
			return ErrInvalidLink
		}
	}
	return nil
}

type PatchLinkInstanceData struct {
	Key  string
	Data map[string]any
}

func (PatchLinkInstanceData) Type() ActionType { return ActionPatchLinkInstanceData }

func (a PatchLinkInstanceData) reduce(s State) (State, error) {
	link, ok := s.LinkInstances[a.Key]
	if !ok {
		return s, ErrInvalidLink
	}
	link.Data = mergeData(link.Data, a.Data)
	s.LinkInstances = cloneMap(s.LinkInstances)
	s.LinkInstances[a.Key] = link
	return s, nil
}

type RemoveLinkInstance struct{ Key string }

func (RemoveLinkInstance) Type() ActionType { return ActionRemoveLinkInstance }

func (a RemoveLinkInstance) reduce(s State) (State, error) {
	s.LinkInstances = cloneMap(s.LinkInstances)
	delete(s.LinkInstances, a.Key)
	return s, nil
}

type UpsertViews struct{ Views []domain.View }

func (UpsertViews) Type() ActionType { return ActionUpsertViews }

func (a UpsertViews) reduce(s State) (State, error) {
	s.Views = cloneMap(s.Views)
	for _, view := range a.Views {
		s.Views[view.ID] = view
	}
	return s, nil
}

type RemoveView struct{ ID string }

func (RemoveView) Type() ActionType { return ActionRemoveView }

func (a RemoveView) reduce(s State) (State, error) {
	s.Views = cloneMap(s.Views)
	delete(s.Views, a.ID)
	return s, nil
}

// Clear empties the state, keeping the workspace binding.
type Clear struct{}

func (Clear) Type() ActionType { return ActionClear }

func (Clear) reduce(s State) (State, error) {
	next := NewState()
	next.Workspace = s.Workspace
	return next, nil
}

func renameDocumentReferences(s State, renamed map[string]string) State {
	s.LinkInstances = cloneMap(s.LinkInstances)
	for key, link := range s.LinkInstances {
		changed := false
		for i, id := range link.DocumentIDs {
			if newID, ok := renamed[id]; ok {
				link.DocumentIDs[i] = newID
				changed = true
			}
		}
		if changed {
			s.LinkInstances[key] = link
		}
	}
	for key, document := range s.Documents {
		if newID, ok := renamed[document.MetaData.ParentID]; ok {
			document.MetaData.ParentID = newID
			s.Documents[key] = document
		}
	}
	return s
}

func mergeData(current, patch map[string]any) map[string]any {
	result := make(map[string]any, len(current)+len(patch))
	maps.Copy(result, current)
	maps.Copy(result, patch)
	return result
}

// isStale reports whether an incoming copy is older than the stored one.
func isStale(current, incoming time.Time) bool {
	return !current.IsZero() && !incoming.IsZero() && incoming.Before(current)
}
