package table

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/permission"
	"lumeer-engine/internal/query"
	"lumeer-engine/internal/remote"
	"lumeer-engine/internal/store"
	"lumeer-engine/internal/viewsettings"
	"lumeer-engine/internal/worker"
)

type dependencies struct {
	store    Store
	remote   remote.Store
	executor worker.Executor
	log      zerolog.Logger
}

// OpenRequest selects what a table shows: the first stem of a saved view, or an explicit stem.
type OpenRequest struct {
	ViewID string
	Stem   *domain.QueryStem
}

// Manager keeps the open table sessions of all users.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     dependencies
}

func NewManager(s Store, remote remote.Store, executor worker.Executor, log zerolog.Logger) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		deps:     dependencies{store: s, remote: remote, executor: executor, log: log},
	}
}

// Open builds a session from the current store state.
func (m *Manager) Open(req OpenRequest, user *domain.User) (*Session, error) {
	state := m.deps.store.State()

	var view *domain.View
	if req.ViewID != "" {
		v, ok := state.Views[req.ViewID]
		if !ok {
			return nil, ErrViewNotFound
		}
		view = &v
	}
	stem := req.Stem
	if stem == nil && view != nil && len(view.Query.Stems) > 0 {
		stem = &view.Query.Stems[0]
	}
	if stem == nil || stem.CollectionID == "" {
		return nil, ErrNoStem
	}

	collections := state.CollectionsList()
	linkTypes := state.LinkTypesList()
	permissions := permission.ComputeResourcesPermissions(permission.Input{
		Organization: state.Workspace.Organization,
		Project:      state.Workspace.Project,
		View:         view,
		Collections:  collections,
		LinkTypes:    linkTypes,
		User:         user,
	})

	var settings *domain.ViewSettings
	if view != nil {
		settings = view.Settings
	}
	canReconfigure := viewsettings.CanReconfigure(state.Workspace, view, user)
	parts, ok := buildParts(state, *stem, settings, canReconfigure)
	if !ok {
		return nil, ErrNoStem
	}

	result := query.FilterDocumentsAndLinksByQuery(query.Input{
		Documents:              state.DocumentsList(),
		Collections:            collections,
		LinkTypes:              linkTypes,
		LinkInstances:          state.LinkInstancesList(),
		Query:                  &domain.Query{Stems: []domain.QueryStem{*stem}},
		CollectionsPermissions: permissions.Collections,
		LinkTypesPermissions:   permissions.LinkTypes,
		User:                   user,
		ConstraintData:         state.ConstraintData(),
	})
	documents := viewsettings.SortDocuments(result.Documents, collections, settings, state.ConstraintData())
	fillRows(parts, documents, result.LinkInstances)

	session, err := newSession(uuid.NewString(), user, parts, permissions, m.deps)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[session.ID()] = session
	m.mu.Unlock()
	return session, nil
}

// Get returns the session if it belongs to the user.
func (m *Manager) Get(id string, user *domain.User) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || user == nil || session.user == nil || session.user.ID != user.ID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (m *Manager) Close(id string, user *domain.User) error {
	if _, err := m.Get(id, user); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func buildParts(state store.State, stem domain.QueryStem, settings *domain.ViewSettings, canReconfigure bool) ([]*Part, bool) {
	collection, ok := state.Collections[stem.CollectionID]
	if !ok {
		return nil, false
	}
	parts := []*Part{{
		Index:        0,
		CollectionID: collection.ID,
		Columns:      columns(collection.AsResource(), settings, canReconfigure),
	}}

	for i, linkTypeID := range stem.LinkTypeIDs {
		linkType, ok := state.LinkTypes[linkTypeID]
		if !ok {
			break
		}
		next, ok := state.Collections[linkType.OtherCollectionID(parts[i].CollectionID)]
		if !ok {
			break
		}
		parts = append(parts, &Part{
			Index:        i + 1,
			CollectionID: next.ID,
			LinkTypeID:   linkType.ID,
			Columns: append(
				columns(linkType.AsResource(), settings, canReconfigure),
				columns(next.AsResource(), settings, canReconfigure)...,
			),
		})
	}
	return parts, true
}

func columns(resource domain.AttributesResource, settings *domain.ViewSettings, canReconfigure bool) []Column {
	projection := viewsettings.ApplyVisibility(resource, settings.ForResource(resource.Type, resource.ID), canReconfigure)
	result := make([]Column, 0, len(projection.Attributes))
	for _, attribute := range projection.Attributes {
		if attribute.Hidden {
			continue
		}
		result = append(result, Column{
			AttributeID:  attribute.ID,
			Name:         attribute.Name,
			ResourceType: resource.Type,
			ResourceID:   resource.ID,
			Constraint:   attribute.Constraint,
			Computed:     attribute.IsComputed(),
		})
	}
	return result
}

// fillRows creates the rows of the first part from its documents and the rows of every other
// part by following link instances from the rows of the part before it.
func fillRows(parts []*Part, documents []domain.Document, links []domain.LinkInstance) {
	byID := make(map[string]domain.Document, len(documents))
	for _, document := range documents {
		byID[document.ID] = document
		if document.CollectionID == parts[0].CollectionID && document.ID != "" {
			parts[0].Rows = append(parts[0].Rows, &Row{
				ID:         uuid.NewString(),
				DocumentID: document.ID,
				Data:       cloneData(document.Data),
			})
		}
	}

	for _, part := range parts[1:] {
		previous := parts[part.Index-1]
		for _, previousRow := range previous.Rows {
			for _, link := range links {
				if link.LinkTypeID != part.LinkTypeID {
					continue
				}
				if link.DocumentIDs[0] != previousRow.DocumentID && link.DocumentIDs[1] != previousRow.DocumentID {
					continue
				}
				document, ok := byID[link.OtherDocumentID(previousRow.DocumentID)]
				if !ok || document.CollectionID != part.CollectionID {
					continue
				}
				part.Rows = append(part.Rows, &Row{
					ID:             uuid.NewString(),
					DocumentID:     document.ID,
					LinkInstanceID: link.ID,
					PreviousRowID:  previousRow.ID,
					Data:           cloneData(document.Data),
					LinkData:       cloneData(link.Data),
				})
			}
		}
	}
}
