// Package store owns the normalized entity cache of one workspace. State changes only through
// Reduce; the Store coordinator serializes dispatches and notifies subscribers.
package store

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"lumeer-engine/internal/domain"
)

var (
	ErrCollectionChanged = errors.New("document collection cannot change")
	ErrInvalidLink       = errors.New("link instance does not match its link type")
	ErrUnknownLinkType   = errors.New("unknown link type")
	ErrUnknownDocument   = errors.New("unknown document")
)

// State is an immutable snapshot of the workspace. Reduce never modifies a State it was given;
// maps are copied before they are written.
type State struct {
	Workspace     domain.Workspace
	Users         map[string]domain.User
	Collections   map[string]domain.Collection
	LinkTypes     map[string]domain.LinkType
	Documents     map[string]domain.Document
	LinkInstances map[string]domain.LinkInstance
	Views         map[string]domain.View
	Version       uint64
}

func NewState() State {
	return State{
		Users:         map[string]domain.User{},
		Collections:   map[string]domain.Collection{},
		LinkTypes:     map[string]domain.LinkType{},
		Documents:     map[string]domain.Document{},
		LinkInstances: map[string]domain.LinkInstance{},
		Views:         map[string]domain.View{},
	}
}

// Reduce returns the state after applying action. On error the input state is returned unchanged.
func Reduce(state State, action Action) (State, error) {
	next, err := action.reduce(state)
	if err != nil {
		return state, fmt.Errorf("%s: %w", action.Type(), err)
	}
	next.Version = state.Version + 1
	return next, nil
}

// CollectionsList returns the collections in a stable (id) order.
func (s State) CollectionsList() []domain.Collection {
	return sortedValues(s.Collections, func(c domain.Collection) string { return c.ID })
}

func (s State) LinkTypesList() []domain.LinkType {
	return sortedValues(s.LinkTypes, func(l domain.LinkType) string { return l.ID })
}

// DocumentsList returns documents ordered by creation date, then key.
func (s State) DocumentsList() []domain.Document {
	return sortedByCreation(s.Documents, func(d domain.Document) (time.Time, string) {
		return d.CreationDate, d.Key()
	})
}

func (s State) LinkInstancesList() []domain.LinkInstance {
	return sortedByCreation(s.LinkInstances, func(l domain.LinkInstance) (time.Time, string) {
		return l.CreationDate, l.Key()
	})
}

func (s State) UsersList() []domain.User {
	return sortedValues(s.Users, func(u domain.User) string { return u.ID })
}

// ConstraintData is the rendering context derived from the state.
func (s State) ConstraintData() domain.ConstraintData {
	return domain.ConstraintData{Users: s.UsersList()}
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return maps.Clone(m)
}
