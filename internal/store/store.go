package store

import (
	"context"
	"sync"

	"github.com/asaidimu/go-events"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
)

const changedEvent = "state:changed"

// Change describes one applied action.
type Change struct {
	ActionID string     `json:"actionId"`
	Type     ActionType `json:"type"`
	Version  uint64     `json:"version"`
}

// Store is the single owner of the workspace state.
type Store struct {
	mu    sync.RWMutex
	state State
	bus   *events.TypedEventBus[Change]
	log   zerolog.Logger
}

func New(log zerolog.Logger) (*Store, error) {
	bus, err := events.NewTypedEventBus[Change](events.DefaultConfig())
	if err != nil {
		return nil, err
	}
	return &Store{state: NewState(), bus: bus, log: log}, nil
}

// Dispatch applies the action and notifies subscribers. It returns the id assigned to the action.
func (s *Store) Dispatch(action Action) (string, error) {
	id := ulid.Make().String()

	s.mu.Lock()
	next, err := Reduce(s.state, action)
	if err == nil {
		s.state = next
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn().Err(err).Str("action", id).Str("type", string(action.Type())).Msg("action rejected")
		return id, err
	}
	s.bus.Emit(changedEvent, Change{ActionID: id, Type: action.Type(), Version: next.Version})
	return id, nil
}

// Subscribe registers fn for every applied action. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(ctx context.Context, change Change) error) func() {
	return s.bus.Subscribe(changedEvent, fn)
}

// State returns the current snapshot. Snapshots are never modified after they are published.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Workspace() domain.Workspace {
	return s.State().Workspace
}

func (s *Store) View(id string) (domain.View, bool) {
	view, ok := s.State().Views[id]
	return view, ok
}

func (s *Store) Collection(id string) (domain.Collection, bool) {
	collection, ok := s.State().Collections[id]
	return collection, ok
}

func (s *Store) LinkType(id string) (domain.LinkType, bool) {
	linkType, ok := s.State().LinkTypes[id]
	return linkType, ok
}

func (s *Store) Document(key string) (domain.Document, bool) {
	document, ok := s.State().Documents[key]
	return document, ok
}

func (s *Store) LinkInstance(key string) (domain.LinkInstance, bool) {
	link, ok := s.State().LinkInstances[key]
	return link, ok
}

func (s *Store) UserByID(id string) (*domain.User, bool) {
	user, ok := s.State().Users[id]
	if !ok {
		return nil, false
	}
	return &user, true
}
