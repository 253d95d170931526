// Package perspective keeps the per-perspective configuration of views consistent with the
// view's query and the current collections. Every perspective implements Perspective on its
// own; they share only the store binding.
package perspective

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/pipeline"
	"lumeer-engine/internal/query"
	"lumeer-engine/internal/store"
)

var (
	ErrViewNotFound           = errors.New("view not found")
	ErrUnsupportedPerspective = errors.New("perspective has no configuration")
)

type Perspective interface {
	Type() domain.Perspective
	// CheckOrTransformConfig returns config adjusted to the query and resources in ctx.
	// Missing or malformed config yields the perspective's default.
	CheckOrTransformConfig(config json.RawMessage, ctx Context) (json.RawMessage, error)
	// SubscribeConfig calls fn with the checked config of the view whenever it changes.
	SubscribeConfig(viewID string, fn func(config json.RawMessage)) func()
	// OnConfigChanged checks config and stores it in the view.
	OnConfigChanged(viewID string, config json.RawMessage) (json.RawMessage, error)
	// Config returns the checked config currently stored in the view.
	Config(viewID string) (json.RawMessage, error)
}

// Store is the part of the local store perspectives need.
type Store interface {
	Dispatch(action store.Action) (string, error)
	State() store.State
	Subscribe(fn func(ctx context.Context, change store.Change) error) func()
}

// Context is what a config is checked against.
type Context struct {
	Query       *domain.Query
	Collections map[string]domain.Collection
	LinkTypes   map[string]domain.LinkType
}

// NewContext keeps only the collections and link types the query references.
func NewContext(q *domain.Query, collections []domain.Collection, linkTypes []domain.LinkType) Context {
	ctx := Context{Query: q, Collections: map[string]domain.Collection{}, LinkTypes: map[string]domain.LinkType{}}
	byID := make(map[string]domain.Collection, len(collections))
	for _, collection := range collections {
		byID[collection.ID] = collection
	}
	for _, id := range query.CollectionIDs(q, linkTypes) {
		if collection, ok := byID[id]; ok {
			ctx.Collections[id] = collection
		}
	}
	referenced := map[string]bool{}
	for _, id := range query.LinkTypeIDs(q) {
		referenced[id] = true
	}
	for _, linkType := range linkTypes {
		if referenced[linkType.ID] {
			ctx.LinkTypes[linkType.ID] = linkType
		}
	}
	return ctx
}

// anchors returns the anchor collections of the query stems that still exist.
func (c Context) anchors() []domain.Collection {
	if c.Query == nil {
		return nil
	}
	var result []domain.Collection
	seen := map[string]bool{}
	for _, stem := range c.Query.Stems {
		if collection, ok := c.Collections[stem.CollectionID]; ok && !seen[collection.ID] {
			seen[collection.ID] = true
			result = append(result, collection)
		}
	}
	return result
}

// binding connects a perspective's check function to the views in the store.
type binding struct {
	perspective domain.Perspective
	store       Store
	runner      *pipeline.Runner[json.RawMessage]
	check       func(json.RawMessage, Context) (json.RawMessage, error)
	log         zerolog.Logger
}

func (b *binding) Type() domain.Perspective {
	return b.perspective
}

func (b *binding) Config(viewID string) (json.RawMessage, error) {
	state := b.store.State()
	view, ok := state.Views[viewID]
	if !ok {
		return nil, ErrViewNotFound
	}
	return b.check(view.Config[b.perspective], contextFor(state, view))
}

func (b *binding) SubscribeConfig(viewID string, fn func(config json.RawMessage)) func() {
	key := uuid.NewString()
	var mu sync.Mutex
	var last json.RawMessage

	derive := func(ctx context.Context) (json.RawMessage, error) {
		return b.Config(viewID)
	}
	deliver := func(config json.RawMessage, err error) {
		if err != nil {
			b.log.Debug().Err(err).Str("view", viewID).Msg("config not available")
			return
		}
		mu.Lock()
		if bytes.Equal(config, last) {
			mu.Unlock()
			return
		}
		last = config
		mu.Unlock()
		fn(config)
	}

	b.runner.Submit(key, derive, deliver)
	return b.store.Subscribe(func(ctx context.Context, change store.Change) error {
		b.runner.Submit(key, derive, deliver)
		return nil
	})
}

func (b *binding) OnConfigChanged(viewID string, config json.RawMessage) (json.RawMessage, error) {
	state := b.store.State()
	view, ok := state.Views[viewID]
	if !ok {
		return nil, ErrViewNotFound
	}
	checked, err := b.check(config, contextFor(state, view))
	if err != nil {
		return nil, err
	}
	configs := make(map[domain.Perspective]json.RawMessage, len(view.Config)+1)
	for perspective, raw := range view.Config {
		configs[perspective] = raw
	}
	configs[b.perspective] = checked
	view.Config = configs
	if _, err := b.store.Dispatch(store.UpsertViews{Views: []domain.View{view}}); err != nil {
		return nil, err
	}
	return checked, nil
}

func contextFor(state store.State, view domain.View) Context {
	q := view.Query
	return NewContext(&q, state.CollectionsList(), state.LinkTypesList())
}

// decode tolerates missing and malformed configs by returning the zero value.
func decode[T any](raw json.RawMessage) T {
	var config T
	if len(raw) == 0 {
		return config
	}
	if err := json.Unmarshal(raw, &config); err != nil {
		var zero T
		return zero
	}
	return config
}

func hasAttribute(attributes []domain.Attribute, id string) bool {
	_, ok := domain.FindAttribute(attributes, id)
	return id != "" && ok
}

// Registry holds one instance of every configurable perspective.
type Registry struct {
	perspectives map[domain.Perspective]Perspective
	runner       *pipeline.Runner[json.RawMessage]
}

func NewRegistry(s Store, debounce time.Duration, log zerolog.Logger) *Registry {
	runner := pipeline.NewRunner[json.RawMessage](debounce, log)
	r := &Registry{perspectives: map[domain.Perspective]Perspective{}, runner: runner}
	for _, p := range []Perspective{
		NewTable(s, runner, log),
		NewKanban(s, runner, log),
		NewCalendar(s, runner, log),
		NewGantt(s, runner, log),
		NewForm(s, runner, log),
	} {
		r.perspectives[p.Type()] = p
	}
	return r
}

func (r *Registry) Get(perspective domain.Perspective) (Perspective, error) {
	p, ok := r.perspectives[perspective]
	if !ok {
		return nil, ErrUnsupportedPerspective
	}
	return p, nil
}

// Close stops pending config derivations.
func (r *Registry) Close() {
	r.runner.Close()
}
