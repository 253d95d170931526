package remote

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/store"
)

// Loader fills the local store with a full snapshot of the Remote Store.
type Loader struct {
	remote     Store
	dispatcher Dispatcher
	log        zerolog.Logger
}

func NewLoader(remote Store, dispatcher Dispatcher, log zerolog.Logger) *Loader {
	return &Loader{remote: remote, dispatcher: dispatcher, log: log}
}

type snapshot struct {
	organization  *domain.Organization
	project       *domain.Project
	users         []domain.User
	collections   []domain.Collection
	linkTypes     []domain.LinkType
	documents     []domain.Document
	linkInstances []domain.LinkInstance
	views         []domain.View
}

// Load fetches every entity kind concurrently, then dispatches them so that
// link instances come after the documents and link types they reference.
func (l *Loader) Load(ctx context.Context) error {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.organization, err = l.remote.GetOrganization(gctx)
		return wrapLoad("organization", err)
	})
	g.Go(func() (err error) {
		snap.project, err = l.remote.GetProject(gctx)
		return wrapLoad("project", err)
	})
	g.Go(func() (err error) {
		snap.users, err = l.remote.GetUsers(gctx)
		return wrapLoad("users", err)
	})
	g.Go(func() (err error) {
		snap.collections, err = l.remote.GetCollections(gctx)
		return wrapLoad("collections", err)
	})
	g.Go(func() (err error) {
		snap.linkTypes, err = l.remote.GetLinkTypes(gctx)
		return wrapLoad("link types", err)
	})
	g.Go(func() (err error) {
		snap.documents, err = l.remote.GetDocuments(gctx)
		return wrapLoad("documents", err)
	})
	g.Go(func() (err error) {
		snap.linkInstances, err = l.remote.GetLinkInstances(gctx)
		return wrapLoad("link instances", err)
	})
	g.Go(func() (err error) {
		snap.views, err = l.remote.GetViews(gctx)
		return wrapLoad("views", err)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	actions := []store.Action{
		store.SetWorkspace{Workspace: domain.Workspace{Organization: snap.organization, Project: snap.project}},
		store.UpsertUsers{Users: snap.users},
		store.UpsertCollections{Collections: snap.collections},
		store.UpsertLinkTypes{LinkTypes: snap.linkTypes},
		store.UpsertDocuments{Documents: snap.documents},
		store.UpsertViews{Views: snap.views},
	}
	for _, action := range actions {
		if _, err := l.dispatcher.Dispatch(action); err != nil {
			return fmt.Errorf("apply %s: %w", action.Type(), err)
		}
	}
	// A single inconsistent link must not fail the whole bootstrap.
	for _, link := range snap.linkInstances {
		if _, err := l.dispatcher.Dispatch(store.UpsertLinkInstances{LinkInstances: []domain.LinkInstance{link}}); err != nil {
			l.log.Warn().Err(err).Str("link_instance", link.Key()).Msg("skipping link instance")
		}
	}

	l.log.Info().
		Int("collections", len(snap.collections)).
		Int("documents", len(snap.documents)).
		Int("link_instances", len(snap.linkInstances)).
		Int("views", len(snap.views)).
		Msg("workspace loaded")
	return nil
}

func wrapLoad(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}
