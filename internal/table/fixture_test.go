package table

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/logger"
	"lumeer-engine/internal/store"
	"lumeer-engine/internal/worker"
)

// MockRemote records Remote Store calls in order. Results may be given as functions of the
// request to echo generated correlation ids back.
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) GetOrganization(ctx context.Context) (*domain.Organization, error) {
	args := m.Called(ctx)
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *MockRemote) GetProject(ctx context.Context) (*domain.Project, error) {
	args := m.Called(ctx)
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockRemote) GetUsers(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRemote) GetCollections(ctx context.Context) ([]domain.Collection, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Collection), args.Error(1)
}

func (m *MockRemote) GetLinkTypes(ctx context.Context) ([]domain.LinkType, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LinkType), args.Error(1)
}

func (m *MockRemote) GetDocuments(ctx context.Context) ([]domain.Document, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *MockRemote) GetLinkInstances(ctx context.Context) ([]domain.LinkInstance, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LinkInstance), args.Error(1)
}

func (m *MockRemote) GetViews(ctx context.Context) ([]domain.View, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.View), args.Error(1)
}

func (m *MockRemote) CreateAttributes(ctx context.Context, resource domain.ResourceType, resourceID string, attributes []domain.Attribute) ([]domain.Attribute, error) {
	args := m.Called(ctx, resource, resourceID, attributes)
	if fn, ok := args.Get(0).(func([]domain.Attribute) []domain.Attribute); ok {
		return fn(attributes), args.Error(1)
	}
	return args.Get(0).([]domain.Attribute), args.Error(1)
}

func (m *MockRemote) CreateDocument(ctx context.Context, document domain.Document) (domain.Document, error) {
	args := m.Called(ctx, document)
	if fn, ok := args.Get(0).(func(domain.Document) domain.Document); ok {
		return fn(document), args.Error(1)
	}
	return args.Get(0).(domain.Document), args.Error(1)
}

func (m *MockRemote) PatchDocumentData(ctx context.Context, collectionID, documentID string, data map[string]any) (domain.Document, error) {
	args := m.Called(ctx, collectionID, documentID, data)
	return args.Get(0).(domain.Document), args.Error(1)
}

func (m *MockRemote) CreateLinkInstance(ctx context.Context, link domain.LinkInstance) (domain.LinkInstance, error) {
	args := m.Called(ctx, link)
	if fn, ok := args.Get(0).(func(domain.LinkInstance) domain.LinkInstance); ok {
		return fn(link), args.Error(1)
	}
	return args.Get(0).(domain.LinkInstance), args.Error(1)
}

func (m *MockRemote) PatchLinkInstanceData(ctx context.Context, linkInstanceID string, data map[string]any) (domain.LinkInstance, error) {
	args := m.Called(ctx, linkInstanceID, data)
	return args.Get(0).(domain.LinkInstance), args.Error(1)
}

func (m *MockRemote) methods() []string {
	result := make([]string, 0, len(m.Calls))
	for _, call := range m.Calls {
		result = append(result, call.Method)
	}
	return result
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) has(eventType EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

var testUser = &domain.User{ID: "u1", Email: "u1@lumeer.io"}

func grant(types ...domain.RoleType) domain.Permissions {
	roles := make([]domain.Role, 0, len(types))
	for _, t := range types {
		roles = append(roles, domain.Role{Type: t})
	}
	return domain.Permissions{Users: []domain.Permission{{ID: testUser.ID, Roles: roles}}}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(logger.Nop())
	require.NoError(t, err)

	writable := grant(domain.RoleRead, domain.RoleDataRead, domain.RoleDataWrite)
	actions := []store.Action{
		store.SetWorkspace{Workspace: domain.Workspace{Organization: &domain.Organization{ID: "o1"}, Project: &domain.Project{ID: "p1"}}},
		store.UpsertUsers{Users: []domain.User{*testUser}},
		store.UpsertCollections{Collections: []domain.Collection{
			{ID: "c1", Name: "Tasks", Permissions: writable, Attributes: []domain.Attribute{
				{ID: "a1", Name: "Title"},
				{ID: "a2", Name: "Score", Function: &domain.AttributeFunction{JS: "return 1"}},
				{ID: "a3", Name: "Notes"},
			}},
			{ID: "c2", Name: "People", Permissions: writable, Attributes: []domain.Attribute{{ID: "b1", Name: "Name"}}},
			{ID: "c3", Name: "Archive", Permissions: grant(domain.RoleRead, domain.RoleDataRead), Attributes: []domain.Attribute{{ID: "x1", Name: "Label"}}},
		}},
		store.UpsertLinkTypes{LinkTypes: []domain.LinkType{
			{ID: "lt1", Name: "Assignees", CollectionIDs: [2]string{"c1", "c2"}, Attributes: []domain.Attribute{{ID: "la1", Name: "Role"}}},
		}},
		store.UpsertDocuments{Documents: []domain.Document{
			{ID: "d1", CollectionID: "c1", Data: map[string]any{"a1": "Alpha"}},
			{ID: "d2", CollectionID: "c2", Data: map[string]any{"b1": "Bob"}},
			{ID: "d3", CollectionID: "c2", Data: map[string]any{"b1": "Bella"}},
			{ID: "x", CollectionID: "c3", Data: map[string]any{"x1": "old"}},
		}},
		store.UpsertLinkInstances{LinkInstances: []domain.LinkInstance{
			{ID: "l1", LinkTypeID: "lt1", DocumentIDs: [2]string{"d1", "d2"}, Data: map[string]any{"la1": "owner"}},
		}},
	}
	for _, action := range actions {
		_, err := s.Dispatch(action)
		require.NoError(t, err)
	}
	return s
}

type harness struct {
	store   *store.Store
	remote  *MockRemote
	manager *Manager
	events  *eventRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := newTestStore(t)
	m := new(MockRemote)
	return &harness{
		store:   s,
		remote:  m,
		manager: NewManager(s, m, worker.Inline{}, logger.Nop()),
		events:  &eventRecorder{},
	}
}

func (h *harness) open(t *testing.T, stem domain.QueryStem) *Session {
	t.Helper()
	session, err := h.manager.Open(OpenRequest{Stem: &stem}, testUser)
	require.NoError(t, err)
	session.Subscribe(h.events.record)
	return session
}

func linkedStem() domain.QueryStem {
	return domain.QueryStem{CollectionID: "c1", LinkTypeIDs: []string{"lt1"}}
}

func rowID(t *testing.T, s *Session, part int, documentID string) string {
	t.Helper()
	for _, row := range s.Snapshot().Parts[part].Rows {
		if row.DocumentID == documentID {
			return row.ID
		}
	}
	t.Fatalf("no row for document %s in part %d", documentID, part)
	return ""
}

func findRow(s *Session, part int, id string) (Row, bool) {
	for _, row := range s.Snapshot().Parts[part].Rows {
		if row.ID == id {
			return row, true
		}
	}
	return Row{}, false
}

func editCell(t *testing.T, s *Session, cursor Cursor, value any) {
	t.Helper()
	require.NoError(t, s.Select(cursor))
	require.NoError(t, s.Edit())
	require.NoError(t, s.Input(value))
}
