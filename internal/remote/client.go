// Package remote talks to the Remote Store: REST calls for entities, a websocket stream of push
// notifications, and the bootstrap loader that fills the local store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"lumeer-engine/internal/domain"
)

// ErrRemote wraps every non-2xx response of the Remote Store.
var ErrRemote = errors.New("remote store error")

// Store is the set of Remote Store calls the engine issues.
type Store interface {
	GetOrganization(ctx context.Context) (*domain.Organization, error)
	GetProject(ctx context.Context) (*domain.Project, error)
	GetUsers(ctx context.Context) ([]domain.User, error)
	GetCollections(ctx context.Context) ([]domain.Collection, error)
	GetLinkTypes(ctx context.Context) ([]domain.LinkType, error)
	GetDocuments(ctx context.Context) ([]domain.Document, error)
	GetLinkInstances(ctx context.Context) ([]domain.LinkInstance, error)
	GetViews(ctx context.Context) ([]domain.View, error)

	CreateAttributes(ctx context.Context, resource domain.ResourceType, resourceID string, attributes []domain.Attribute) ([]domain.Attribute, error)
	CreateDocument(ctx context.Context, document domain.Document) (domain.Document, error)
	PatchDocumentData(ctx context.Context, collectionID, documentID string, data map[string]any) (domain.Document, error)
	CreateLinkInstance(ctx context.Context, link domain.LinkInstance) (domain.LinkInstance, error)
	PatchLinkInstanceData(ctx context.Context, linkInstanceID string, data map[string]any) (domain.LinkInstance, error)
}

type Client struct {
	baseURL        string
	token          string
	organizationID string
	projectID      string
	httpClient     *http.Client
}

func NewClient(baseURL, token, organizationID, projectID string) *Client {
	return &Client{
		baseURL:        baseURL,
		token:          token,
		organizationID: organizationID,
		projectID:      projectID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) organizationPath() string {
	return fmt.Sprintf("/organizations/%s", url.PathEscape(c.organizationID))
}

func (c *Client) projectPath() string {
	return fmt.Sprintf("%s/projects/%s", c.organizationPath(), url.PathEscape(c.projectID))
}

func (c *Client) GetOrganization(ctx context.Context) (*domain.Organization, error) {
	var organization domain.Organization
	if err := c.do(ctx, http.MethodGet, c.organizationPath(), nil, &organization); err != nil {
		return nil, err
	}
	return &organization, nil
}

func (c *Client) GetProject(ctx context.Context) (*domain.Project, error) {
	var project domain.Project
	if err := c.do(ctx, http.MethodGet, c.projectPath(), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *Client) GetUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := c.do(ctx, http.MethodGet, c.organizationPath()+"/users", nil, &users)
	return users, err
}

func (c *Client) GetCollections(ctx context.Context) ([]domain.Collection, error) {
	var collections []domain.Collection
	err := c.do(ctx, http.MethodGet, c.projectPath()+"/collections", nil, &collections)
	return collections, err
}

func (c *Client) GetLinkTypes(ctx context.Context) ([]domain.LinkType, error) {
	var linkTypes []domain.LinkType
	err := c.do(ctx, http.MethodGet, c.projectPath()+"/link-types", nil, &linkTypes)
	return linkTypes, err
}

func (c *Client) GetDocuments(ctx context.Context) ([]domain.Document, error) {
	var documents []domain.Document
	err := c.do(ctx, http.MethodGet, c.projectPath()+"/documents", nil, &documents)
	return documents, err
}

func (c *Client) GetLinkInstances(ctx context.Context) ([]domain.LinkInstance, error) {
	var links []domain.LinkInstance
	err := c.do(ctx, http.MethodGet, c.projectPath()+"/link-instances", nil, &links)
	return links, err
}

func (c *Client) GetViews(ctx context.Context) ([]domain.View, error) {
	var views []domain.View
	err := c.do(ctx, http.MethodGet, c.projectPath()+"/views", nil, &views)
	return views, err
}

func (c *Client) CreateAttributes(ctx context.Context, resource domain.ResourceType, resourceID string, attributes []domain.Attribute) ([]domain.Attribute, error) {
	segment := "collections"
	if resource == domain.ResourceLinkType {
		segment = "link-types"
	}
	path := fmt.Sprintf("%s/%s/%s/attributes", c.projectPath(), segment, url.PathEscape(resourceID))
	var created []domain.Attribute
	err := c.do(ctx, http.MethodPost, path, attributes, &created)
	return created, err
}

func (c *Client) CreateDocument(ctx context.Context, document domain.Document) (domain.Document, error) {
	path := fmt.Sprintf("%s/collections/%s/documents", c.projectPath(), url.PathEscape(document.CollectionID))
	var created domain.Document
	err := c.do(ctx, http.MethodPost, path, document, &created)
	return created, err
}

func (c *Client) PatchDocumentData(ctx context.Context, collectionID, documentID string, data map[string]any) (domain.Document, error) {
	path := fmt.Sprintf("%s/collections/%s/documents/%s/data", c.projectPath(), url.PathEscape(collectionID), url.PathEscape(documentID))
	var updated domain.Document
	err := c.do(ctx, http.MethodPatch, path, data, &updated)
	return updated, err
}

func (c *Client) CreateLinkInstance(ctx context.Context, link domain.LinkInstance) (domain.LinkInstance, error) {
	var created domain.LinkInstance
	err := c.do(ctx, http.MethodPost, c.projectPath()+"/link-instances", link, &created)
	return created, err
}

func (c *Client) PatchLinkInstanceData(ctx context.Context, linkInstanceID string, data map[string]any) (domain.LinkInstance, error) {
	path := fmt.Sprintf("%s/link-instances/%s/data", c.projectPath(), url.PathEscape(linkInstanceID))
	var updated domain.LinkInstance
	err := c.do(ctx, http.MethodPatch, path, data, &updated)
	return updated, err
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf(
			"%w: %s %s status=%d body=%s",
			ErrRemote,
			method,
			path,
			resp.StatusCode,
			string(b),
		)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
