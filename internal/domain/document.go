package domain

import "time"

// DocumentMetaData carries optional grouping information.
type DocumentMetaData struct {
	ParentID string `json:"parentId,omitempty"`
}

type Document struct {
	ID            string           `json:"id,omitempty"`
	CorrelationID string           `json:"correlationId,omitempty"`
	CollectionID  string           `json:"collectionId"`
	Data          map[string]any   `json:"data"`
	MetaData      DocumentMetaData `json:"metaData,omitempty"`
	CreatedBy     string           `json:"createdBy,omitempty"`
	CreationDate  time.Time        `json:"creationDate,omitempty"`
	UpdateDate    time.Time        `json:"updateDate,omitempty"`
}

// Key returns the server id, or the correlation id while the document is not persisted.
func (d Document) Key() string {
	if d.ID != "" {
		return d.ID
	}
	return d.CorrelationID
}

type LinkInstance struct {
	ID            string         `json:"id,omitempty"`
	CorrelationID string         `json:"correlationId,omitempty"`
	LinkTypeID    string         `json:"linkTypeId"`
	DocumentIDs   [2]string      `json:"documentIds"`
	Data          map[string]any `json:"data"`
	CreatedBy     string         `json:"createdBy,omitempty"`
	CreationDate  time.Time      `json:"creationDate,omitempty"`
}

func (l LinkInstance) Key() string {
	if l.ID != "" {
		return l.ID
	}
	return l.CorrelationID
}

// OtherDocumentID returns the document on the opposite end of the link.
func (l LinkInstance) OtherDocumentID(documentID string) string {
	if l.DocumentIDs[0] == documentID {
		return l.DocumentIDs[1]
	}
	return l.DocumentIDs[0]
}
