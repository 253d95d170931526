package remote

import (
	"encoding/json"
	"errors"
	"fmt"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/store"
)

var ErrUnknownNotification = errors.New("unknown notification")

type NotificationType string

const (
	NotificationCreate NotificationType = "CREATE"
	NotificationUpdate NotificationType = "UPDATE"
	NotificationRemove NotificationType = "REMOVE"
)

type EntityKind string

const (
	KindCollection   EntityKind = "collection"
	KindLinkType     EntityKind = "linkType"
	KindDocument     EntityKind = "document"
	KindLinkInstance EntityKind = "linkInstance"
	KindView         EntityKind = "view"
	KindUser         EntityKind = "user"
)

// Notification is one push message of the Remote Store.
type Notification struct {
	Type   NotificationType `json:"type"`
	Kind   EntityKind       `json:"kind"`
	Entity json.RawMessage  `json:"entity"`
}

type removedEntity struct {
	ID string `json:"id"`
}

// Action converts the notification into the store action that applies it.
func (n Notification) Action() (store.Action, error) {
	if n.Type == NotificationRemove {
		var removed removedEntity
		if err := json.Unmarshal(n.Entity, &removed); err != nil {
			return nil, err
		}
		if removed.ID == "" {
			return nil, fmt.Errorf("%w: %s without id", ErrUnknownNotification, n.Type)
		}
		switch n.Kind {
		case KindCollection:
			return store.RemoveCollection{ID: removed.ID}, nil
		case KindLinkType:
			return store.RemoveLinkType{ID: removed.ID}, nil
		case KindDocument:
			return store.RemoveDocument{Key: removed.ID}, nil
		case KindLinkInstance:
			return store.RemoveLinkInstance{Key: removed.ID}, nil
		case KindView:
			return store.RemoveView{ID: removed.ID}, nil
		}
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownNotification, n.Type, n.Kind)
	}

	if n.Type != NotificationCreate && n.Type != NotificationUpdate {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNotification, n.Type)
	}
	switch n.Kind {
	case KindCollection:
		var entity domain.Collection
		err := json.Unmarshal(n.Entity, &entity)
		return store.UpsertCollections{Collections: []domain.Collection{entity}}, err
	case KindLinkType:
		var entity domain.LinkType
		err := json.Unmarshal(n.Entity, &entity)
		return store.UpsertLinkTypes{LinkTypes: []domain.LinkType{entity}}, err
	case KindDocument:
		var entity domain.Document
		err := json.Unmarshal(n.Entity, &entity)
		return store.UpsertDocuments{Documents: []domain.Document{entity}}, err
	case KindLinkInstance:
		var entity domain.LinkInstance
		err := json.Unmarshal(n.Entity, &entity)
		return store.UpsertLinkInstances{LinkInstances: []domain.LinkInstance{entity}}, err
	case KindView:
		var entity domain.View
		err := json.Unmarshal(n.Entity, &entity)
		return store.UpsertViews{Views: []domain.View{entity}}, err
	case KindUser:
		var entity domain.User
		err := json.Unmarshal(n.Entity, &entity)
		return store.UpsertUsers{Users: []domain.User{entity}}, err
	}
	return nil, fmt.Errorf("%w: %s %s", ErrUnknownNotification, n.Type, n.Kind)
}
