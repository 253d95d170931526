package navigation

import (
	"net/url"
	"strings"

	"lumeer-engine/internal/domain"
	"lumeer-engine/internal/query"
)

const (
	ParamQuery               = "q"
	ParamPerspectiveSettings = "ps"
	ParamViewCursor          = "c"
)

// ViewCursor points at a single document (and optionally an attribute) inside a view.
type ViewCursor struct {
	CollectionID string
	DocumentID   string
	AttributeID  string
}

// State is everything a shareable URL carries for one perspective.
type State struct {
	Query    *domain.Query
	Settings *PerspectiveSettings
	Cursor   *ViewCursor
}

// Encode writes the state into URL query parameters, omitting empty parts.
func Encode(state State) url.Values {
	values := url.Values{}
	if q := query.EncodeQuery(state.Query); q != "" {
		values.Set(ParamQuery, q)
	}
	if s := Stringify(Shorten(state.Settings)); s != "" {
		values.Set(ParamPerspectiveSettings, s)
	}
	if c := encodeCursor(state.Cursor); c != "" {
		values.Set(ParamViewCursor, c)
	}
	return values
}

// Decode reads a state written by Encode. Unparseable parts are left nil.
func Decode(values url.Values) State {
	return State{
		Query:    query.DecodeQuery(values.Get(ParamQuery)),
		Settings: Prolong(Parse(values.Get(ParamPerspectiveSettings))),
		Cursor:   decodeCursor(values.Get(ParamViewCursor)),
	}
}

func encodeCursor(cursor *ViewCursor) string {
	if cursor == nil || cursor.CollectionID == "" || cursor.DocumentID == "" {
		return ""
	}
	parts := []string{cursor.CollectionID, cursor.DocumentID}
	if cursor.AttributeID != "" {
		parts = append(parts, cursor.AttributeID)
	}
	return strings.Join(parts, ":")
}

func decodeCursor(value string) *ViewCursor {
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	cursor := &ViewCursor{CollectionID: parts[0], DocumentID: parts[1]}
	if len(parts) == 3 {
		cursor.AttributeID = parts[2]
	}
	return cursor
}

// AddCollectionToQuery returns a copy of q with a new stem anchored at the collection.
func AddCollectionToQuery(q *domain.Query, collectionID string) *domain.Query {
	result := copyQuery(q)
	result.Stems = append(result.Stems, domain.QueryStem{CollectionID: collectionID})
	return result
}

// AddLinkToQuery returns a copy of q whose first stem continues through the link type.
// A query without stems is returned unchanged.
func AddLinkToQuery(q *domain.Query, linkTypeID string) *domain.Query {
	result := copyQuery(q)
	if len(result.Stems) == 0 {
		return result
	}
	stem := result.Stems[0]
	stem.LinkTypeIDs = append(append([]string{}, stem.LinkTypeIDs...), linkTypeID)
	result.Stems[0] = stem
	return result
}

func copyQuery(q *domain.Query) *domain.Query {
	if q == nil {
		return &domain.Query{}
	}
	result := *q
	result.Stems = append([]domain.QueryStem{}, q.Stems...)
	return &result
}
