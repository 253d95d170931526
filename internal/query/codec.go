package query

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"lumeer-engine/internal/domain"
)

// shortQuery is the compact wire form of a query used in URLs.
type shortQuery struct {
	S  []shortStem `json:"s,omitempty"`
	F  []string    `json:"f,omitempty"`
	P  *int        `json:"p,omitempty"`
	PS *int        `json:"ps,omitempty"`
	SI bool        `json:"si,omitempty"`
}

type shortStem struct {
	C  string        `json:"c"`
	L  []string      `json:"l,omitempty"`
	D  []string      `json:"d,omitempty"`
	F  []shortFilter `json:"f,omitempty"`
	LF []shortFilter `json:"lf,omitempty"`
}

type shortFilter struct {
	R string                 `json:"r"`
	A string                 `json:"a"`
	C domain.FilterCondition `json:"c"`
	V any                    `json:"v,omitempty"`
}

// EncodeQuery serializes a query into a URL-safe string. A nil or empty query encodes to "".
func EncodeQuery(q *domain.Query) string {
	if IsEmpty(q) {
		return ""
	}
	short := shortQuery{F: q.Fulltexts, P: q.Page, PS: q.PageSize, SI: q.IncludeSubItems}
	for _, stem := range q.Stems {
		s := shortStem{C: stem.CollectionID, L: stem.LinkTypeIDs, D: stem.DocumentIDs}
		for _, filter := range stem.Filters {
			s.F = append(s.F, shortFilter{R: filter.CollectionID, A: filter.AttributeID, C: filter.Condition, V: filter.Value})
		}
		for _, filter := range stem.LinkFilters {
			s.LF = append(s.LF, shortFilter{R: filter.LinkTypeID, A: filter.AttributeID, C: filter.Condition, V: filter.Value})
		}
		short.S = append(short.S, s)
	}
	raw, err := json.Marshal(short)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeQuery parses a string produced by EncodeQuery. Malformed input yields nil.
func DecodeQuery(encoded string) *domain.Query {
	encoded = strings.TrimRight(strings.TrimSpace(encoded), "=")
	if encoded == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	var short shortQuery
	if err := json.Unmarshal(raw, &short); err != nil {
		return nil
	}
	q := &domain.Query{Fulltexts: short.F, Page: short.P, PageSize: short.PS, IncludeSubItems: short.SI}
	for _, s := range short.S {
		stem := domain.QueryStem{CollectionID: s.C, LinkTypeIDs: s.L, DocumentIDs: s.D}
		for _, f := range s.F {
			stem.Filters = append(stem.Filters, domain.AttributeFilter{CollectionID: f.R, AttributeID: f.A, Condition: f.C, Value: f.V})
		}
		for _, f := range s.LF {
			stem.LinkFilters = append(stem.LinkFilters, domain.LinkAttributeFilter{LinkTypeID: f.R, AttributeID: f.A, Condition: f.C, Value: f.V})
		}
		q.Stems = append(q.Stems, stem)
	}
	return q
}
