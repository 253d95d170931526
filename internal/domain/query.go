package domain

// FilterCondition is the comparison applied by an attribute filter.
type FilterCondition string

const (
	ConditionEquals      FilterCondition = "eq"
	ConditionNotEquals   FilterCondition = "neq"
	ConditionContains    FilterCondition = "contains"
	ConditionNotContains FilterCondition = "notContains"
	ConditionGreaterThan FilterCondition = "gt"
	ConditionLowerThan   FilterCondition = "lt"
	ConditionIsEmpty     FilterCondition = "empty"
	ConditionNotEmpty    FilterCondition = "notEmpty"
)

// AttributeFilter restricts documents of one collection by one attribute value.
type AttributeFilter struct {
	CollectionID string          `json:"collectionId"`
	AttributeID  string          `json:"attributeId"`
	Condition    FilterCondition `json:"condition"`
	Value        any             `json:"value,omitempty"`
}

// LinkAttributeFilter restricts link instances of one link type by one attribute value.
type LinkAttributeFilter struct {
	LinkTypeID  string          `json:"linkTypeId"`
	AttributeID string          `json:"attributeId"`
	Condition   FilterCondition `json:"condition"`
	Value       any             `json:"value,omitempty"`
}

// QueryStem is one anchored traversal: a collection optionally followed by a chain of link types.
type QueryStem struct {
	CollectionID string                `json:"collectionId"`
	LinkTypeIDs  []string              `json:"linkTypeIds,omitempty"`
	DocumentIDs  []string              `json:"documentIds,omitempty"`
	Filters      []AttributeFilter     `json:"filters,omitempty"`
	LinkFilters  []LinkAttributeFilter `json:"linkFilters,omitempty"`
}

type Query struct {
	Stems           []QueryStem `json:"stems,omitempty"`
	Fulltexts       []string    `json:"fulltexts,omitempty"`
	Page            *int        `json:"page,omitempty"`
	PageSize        *int        `json:"pageSize,omitempty"`
	IncludeSubItems bool        `json:"includeSubItems,omitempty"`
}
