package domain

// ConstraintType selects how attribute values are parsed, compared and displayed.
type ConstraintType string

const (
	ConstraintNone       ConstraintType = ""
	ConstraintText       ConstraintType = "Text"
	ConstraintNumber     ConstraintType = "Number"
	ConstraintPercentage ConstraintType = "Percentage"
	ConstraintBoolean    ConstraintType = "Boolean"
	ConstraintDateTime   ConstraintType = "DateTime"
	ConstraintSelect     ConstraintType = "Select"
	ConstraintUser       ConstraintType = "User"
	ConstraintLink       ConstraintType = "Link"
)

// SelectOption is one allowed value of a Select constraint.
type SelectOption struct {
	Value        string `json:"value"`
	DisplayValue string `json:"displayValue,omitempty"`
}

// ConstraintConfig holds the settings of every constraint type; only the fields relevant
// to the constraint's type are read.
type ConstraintConfig struct {
	Decimals      *int           `json:"decimals,omitempty"`
	Format        string         `json:"format,omitempty"`
	Options       []SelectOption `json:"options,omitempty"`
	DisplayValues bool           `json:"displayValues,omitempty"`
	Multi         bool           `json:"multi,omitempty"`
}

// Constraint is the value rule of an attribute.
type Constraint struct {
	Type   ConstraintType   `json:"type"`
	Config ConstraintConfig `json:"config"`
}

// AttributeFunction is a computed-value function; the body is produced by an external
// visual scripting editor.
type AttributeFunction struct {
	JS       string `json:"js,omitempty"`
	XML      string `json:"xml,omitempty"`
	DryRun   bool   `json:"dryRun,omitempty"`
	Editable bool   `json:"editable,omitempty"`
}

// FunctionCompiler turns a visual script into a backend function body.
type FunctionCompiler interface {
	Compile(xml string) (js string, err error)
}

type Attribute struct {
	ID            string             `json:"id,omitempty"`
	CorrelationID string             `json:"correlationId,omitempty"`
	Name          string             `json:"name"`
	Constraint    *Constraint        `json:"constraint,omitempty"`
	Function      *AttributeFunction `json:"function,omitempty"`
}

// IsComputed reports whether the attribute value is produced by a function and cannot be
// edited by hand.
func (a Attribute) IsComputed() bool {
	return a.Function != nil && a.Function.JS != "" && !a.Function.Editable
}

// CollectionPurposeType tags collections with a special meaning.
type CollectionPurposeType string

const (
	PurposeNone  CollectionPurposeType = ""
	PurposeTasks CollectionPurposeType = "Tasks"
)

type CollectionPurpose struct {
	Type                CollectionPurposeType `json:"type"`
	AssigneeAttributeID string                `json:"assigneeAttributeId,omitempty"`
}

type Collection struct {
	ID          string             `json:"id"`
	Code        string             `json:"code,omitempty"`
	Name        string             `json:"name"`
	Attributes  []Attribute        `json:"attributes"`
	Purpose     *CollectionPurpose `json:"purpose,omitempty"`
	Permissions Permissions        `json:"permissions"`
}

// PermissionsType says whether a link type carries its own rules or merges its collections'.
type PermissionsType string

const (
	PermissionsMerge  PermissionsType = "Merge"
	PermissionsCustom PermissionsType = "Custom"
)

type LinkType struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	CollectionIDs   [2]string       `json:"collectionIds"`
	Attributes      []Attribute     `json:"attributes"`
	PermissionsType PermissionsType `json:"permissionsType,omitempty"`
	Permissions     Permissions     `json:"permissions"`
}

// OtherCollectionID returns the collection on the opposite end of the link type.
func (l LinkType) OtherCollectionID(collectionID string) string {
	if l.CollectionIDs[0] == collectionID {
		return l.CollectionIDs[1]
	}
	return l.CollectionIDs[0]
}

// ResourceType distinguishes the two attribute-carrying resources.
type ResourceType string

const (
	ResourceCollection ResourceType = "collection"
	ResourceLinkType   ResourceType = "linkType"
)

// AttributesResource is a Collection or LinkType seen through its attributes.
type AttributesResource struct {
	ID         string       `json:"id"`
	Type       ResourceType `json:"type"`
	Name       string       `json:"name"`
	Attributes []Attribute  `json:"attributes"`
}

func (c Collection) AsResource() AttributesResource {
	return AttributesResource{ID: c.ID, Type: ResourceCollection, Name: c.Name, Attributes: c.Attributes}
}

func (l LinkType) AsResource() AttributesResource {
	return AttributesResource{ID: l.ID, Type: ResourceLinkType, Name: l.Name, Attributes: l.Attributes}
}

// FindAttribute returns the attribute with the given id or correlation id.
func FindAttribute(attributes []Attribute, id string) (Attribute, bool) {
	for _, attribute := range attributes {
		if attribute.ID == id || (attribute.ID == "" && attribute.CorrelationID == id) {
			return attribute, true
		}
	}
	return Attribute{}, false
}
