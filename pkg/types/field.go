package types

import "time"

// FieldKind is the semantic type tag of a bound field. The set is closed:
// widget selection and value coercion switch over exactly these kinds, and
// adding one is an explicit change to every such switch.
type FieldKind string

// Field kinds.
const (
	KindText       FieldKind = "text"
	KindNumber     FieldKind = "number"
	KindBoolean    FieldKind = "boolean"
	KindDate       FieldKind = "date"
	KindEnum       FieldKind = "enum"
	KindReference  FieldKind = "reference"
	KindCollection FieldKind = "collection"
)

// validKinds is the set of recognized field kinds.
var validKinds = map[FieldKind]bool{
	KindText:       true,
	KindNumber:     true,
	KindBoolean:    true,
	KindDate:       true,
	KindEnum:       true,
	KindReference:  true,
	KindCollection: true,
}

// IsValid reports whether k is one of the recognized field kinds.
func (k FieldKind) IsValid() bool {
	return validKinds[k]
}

// IsRelation reports whether values of this kind point at other entities.
func (k FieldKind) IsRelation() bool {
	return k == KindReference || k == KindCollection
}

// IsSimple reports whether the kind holds a scalar value owned by the entity.
// Simple fields are the ones offered when enumerating a type's own fields.
func (k FieldKind) IsSimple() bool {
	return k.IsValid() && !k.IsRelation()
}

// DefaultValue returns the empty widget value for a field kind.
// Returns "" for text and enum, float64(0) for number, false for boolean,
// and nil for date, reference, and collection.
// Returns nil and ErrInvalidKind if the kind is not recognized.
func DefaultValue(kind FieldKind) (any, error) {
	switch kind {
	case KindText, KindEnum:
		return "", nil
	case KindNumber:
		return float64(0), nil
	case KindBoolean:
		return false, nil
	case KindDate, KindReference, KindCollection:
		return nil, nil
	default:
		return nil, ErrInvalidKind
	}
}

// DateLayout is the textual form used for date defaults and CLI input.
const DateLayout = time.DateOnly

// FieldMetadata describes the semantics of one resolvable property.
// It is derived from the registered metadata table, never persisted, and
// cached per (entity type, property path).
type FieldMetadata struct {
	Name         string    // Property name on its owning type.
	DisplayName  string    // Default caption.
	Description  string    // Default help text.
	Kind         FieldKind // Semantic type tag.
	RelatedType  string    // Target type for reference and collection fields.
	Multi        bool      // True for collection fields.
	Integer      bool      // Number field holds whole numbers.
	MaxLength    int       // Default maximum length for text; 0 means unbounded.
	DefaultValue string    // Default value in textual form.
	DataProvider string    // Default data provider for selectable fields.
	Options      []string  // Allowed values for enum fields.
	Rules        string    // Extra validator tags, e.g. "email".
}
