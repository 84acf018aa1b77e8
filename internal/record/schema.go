package record

import (
	"fmt"
	"strings"
)

// Kind describes how a field is matched, ordered and displayed.
type Kind int

const (
	// Text fields match case-insensitively and sort lexicographically.
	Text Kind = iota
	// Number fields hold integers, match on their decimal form and sort numerically.
	Number
	// Money fields hold floats, match on their two-decimal form and sort numerically.
	Money
	// Date fields match on their literal form (case-sensitive) and sort lexicographically.
	Date
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case Money:
		return "money"
	case Date:
		return "date"
	default:
		return "unknown"
	}
}

// Numeric reports whether values of this kind compare as numbers.
func (k Kind) Numeric() bool {
	return k == Number || k == Money
}

type Field struct {
	Name       string
	Kind       Kind
	Searchable bool
	Sortable   bool
}

// Schema is the shape shared by every record of one hierarchy level.
type Schema struct {
	Name    string
	Title   string
	IDField string
	Fields  []Field
}

// Field returns the named field definition.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByIndex returns the field at the given column position.
func (s *Schema) FieldByIndex(i int) (Field, bool) {
	if i < 0 || i >= len(s.Fields) {
		return Field{}, false
	}
	return s.Fields[i], true
}

// IndexOf returns the column position of the named field or -1.
func (s *Schema) IndexOf(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FieldNames lists the field names in column order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// SortableFieldNames lists the fields that can be used as a sort key.
func (s *Schema) SortableFieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Sortable {
			names = append(names, f.Name)
		}
	}
	return names
}

// ResolveField matches a user supplied field name case-insensitively.
func (s *Schema) ResolveField(name string) (Field, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, f := range s.Fields {
		if strings.ToLower(f.Name) == needle {
			return f, true
		}
	}
	return Field{}, false
}

// NewRecord validates raw values against the schema. Every field of the schema must
// be present with a value of the right scalar type.
func (s *Schema) NewRecord(raw map[string]any) (Record, error) {
	values := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			return Record{}, &MalformedRecordError{Schema: s.Name, Field: f.Name, Reason: "missing field"}
		}
		coerced, err := coerce(f.Kind, v)
		if err != nil {
			return Record{}, &MalformedRecordError{Schema: s.Name, Field: f.Name, Reason: err.Error()}
		}
		values[i] = coerced
	}
	return Record{schema: s, values: values}, nil
}

// MustRecord is NewRecord for fixtures; it panics on malformed input.
func (s *Schema) MustRecord(raw map[string]any) Record {
	r, err := s.NewRecord(raw)
	if err != nil {
		panic(err)
	}
	return r
}

// MalformedRecordError reports a record that does not satisfy its schema.
// Index is the 1-based position in the decoded document, 0 when unknown.
type MalformedRecordError struct {
	Schema string
	Index  int
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s record %d: field %q: %s", e.Schema, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s record: field %q: %s", e.Schema, e.Field, e.Reason)
}

var (
	Accounts = &Schema{
		Name:    "accounts",
		Title:   "Table Accounts",
		IDField: "id",
		Fields: []Field{
			{Name: "id", Kind: Text, Searchable: true, Sortable: true},
			{Name: "email", Kind: Text, Searchable: true, Sortable: true},
			{Name: "authToken", Kind: Text, Searchable: true, Sortable: true},
			{Name: "creationDate", Kind: Date, Searchable: true, Sortable: true},
		},
	}

	Profiles = &Schema{
		Name:    "profiles",
		Title:   "Table Profiles",
		IDField: "profileId",
		Fields: []Field{
			{Name: "profileId", Kind: Text, Searchable: true, Sortable: true},
			{Name: "country", Kind: Text, Searchable: true, Sortable: true},
			{Name: "marketplace", Kind: Text, Searchable: true, Sortable: true},
		},
	}

	Campaigns = &Schema{
		Name:    "campaigns",
		Title:   "Table Campaigns",
		IDField: "campaignId",
		Fields: []Field{
			{Name: "campaignId", Kind: Text, Searchable: true, Sortable: true},
			{Name: "clicks", Kind: Number, Searchable: true, Sortable: true},
			{Name: "cost", Kind: Money, Searchable: true, Sortable: true},
			{Name: "date", Kind: Date, Searchable: true, Sortable: true},
		},
	}
)
