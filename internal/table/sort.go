package table

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/adsdrill/drillctl/internal/record"
)

// ErrUnknownField is returned when a sort key is not part of the schema.
var ErrUnknownField = errors.New("unknown field")

type Direction int

const (
	None Direction = iota
	Ascending
	Descending
)

func (d Direction) String() string {
	switch d {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return "none"
	}
}

// ParseDirection accepts asc/ascending/desc/descending and the empty string.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return None, fmt.Errorf("invalid sort direction %q, must be one of [asc desc]", s)
	}
}

// SortState is the single active sort key. The zero value keeps insertion order.
type SortState struct {
	Field     string
	Direction Direction
}

// Active reports whether a sort key is selected.
func (s SortState) Active() bool {
	return s.Field != "" && s.Direction != None
}

// Toggle returns the state after the user selects field: the same field flips
// ascending to descending, anything else starts ascending.
func (s SortState) Toggle(field string) SortState {
	if s.Field == field && s.Direction == Ascending {
		return SortState{Field: field, Direction: Descending}
	}
	return SortState{Field: field, Direction: Ascending}
}

// Sort returns a stably sorted copy of records. Records with equal keys keep
// their relative order.
func Sort(records record.Dataset, schema *record.Schema, state SortState) (record.Dataset, error) {
	if !state.Active() {
		return records, nil
	}

	idx := schema.IndexOf(state.Field)
	if idx < 0 {
		return nil, fmt.Errorf("sort %s by %q: %w", schema.Name, state.Field, ErrUnknownField)
	}
	field := schema.Fields[idx]

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b record.Record) int {
		c := compareValues(field.Kind, a.At(idx), b.At(idx))
		if state.Direction == Descending {
			return -c
		}
		return c
	})
	return sorted, nil
}

func compareValues(kind record.Kind, a, b any) int {
	switch kind {
	case record.Number:
		return cmp.Compare(a.(int64), b.(int64))
	case record.Money:
		return cmp.Compare(a.(float64), b.(float64))
	default:
		return strings.Compare(a.(string), b.(string))
	}
}
