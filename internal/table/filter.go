package table

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/adsdrill/drillctl/internal/record"
)

// Filter returns the records of ds that contain query in at least one searchable
// field, in their original order. An empty query matches everything.
//
// Text fields are compared case-insensitively. Number, Money and Date fields are
// compared against their display form as-is.
func Filter(ds record.Dataset, schema *record.Schema, query string) record.Dataset {
	if query == "" {
		return ds
	}

	// casers are stateful and must not be shared
	lower := cases.Lower(language.Und)
	folded := lower.String(query)
	out := make(record.Dataset, 0, len(ds))
	for _, rec := range ds {
		if matches(lower, rec, schema, query, folded) {
			out = append(out, rec)
		}
	}
	return out
}

// Matches reports whether a single record passes the filter.
func Matches(rec record.Record, schema *record.Schema, query string) bool {
	if query == "" {
		return true
	}
	lower := cases.Lower(language.Und)
	return matches(lower, rec, schema, query, lower.String(query))
}

func matches(lower cases.Caser, rec record.Record, schema *record.Schema, query, folded string) bool {
	for i, f := range schema.Fields {
		if !f.Searchable {
			continue
		}
		text := record.FormatValue(f.Kind, rec.At(i))
		if f.Kind == record.Text {
			if strings.Contains(lower.String(text), folded) {
				return true
			}
			continue
		}
		if strings.Contains(text, query) {
			return true
		}
	}
	return false
}
