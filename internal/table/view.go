package table

import (
	"github.com/adsdrill/drillctl/internal/record"
)

// ViewState holds the inputs of the pipeline for one hierarchy level.
type ViewState struct {
	Dataset     record.Dataset
	Filter      string
	Sort        SortState
	CurrentPage int

	// generation changes whenever Dataset is replaced; it keys the memo.
	generation uint64
}

// NewViewState starts on page 1 with no filter and insertion order.
func NewViewState(ds record.Dataset, generation uint64) ViewState {
	return ViewState{Dataset: ds, CurrentPage: 1, generation: generation}
}

// View is the derived output of one recomputation.
type View struct {
	Visible     record.Dataset
	Filtered    int
	Total       int
	TotalPages  int
	CurrentPage int
	Buttons     Buttons
	Sort        SortState
	Filter      string
}

// Empty reports whether the current filter matched nothing.
func (v View) Empty() bool {
	return v.Filtered == 0
}

// Recompute runs filter -> sort -> paginate from the full dataset and returns the
// state with its page corrected alongside the derived view.
func Recompute(schema *record.Schema, state ViewState) (ViewState, View, error) {
	filtered := Filter(state.Dataset, schema, state.Filter)
	sorted, err := Sort(filtered, schema, state.Sort)
	if err != nil {
		return state, View{}, err
	}
	page := Paginate(sorted, state.CurrentPage, ItemsPerPage)
	state.CurrentPage = page.CurrentPage

	return state, View{
		Visible:     page.Items,
		Filtered:    len(filtered),
		Total:       len(state.Dataset),
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Buttons:     PageButtons(page.CurrentPage, page.TotalPages),
		Sort:        state.Sort,
		Filter:      state.Filter,
	}, nil
}

// Event is a user input that transforms a ViewState.
type Event interface {
	apply(ViewState) ViewState
}

// SetFilter replaces the query and jumps back to the first page.
type SetFilter struct{ Query string }

// RequestSort selects a sort column, toggling direction on repeat.
type RequestSort struct{ Field string }

// GotoPage requests a specific page; out of range pages fall back to 1.
type GotoPage struct{ Page int }

// NextPage and PrevPage step one page. Stepping past either end is clamped by
// the next recompute.
type NextPage struct{}

type PrevPage struct{}

// FirstPage jumps to page 1.
type FirstPage struct{}

// LastPage jumps to the last page of the current view. The controller fills in
// TotalPages from its most recent view.
type LastPage struct{ TotalPages int }

func (e SetFilter) apply(s ViewState) ViewState {
	s.Filter = e.Query
	s.CurrentPage = 1
	return s
}

func (e RequestSort) apply(s ViewState) ViewState {
	s.Sort = s.Sort.Toggle(e.Field)
	return s
}

func (e GotoPage) apply(s ViewState) ViewState {
	s.CurrentPage = e.Page
	return s
}

func (NextPage) apply(s ViewState) ViewState {
	s.CurrentPage++
	return s
}

func (PrevPage) apply(s ViewState) ViewState {
	s.CurrentPage--
	return s
}

func (FirstPage) apply(s ViewState) ViewState {
	s.CurrentPage = 1
	return s
}

func (e LastPage) apply(s ViewState) ViewState {
	s.CurrentPage = max(e.TotalPages, 1)
	return s
}

// Reduce applies an event without recomputing.
func Reduce(s ViewState, e Event) ViewState {
	return e.apply(s)
}

type memoKey struct {
	generation uint64
	filter     string
	sort       SortState
	page       int
}

// memo caches the last recomputation for an identical input tuple.
type memo struct {
	valid bool
	key   memoKey
	state ViewState
	view  View
}

func (m *memo) lookup(s ViewState) (ViewState, View, bool) {
	if !m.valid || m.key != keyOf(s) {
		return ViewState{}, View{}, false
	}
	return m.state, m.view, true
}

func (m *memo) store(in, out ViewState, v View) {
	m.valid = true
	m.key = keyOf(in)
	m.state = out
	m.view = v
}

func (m *memo) reset() {
	*m = memo{}
}

func keyOf(s ViewState) memoKey {
	return memoKey{generation: s.generation, filter: s.Filter, sort: s.Sort, page: s.CurrentPage}
}
