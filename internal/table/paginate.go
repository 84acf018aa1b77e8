package table

import "github.com/adsdrill/drillctl/internal/record"

const (
	// ItemsPerPage is the fixed number of rows shown per page.
	ItemsPerPage = 8
	// MaxPageButtons is the widest page-number window rendered at once.
	MaxPageButtons = 4
)

// Page is the result of slicing a sorted, filtered sequence.
type Page struct {
	Items       record.Dataset
	TotalPages  int
	CurrentPage int
}

// TotalPages returns ceil(n/perPage), or 0 when there is nothing to show.
func TotalPages(n, perPage int) int {
	if n <= 0 || perPage <= 0 {
		return 0
	}
	return (n + perPage - 1) / perPage
}

// Paginate slices the requested page. A page beyond the last one (or below 1)
// is corrected to 1, also when there are no pages at all.
func Paginate(records record.Dataset, currentPage, perPage int) Page {
	total := TotalPages(len(records), perPage)
	if currentPage > total || currentPage < 1 {
		currentPage = 1
	}

	start := (currentPage - 1) * perPage
	end := min(currentPage*perPage, len(records))
	var items record.Dataset
	if start < end {
		items = records[start:end]
	}

	return Page{
		Items:       items,
		TotalPages:  total,
		CurrentPage: currentPage,
	}
}

// Buttons describes the pagination controls for one page.
type Buttons struct {
	Window           []int
	ShowFirst        bool
	LeadingEllipsis  bool
	ShowLast         bool
	TrailingEllipsis bool
	PrevDisabled     bool
	NextDisabled     bool
	CurrentPage      int
	TotalPages       int
}

// PageButtons computes the page-number window around currentPage along with the
// first/last shortcuts and the prev/next disabled state.
func PageButtons(currentPage, totalPages int) Buttons {
	b := Buttons{
		CurrentPage:  currentPage,
		TotalPages:   totalPages,
		PrevDisabled: currentPage == 1,
		NextDisabled: currentPage == totalPages || totalPages == 0,
	}
	if totalPages <= 0 {
		return b
	}

	size := min(totalPages, MaxPageButtons)
	start, end := currentPage-2, currentPage+1
	if start <= 0 {
		start, end = 1, size
	} else if end > totalPages {
		start, end = totalPages-size+1, totalPages
	}

	b.Window = make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		b.Window = append(b.Window, p)
	}

	decorate := totalPages > MaxPageButtons
	b.ShowFirst = decorate && currentPage > 3
	b.LeadingEllipsis = b.ShowFirst
	b.ShowLast = decorate && currentPage < totalPages-1
	b.TrailingEllipsis = b.ShowLast
	return b
}
