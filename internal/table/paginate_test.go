package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	require.Equal(t, 0, TotalPages(0, ItemsPerPage))
	require.Equal(t, 1, TotalPages(1, ItemsPerPage))
	require.Equal(t, 1, TotalPages(8, ItemsPerPage))
	require.Equal(t, 2, TotalPages(9, ItemsPerPage))
	require.Equal(t, 3, TotalPages(20, ItemsPerPage))
}

func TestPaginateSlicesPage(t *testing.T) {
	ds := campaigns(20)

	page := Paginate(ds, 2, ItemsPerPage)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, ids(ds[8:16]), ids(page.Items))

	last := Paginate(ds, 3, ItemsPerPage)
	require.Equal(t, ids(ds[16:20]), ids(last.Items))
}

func TestPaginateCorrectsOutOfRangePage(t *testing.T) {
	ds := campaigns(20)

	for _, requested := range []int{4, 99, 0, -3} {
		page := Paginate(ds, requested, ItemsPerPage)
		require.Equal(t, 1, page.CurrentPage, requested)
		require.Equal(t, ids(ds[:8]), ids(page.Items))
	}

	empty := Paginate(nil, 3, ItemsPerPage)
	require.Equal(t, 0, empty.TotalPages)
	require.Equal(t, 1, empty.CurrentPage)
	require.Empty(t, empty.Items)
}

func TestPageButtons(t *testing.T) {
	tests := []struct {
		name         string
		current      int
		total        int
		want         []int
		first, last  bool
		prevDisabled bool
		nextDisabled bool
	}{
		{name: "middle", current: 5, total: 10, want: []int{3, 4, 5, 6}, first: true, last: true},
		{name: "first page", current: 1, total: 10, want: []int{1, 2, 3, 4}, last: true, prevDisabled: true},
		{name: "second page", current: 2, total: 10, want: []int{1, 2, 3, 4}, last: true},
		{name: "fourth page", current: 4, total: 10, want: []int{2, 3, 4, 5}, first: true, last: true},
		{name: "next to last", current: 9, total: 10, want: []int{7, 8, 9, 10}, first: true},
		{name: "last page", current: 10, total: 10, want: []int{7, 8, 9, 10}, first: true, nextDisabled: true},
		{name: "three pages", current: 3, total: 3, want: []int{1, 2, 3}, nextDisabled: true},
		{name: "three pages start", current: 1, total: 3, want: []int{1, 2, 3}, prevDisabled: true},
		{name: "two pages", current: 2, total: 2, want: []int{1, 2}, nextDisabled: true},
		{name: "single page", current: 1, total: 1, want: []int{1}, prevDisabled: true, nextDisabled: true},
		{name: "four pages", current: 4, total: 4, want: []int{1, 2, 3, 4}, nextDisabled: true},
		{name: "no pages", current: 1, total: 0, want: nil, prevDisabled: true, nextDisabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := PageButtons(tt.current, tt.total)
			require.Equal(t, tt.want, b.Window)
			require.Equal(t, tt.first, b.ShowFirst)
			require.Equal(t, tt.first, b.LeadingEllipsis)
			require.Equal(t, tt.last, b.ShowLast)
			require.Equal(t, tt.last, b.TrailingEllipsis)
			require.Equal(t, tt.prevDisabled, b.PrevDisabled)
			require.Equal(t, tt.nextDisabled, b.NextDisabled)
		})
	}
}

func TestPageButtonsWindowInvariants(t *testing.T) {
	for total := 1; total <= 15; total++ {
		for current := 1; current <= total; current++ {
			b := PageButtons(current, total)
			require.Len(t, b.Window, min(total, MaxPageButtons), "%d/%d", current, total)
			require.Contains(t, b.Window, current, "%d/%d", current, total)
			require.GreaterOrEqual(t, b.Window[0], 1)
			require.LessOrEqual(t, b.Window[len(b.Window)-1], total)
			for i := 1; i < len(b.Window); i++ {
				require.Equal(t, b.Window[i-1]+1, b.Window[i])
			}
		}
	}
}
