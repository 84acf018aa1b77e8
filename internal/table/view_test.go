package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adsdrill/drillctl/internal/record"
)

func TestReduce(t *testing.T) {
	s := NewViewState(campaigns(3), 1)
	s.CurrentPage = 4

	require.Equal(t, 1, Reduce(s, SetFilter{Query: "x"}).CurrentPage)
	require.Equal(t, "x", Reduce(s, SetFilter{Query: "x"}).Filter)
	require.Equal(t, 5, Reduce(s, NextPage{}).CurrentPage)
	require.Equal(t, 3, Reduce(s, PrevPage{}).CurrentPage)
	require.Equal(t, 1, Reduce(s, FirstPage{}).CurrentPage)
	require.Equal(t, 7, Reduce(s, LastPage{TotalPages: 7}).CurrentPage)
	require.Equal(t, 1, Reduce(s, LastPage{}).CurrentPage)
	require.Equal(t, 2, Reduce(s, GotoPage{Page: 2}).CurrentPage)
	require.Equal(t, SortState{Field: "cost", Direction: Ascending}, Reduce(s, RequestSort{Field: "cost"}).Sort)
}

func TestRecomputeWritesBackCorrectedPage(t *testing.T) {
	s := NewViewState(campaigns(9), 1)
	s.CurrentPage = 3

	next, view, err := Recompute(record.Campaigns, s)
	require.NoError(t, err)
	require.Equal(t, 1, next.CurrentPage)
	require.Equal(t, 1, view.CurrentPage)
	require.Equal(t, 2, view.TotalPages)
	require.Equal(t, []int{1, 2}, view.Buttons.Window)
	require.Len(t, view.Visible, 8)
}
