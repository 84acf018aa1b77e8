package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/adsdrill/drillctl/internal/record"
)

func TestFilterEmptyQueryIsIdentity(t *testing.T) {
	ds := campaigns(5)
	require.Equal(t, ds, Filter(ds, record.Campaigns, ""))
}

func TestFilterTextIsCaseInsensitive(t *testing.T) {
	ds := record.Dataset{
		profile("p1", "Germany", "Amazon.de"),
		profile("p2", "France", "Amazon.fr"),
		profile("p3", "Österreich", "Amazon.de"),
	}

	require.Equal(t, []string{"p1"}, ids(Filter(ds, record.Profiles, "GERMANY")))
	require.Equal(t, []string{"p1", "p3"}, ids(Filter(ds, record.Profiles, ".DE")))
	require.Equal(t, []string{"p3"}, ids(Filter(ds, record.Profiles, "österREICH")))
	require.Empty(t, Filter(ds, record.Profiles, "spain"))
}

func TestFilterNumericAndDateFields(t *testing.T) {
	ds := record.Dataset{
		campaign("alpha", 4217, 12.5, "2023-04-01"),
		campaign("beta", 7, 3, "2023-Apr-02"),
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"421", []string{"alpha"}},
		{"12.50", []string{"alpha"}},
		{"3.00", []string{"beta"}},
		// money is matched on its two decimal form
		{"3.0", []string{"beta"}},
		{"2023-04", []string{"alpha"}},
		{"Apr", []string{"beta"}},
		// dates are case-sensitive
		{"apr", nil},
		{"ALPHA", []string{"alpha"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := ids(Filter(ds, record.Campaigns, tt.query))
			if len(tt.want) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFilterMatchesMoneyRoundedHalfUp(t *testing.T) {
	ds := record.Dataset{
		campaign("tie", 1, 0.125, "2023-04-01"),
		campaign("ten", 2, 10.625, "2023-04-02"),
	}

	require.Equal(t, []string{"tie"}, ids(Filter(ds, record.Campaigns, "0.13")))
	require.Equal(t, []string{"ten"}, ids(Filter(ds, record.Campaigns, "10.63")))
	require.Empty(t, Filter(ds, record.Campaigns, "0.12"))
	require.Equal(t, "10.63", ds[1].String("cost"))
}

func TestFilterPartitionsDataset(t *testing.T) {
	ds := campaigns(30)
	query := "1"

	kept := Filter(ds, record.Campaigns, query)
	var dropped []string
	for _, r := range ds {
		if !Matches(r, record.Campaigns, query) {
			dropped = append(dropped, r.ID())
		}
	}
	for _, r := range kept {
		require.True(t, Matches(r, record.Campaigns, query), r.ID())
	}
	require.Equal(t, len(ds), len(kept)+len(dropped))

	// kept records appear in their original relative order
	var want []string
	for _, r := range ds {
		if Matches(r, record.Campaigns, query) {
			want = append(want, r.ID())
		}
	}
	if diff := cmp.Diff(want, ids(kept)); diff != "" {
		t.Fatalf("filter order mismatch (-want +got):\n%s", diff)
	}
}
