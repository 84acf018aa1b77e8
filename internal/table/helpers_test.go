package table

import (
	"fmt"

	"github.com/adsdrill/drillctl/internal/record"
)

func campaign(id string, clicks int, cost float64, date string) record.Record {
	return record.Campaigns.MustRecord(map[string]any{
		"campaignId": id,
		"clicks":     clicks,
		"cost":       cost,
		"date":       date,
	})
}

func profile(id, country, marketplace string) record.Record {
	return record.Profiles.MustRecord(map[string]any{
		"profileId":   id,
		"country":     country,
		"marketplace": marketplace,
	})
}

// campaigns returns n campaigns c00..c(n-1) with clicks equal to their index.
func campaigns(n int) record.Dataset {
	ds := make(record.Dataset, n)
	for i := range ds {
		ds[i] = campaign(fmt.Sprintf("c%02d", i), i, float64(i)+0.5, fmt.Sprintf("2023-01-%02d", i%28+1))
	}
	return ds
}

func ids(ds record.Dataset) []string {
	out := make([]string, len(ds))
	for i, r := range ds {
		out[i] = r.ID()
	}
	return out
}
