package dataset

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultCheckConcurrency bounds the loads CheckAll runs at once.
const DefaultCheckConcurrency = 8

// Status reports the load result of one dataset.
type Status struct {
	Level   string
	Key     string
	Records int
	Err     error
}

func (s Status) OK() bool { return s.Err == nil }

// Report is the result of CheckAll, ordered by level then key.
type Report []Status

// Failures counts the statuses that carry an error.
func (r Report) Failures() int {
	n := 0
	for _, s := range r {
		if !s.OK() {
			n++
		}
	}
	return n
}

// CheckAll loads the accounts dataset, then every profiles dataset it
// references, then every campaigns dataset those reference. Per-key failures
// are recorded in the report; only a failure of the accounts dataset or a
// cancelled context is returned as an error.
func CheckAll(ctx context.Context, loaders Loaders, limit int) (Report, error) {
	if limit <= 0 {
		limit = DefaultCheckConcurrency
	}

	accounts, err := loaders.Accounts.Load(ctx, "")
	if err != nil {
		return nil, err
	}
	report := Report{{Level: loaders.Accounts.Schema.Name, Records: len(accounts)}}

	accountIDs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		accountIDs = append(accountIDs, a.ID())
	}

	profiles, profileIDs, err := checkLevel(ctx, loaders.Profiles, accountIDs, limit)
	report = append(report, profiles...)
	if err != nil {
		return report, err
	}

	campaigns, _, err := checkLevel(ctx, loaders.Campaigns, profileIDs, limit)
	report = append(report, campaigns...)
	return report, err
}

// checkLevel loads every key concurrently and returns the statuses along with
// the ids of all records that loaded.
func checkLevel(ctx context.Context, loader *KeyedLoader, keys []string, limit int) (Report, []string, error) {
	var (
		mu       sync.Mutex
		statuses = make(Report, 0, len(keys))
		children []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, key := range slices.Compact(slices.Sorted(slices.Values(keys))) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := loader.Load(gctx, key)
			st := Status{Level: loader.Schema.Name, Key: key, Records: len(ds), Err: err}

			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, st)
			for _, r := range ds {
				children = append(children, r.ID())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	slices.SortFunc(statuses, func(a, b Status) int { return cmp.Compare(a.Key, b.Key) })
	return statuses, children, ctx.Err()
}
