package services

import (
	"context"
	"errors"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

var errMissing = errors.New("referent not found")

// batchLoad resolves ids through a dataloader sized so that all keys land in a
// single batch: fetch runs exactly once regardless of len(ids). Ids fetch does not
// return are absent from the map; a fetch failure is returned as is.
func batchLoad[V any](ctx context.Context, ids []string, fetch func(context.Context, []string) ([]V, error), keyOf func(V) string) (map[string]V, error) {
	keys := distinct(ids)
	found := make(map[string]V, len(keys))
	if len(keys) == 0 {
		return found, nil
	}

	loader := dataloader.NewBatchedLoader(func(ctx context.Context, keys []string) []*dataloader.Result[V] {
		results := make([]*dataloader.Result[V], len(keys))
		rows, err := fetch(ctx, keys)

		byID := make(map[string]V, len(rows))
		if err == nil {
			for _, row := range rows {
				byID[keyOf(row)] = row
			}
		}

		for i, key := range keys {
			if err != nil {
				results[i] = &dataloader.Result[V]{Error: err}
			} else if row, ok := byID[key]; ok {
				results[i] = &dataloader.Result[V]{Data: row}
			} else {
				results[i] = &dataloader.Result[V]{Error: errMissing}
			}
		}
		return results
	},
		dataloader.WithBatchCapacity[string, V](len(keys)),
		dataloader.WithWait[string, V](time.Second),
		dataloader.WithCache[string, V](&dataloader.NoCache[string, V]{}),
	)

	values, errs := loader.LoadMany(ctx, keys)()
	for i, key := range keys {
		if i < len(errs) && errs[i] != nil {
			if errors.Is(errs[i], errMissing) {
				continue
			}
			return nil, errs[i]
		}
		found[key] = values[i]
	}
	return found, nil
}

// distinct drops empty and repeated ids, keeping first-seen order.
func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
