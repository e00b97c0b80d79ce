// Package recycler implements the periodic TTL-based deletion task (C8): on
// each tick it deletes expired, non-pinned blobs in one transaction and
// emits a Delete event for them.
package recycler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/dreamware/csync/internal/events"
	"github.com/dreamware/csync/internal/metrics"
	"github.com/dreamware/csync/internal/revision"
	"github.com/dreamware/csync/internal/store"
	"github.com/dreamware/csync/internal/types"
)

// Recycler runs the periodic expiry sweep.
type Recycler struct {
	DB       store.Store
	Revision *revision.Register
	Bus      *events.Bus
	Interval time.Duration
	Log      zerolog.Logger
}

// Run ticks every r.Interval until ctx is canceled. A failed tick is
// logged; the task always continues to the next tick.
func (r *Recycler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.tick(ctx); err != nil {
				r.Log.Error().Err(err).Msg("recycler tick failed")
			}
		}
	}
}

func (r *Recycler) tick(ctx context.Context) error {
	now := uint64(time.Now().Unix())

	var deleted []types.Metadata
	err := r.DB.WithTx(ctx, func(tx store.Tx) error {
		q := types.MetadataQuery{RecycleBefore: now, HasRecycleBefore: true}

		count, err := tx.CountMetadatas(ctx, q)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}

		items, err := tx.GetMetadatas(ctx, q)
		if err != nil {
			return err
		}

		// Sorted ids make the DELETE statement's IN (...) clause and the
		// emitted Delete event deterministic regardless of scan order.
		slices.SortFunc(items, func(a, b types.Metadata) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			default:
				return 0
			}
		})
		ids := make([]uint64, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}
		slices.Sort(ids)
		if _, err := tx.DeleteBlobs(ctx, ids); err != nil {
			return err
		}

		total, err := tx.CountMetadatas(ctx, types.MetadataQuery{})
		if err != nil {
			return err
		}
		metrics.BlobsTotal.Set(float64(total))

		deleted = items
		return nil
	})
	if err != nil {
		return err
	}

	if len(deleted) == 0 {
		return nil
	}

	r.Revision.Grow()
	for _, item := range deleted {
		r.Revision.ClearLatest(item.ID)
	}
	r.Bus.Publish(types.Event{EventType: types.EventDelete, Items: deleted})
	metrics.RecycledTotal.Add(float64(len(deleted)))

	r.Log.Debug().Int("count", len(deleted)).Msg("recycled expired blobs")
	return nil
}
