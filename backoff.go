package skiplist

import (
	"context"

	"github.com/pkg/errors"

	"github.com/metailurini/lfskiplist/lflist"
)

// InsertContext is Insert that keeps retrying while a level reports
// contention, pacing the retries with the SkipList's backoff limiter. It
// gives up only when ctx is done.
func (sl *SkipList) InsertContext(ctx context.Context, key, value int64) (bool, error) {
	for {
		inserted, err := sl.Insert(key, value)
		if !errors.Is(err, lflist.ErrContention) {
			return inserted, err
		}
		if err := sl.backoff.Wait(ctx); err != nil {
			return false, errors.Wrapf(err, "insert key %d", key)
		}
	}
}

// DeleteContext is Delete with the retry behaviour of InsertContext.
func (sl *SkipList) DeleteContext(ctx context.Context, key int64) (bool, error) {
	for {
		deleted, err := sl.Delete(key)
		if !errors.Is(err, lflist.ErrContention) {
			return deleted, err
		}
		if err := sl.backoff.Wait(ctx); err != nil {
			return false, errors.Wrapf(err, "delete key %d", key)
		}
	}
}
