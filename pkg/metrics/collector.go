package metrics

import (
	"time"

	"github.com/nicktill/tinyrec/pkg/calendar"
)

// SampleFunc reads current resource usage. It may be expensive.
type SampleFunc func() Sample

// Record counts one sample at timestampNanos.
//
// The addressed cell is (re)initialised from supplier when it has never been
// sampled or when force is set; otherwise only its CallCount grows.
// supplier is called at most once.
func Record(store *Store, timestampNanos int64, force bool, supplier SampleFunc) error {
	t := time.Unix(0, timestampNanos).UTC()
	key, err := calendar.KeyOf(t)
	if err != nil {
		return err
	}
	cell := CellOf(t)

	bucket, ok := store.Bucket(key)
	if !ok {
		bucket = NewDayBucket()
		bucket.setCell(cell, supplier())
		return store.Put(key, bucket)
	}

	if bucket.CallCount[cell] == 0 || force {
		bucket.setCell(cell, supplier())
		return nil
	}

	bucket.CallCount[cell]++
	return nil
}
