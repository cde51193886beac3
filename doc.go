// Package creedmoor provides an embedded dual-layer cache that bounds
// memory and disk usage independently, in bytes rather than item counts,
// and persists entries across process restarts.
//
// Entries live in a crash-safe transactional storage engine
// (cockroachdb/pebble). The disk budget is enforced by explicit
// least-recently-used eviction driven by monotonic recency tokens; the
// memory budget is enforced by the engine's own byte-capacity block
// cache. Accounting targets a bounded overshoot, not exact byte
// precision: usage may transiently exceed a budget by at most one
// entry's size while eviction catches up.
//
// # Quick start
//
//	cache, err := creedmoor.Open("./cache",
//	    64<<20,  // memory budget: 64 MiB
//	    1<<30,   // disk budget: 1 GiB
//	)
//	if err != nil {
//	    panic(err)
//	}
//	defer cache.Close()
//
//	ctx := context.Background()
//	if err := cache.Put(ctx, []byte("key"), payload); err != nil {
//	    // handle *creedmoor.ErrEntryTooLarge etc.
//	}
//	value, ok, err := cache.Get(ctx, []byte("key"))
//
// Values can optionally be compressed before they reach the engine:
//
//	cache, err := creedmoor.Open(path, memBudget, diskBudget,
//	    creedmoor.WithCompression(storage.CompressionZSTD),
//	)
//
// Opening performs the recovery scan: the recency index and size
// accounting are rebuilt from persisted metadata before Open returns, so
// a reopened cache picks up exactly where it left off. There is no log
// to replay; everything in memory is re-derivable from the store.
package creedmoor
