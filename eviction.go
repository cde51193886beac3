package creedmoor

import "context"

// evictLocked removes least-recently-used entries from the disk layer
// until need additional bytes fit, or reports ErrInsufficientCapacity
// when no victim remains (or the per-operation victim budget is spent).
//
// Each victim is deleted transactionally before its size is released and
// its index entry dropped, so a crash mid-loop leaves entries either
// fully present or fully gone. Must be called with c.mu held.
func (c *Cache) evictLocked(ctx context.Context, need int64) (victims int, freed int64, err error) {
	for !c.disk.WouldFit(need) {
		if limit := c.opts.maxEvictionsPerOp; limit > 0 && victims >= limit {
			return victims, freed, &ErrInsufficientCapacity{Needed: need, Freed: freed}
		}

		key, size, ok := c.index.Victim()
		if !ok {
			return victims, freed, &ErrInsufficientCapacity{Needed: need, Freed: freed}
		}
		if err := c.engine.Delete(ctx, key); err != nil {
			return victims, freed, err
		}
		if _, err := c.index.Remove(key); err != nil {
			return victims, freed, err
		}
		c.disk.Release(size)
		victims++
		freed += size
	}
	return victims, freed, nil
}
