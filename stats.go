package creedmoor

// Stats is a point-in-time snapshot of both layers.
//
// DiskBytes is the logical sum of entry sizes, the number the eviction
// engine enforces; ApproximateDiskUsage reports the engine's physical
// estimate including its own overhead and compression.
type Stats struct {
	MemoryBytes    int64
	MemoryCapacity int64
	DiskBytes      int64
	DiskCapacity   int64
	EntryCount     int
}

// Stats returns current usage for both layers. It reads outside the
// layer lock and may trail the latest committed mutation by a bounded
// window.
func (c *Cache) Stats() Stats {
	s := Stats{
		MemoryCapacity: c.memory.Capacity(),
		DiskCapacity:   c.disk.Capacity(),
	}
	if c.closed.Load() {
		return s
	}
	s.MemoryBytes = c.engine.MemoryBytes()
	s.DiskBytes = c.disk.Current()
	s.EntryCount = c.index.Len()
	return s
}

// ApproximateDiskUsage reports the storage engine's estimate of physical
// on-disk bytes for the whole store.
func (c *Cache) ApproximateDiskUsage() (uint64, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.engine.ApproximateDiskBytes()
}
