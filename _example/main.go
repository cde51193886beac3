package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/creedmoor"
	"github.com/hupe1980/creedmoor/storage"
)

func main() {
	dir, err := os.MkdirTemp("", "creedmoor-demo")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	metrics := &creedmoor.BasicMetricsCollector{}

	cache, err := creedmoor.Open(dir,
		32<<20,  // memory budget: 32 MiB
		512<<10, // disk budget: 512 KiB, small enough to watch eviction
		creedmoor.WithCompression(storage.CompressionZSTD),
		creedmoor.WithMetricsCollector(metrics),
		creedmoor.WithLogLevel(slog.LevelInfo),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer cache.Close()

	ctx := context.Background()

	fmt.Println("--- Insert ---")
	start := time.Now()
	for i := 0; i < 1000; i++ {
		key := fmt.Appendf(nil, "entry-%04d", i)
		value := bytes.Repeat([]byte("payload "), 128) // 1 KiB each
		if err := cache.Put(ctx, key, value); err != nil {
			log.Fatal(err)
		}
	}
	fmt.Println("Elapsed:", time.Since(start))

	stats := cache.Stats()
	fmt.Println("--- Stats ---")
	fmt.Printf("Entries: %d\n", stats.EntryCount)
	fmt.Printf("Disk:    %d / %d bytes\n", stats.DiskBytes, stats.DiskCapacity)
	fmt.Printf("Memory:  %d / %d bytes\n", stats.MemoryBytes, stats.MemoryCapacity)
	fmt.Printf("Evicted: %d entries (%d bytes)\n",
		metrics.EvictionCount.Load(), metrics.EvictedBytes.Load())

	// The oldest entries were evicted to hold the disk budget; recent
	// ones are still present.
	_, okOld, _ := cache.Get(ctx, []byte("entry-0000"))
	_, okNew, _ := cache.Get(ctx, []byte("entry-0999"))
	fmt.Println("--- Lookup ---")
	fmt.Println("entry-0000 present:", okOld)
	fmt.Println("entry-0999 present:", okNew)
}
