// Package pool provides object pooling for VectorLiteDB's search hot path,
// to reduce GC pressure from per-query allocations.
//
// Pooled objects:
//   - Scored result slices, reused across Search calls
//   - float32 scratch vectors, reused for query normalization
package pool

import (
	"sync"

	"github.com/cssvb94/vectorlitedb/pkg/result"
)

// Config controls global pooling behavior.
type Config struct {
	Enabled bool
	MaxSize int
}

var globalConfig = Config{
	Enabled: true,
	MaxSize: 2048,
}

// Configure sets the global pool configuration. Should be called early
// during initialization.
func Configure(cfg Config) {
	globalConfig = cfg
}

// IsEnabled reports whether pooling is active.
func IsEnabled() bool {
	return globalConfig.Enabled
}

var resultSlicePool = sync.Pool{
	New: func() any {
		return make([]result.SearchResult, 0, 64)
	},
}

// GetResultSlice returns a zero-length SearchResult slice from the pool.
// Call PutResultSlice when done with it.
func GetResultSlice() []result.SearchResult {
	if !globalConfig.Enabled {
		return make([]result.SearchResult, 0, 64)
	}
	return resultSlicePool.Get().([]result.SearchResult)[:0]
}

// PutResultSlice returns a SearchResult slice to the pool. Entry pointers
// are cleared first so the pool does not pin entries in memory.
func PutResultSlice(rs []result.SearchResult) {
	if !globalConfig.Enabled {
		return
	}
	if cap(rs) > globalConfig.MaxSize {
		return
	}
	for i := range rs {
		rs[i].Entry = nil
	}
	resultSlicePool.Put(rs[:0])
}

var vectorPool = sync.Pool{
	New: func() any {
		return make([]float32, 0, 1536)
	},
}

// GetVector returns a zero-length float32 scratch slice from the pool.
func GetVector() []float32 {
	if !globalConfig.Enabled {
		return make([]float32, 0, 1536)
	}
	return vectorPool.Get().([]float32)[:0]
}

// PutVector returns a float32 scratch slice to the pool.
func PutVector(v []float32) {
	if !globalConfig.Enabled {
		return
	}
	if cap(v) > globalConfig.MaxSize {
		return
	}
	vectorPool.Put(v[:0])
}
