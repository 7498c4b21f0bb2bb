// Package stats defines the VectorDbStats shape StoreCore.GetStats and
// ShardRouter.GetStats fill in, plus the PCA statistics-only artefact.
package stats

import "time"

// VectorDbStats is the snapshot returned by get_stats.
type VectorDbStats struct {
	TotalEntries           int
	IndexSize              int // PCA components, or 0 below the sample threshold
	HnswIndexSize          int
	MemoryUsageBytes       int64
	LastUpdated            time.Time
	LastIndexRebuild       *time.Time
	Uptime                 time.Duration
	TotalSearches          uint64
	AverageSearchTimeMs    float64
	AverageRecall          float64
	DatabaseSizeBytes      int64
	ActiveConnections      int
	MetadataCategoryCounts map[string]int
	TagDistribution        map[string]int
}

// Merge combines per-shard stats into a router-level aggregate: totals sum,
// uptime takes the max, average search time is length-weighted, and the
// category/tag maps union by summing counts.
func Merge(shards []VectorDbStats) VectorDbStats {
	var out VectorDbStats
	out.MetadataCategoryCounts = map[string]int{}
	out.TagDistribution = map[string]int{}
	out.ActiveConnections = len(shards)

	var weightedSearchTime float64
	var totalSearches uint64

	for _, s := range shards {
		out.TotalEntries += s.TotalEntries
		out.IndexSize += s.IndexSize
		out.HnswIndexSize += s.HnswIndexSize
		out.MemoryUsageBytes += s.MemoryUsageBytes
		out.DatabaseSizeBytes += s.DatabaseSizeBytes
		out.TotalSearches += s.TotalSearches

		if s.Uptime > out.Uptime {
			out.Uptime = s.Uptime
		}
		if s.LastUpdated.After(out.LastUpdated) {
			out.LastUpdated = s.LastUpdated
		}
		if s.LastIndexRebuild != nil && (out.LastIndexRebuild == nil || s.LastIndexRebuild.After(*out.LastIndexRebuild)) {
			out.LastIndexRebuild = s.LastIndexRebuild
		}

		weightedSearchTime += s.AverageSearchTimeMs * float64(s.TotalSearches)
		totalSearches += s.TotalSearches

		for k, v := range s.MetadataCategoryCounts {
			out.MetadataCategoryCounts[k] += v
		}
		for k, v := range s.TagDistribution {
			out.TagDistribution[k] += v
		}
	}

	if totalSearches > 0 {
		out.AverageSearchTimeMs = weightedSearchTime / float64(totalSearches)
	}

	return out
}
