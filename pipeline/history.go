package pipeline

import (
	"math"
	"sync"

	"ragsql/types"
)

// Stats summarizes recorded pipeline runs.
type Stats struct {
	TotalQueries      int     `json:"total_queries"`
	SuccessfulQueries int     `json:"successful_queries"`
	FailedQueries     int     `json:"failed_queries"`
	SuccessRate       float64 `json:"success_rate"`
	AvgProcessingTime float64 `json:"average_processing_time"`
}

// HistoryLog is a bounded FIFO record of pipeline results. Insertion appends
// to the end, eviction removes from the front. A single mutex guards
// append/evict/read; every critical section is cheap slice work, so one lock
// is enough even when the server handles questions concurrently.
type HistoryLog struct {
	mu      sync.Mutex
	max     int
	entries []types.Result
}

func NewHistoryLog(max int) *HistoryLog {
	if max <= 0 {
		max = 100
	}
	return &HistoryLog{max: max}
}

func (h *HistoryLog) Record(res types.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, res)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Recent returns the most recent entries, oldest first. A non-positive limit
// returns everything.
func (h *HistoryLog) Recent(limit int) []types.Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]types.Result, limit)
	copy(out, h.entries[n-limit:])
	return out
}

func (h *HistoryLog) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *HistoryLog) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// Stats never fails: an empty log yields all-zero values.
func (h *HistoryLog) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	total := len(h.entries)
	if total == 0 {
		return Stats{}
	}

	successful := 0
	timed := 0
	var timeSum float64
	for _, e := range h.entries {
		if e.Success {
			successful++
		}
		if e.ProcessingTime > 0 {
			timed++
			timeSum += e.ProcessingTime
		}
	}

	stats := Stats{
		TotalQueries:      total,
		SuccessfulQueries: successful,
		FailedQueries:     total - successful,
		SuccessRate:       math.Round(float64(successful)/float64(total)*1000) / 10,
	}
	if timed > 0 {
		stats.AvgProcessingTime = math.Round(timeSum/float64(timed)*100) / 100
	}
	return stats
}
