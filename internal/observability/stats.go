package observability

import (
	"sync"
	"sync/atomic"
)

// RunSnapshot summarizes one pipeline run for the end-of-run log line.
type RunSnapshot struct {
	PagesFetched    uint64            `json:"pages_fetched"`
	SeasonsSkipped  uint64            `json:"seasons_skipped"`
	TeamsCached     uint64            `json:"teams_cached"`
	TeamsDownloaded uint64            `json:"teams_downloaded"`
	TeamsSkipped    uint64            `json:"teams_skipped"`
	RowsExtracted   uint64            `json:"rows_extracted"`
	RowsMerged      uint64            `json:"rows_merged"`
	ErrorsTotal     uint64            `json:"errors_total"`
	ErrorsByType    map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByStage   map[string]uint64 `json:"errors_by_stage,omitempty"`
}

var (
	pagesFetched    uint64
	seasonsSkipped  uint64
	teamsCached     uint64
	teamsDownloaded uint64
	teamsSkipped    uint64
	rowsExtracted   uint64
	rowsMerged      uint64
	errorsTotal     uint64

	statsMu       sync.Mutex
	errorsByType  = map[string]uint64{}
	errorsByStage = map[string]uint64{}
)

func IncPagesFetched() {
	atomic.AddUint64(&pagesFetched, 1)
}

func IncSeasonsSkipped() {
	atomic.AddUint64(&seasonsSkipped, 1)
}

func IncTeamsCached() {
	atomic.AddUint64(&teamsCached, 1)
}

func IncTeamsDownloaded() {
	atomic.AddUint64(&teamsDownloaded, 1)
}

func IncTeamsSkipped() {
	atomic.AddUint64(&teamsSkipped, 1)
}

func AddRowsExtracted(n int) {
	if n > 0 {
		atomic.AddUint64(&rowsExtracted, uint64(n))
	}
}

func AddRowsMerged(n int) {
	if n > 0 {
		atomic.AddUint64(&rowsMerged, uint64(n))
	}
}

func IncError(errType, stage string) {
	if errType == "" {
		errType = ErrorUnknown
	}
	if stage == "" {
		stage = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByStage[stage]++
	statsMu.Unlock()
}

func Snapshot() RunSnapshot {
	statsMu.Lock()
	typeCopy := copyMap(errorsByType)
	stageCopy := copyMap(errorsByStage)
	statsMu.Unlock()

	return RunSnapshot{
		PagesFetched:    atomic.LoadUint64(&pagesFetched),
		SeasonsSkipped:  atomic.LoadUint64(&seasonsSkipped),
		TeamsCached:     atomic.LoadUint64(&teamsCached),
		TeamsDownloaded: atomic.LoadUint64(&teamsDownloaded),
		TeamsSkipped:    atomic.LoadUint64(&teamsSkipped),
		RowsExtracted:   atomic.LoadUint64(&rowsExtracted),
		RowsMerged:      atomic.LoadUint64(&rowsMerged),
		ErrorsTotal:     atomic.LoadUint64(&errorsTotal),
		ErrorsByType:    typeCopy,
		ErrorsByStage:   stageCopy,
	}
}

// Reset zeroes all counters so separate runs (or tests) start clean.
func Reset() {
	atomic.StoreUint64(&pagesFetched, 0)
	atomic.StoreUint64(&seasonsSkipped, 0)
	atomic.StoreUint64(&teamsCached, 0)
	atomic.StoreUint64(&teamsDownloaded, 0)
	atomic.StoreUint64(&teamsSkipped, 0)
	atomic.StoreUint64(&rowsExtracted, 0)
	atomic.StoreUint64(&rowsMerged, 0)
	atomic.StoreUint64(&errorsTotal, 0)
	statsMu.Lock()
	errorsByType = map[string]uint64{}
	errorsByStage = map[string]uint64{}
	statsMu.Unlock()
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
