package domain

import "time"

// RemoteRecord is the catalog service's view of one item.
type RemoteRecord struct {
	ID            string
	Title         string
	Description   string
	Creator       string
	Rating        float64
	Subscriptions int64
	Tags          []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FetchResult is the per-item outcome of a batch fetch: either Record is set
// or Err explains why the catalog returned nothing usable.
type FetchResult struct {
	ID     string
	Record *RemoteRecord
	Err    error
}

func Fetched(rec RemoteRecord) FetchResult {
	return FetchResult{ID: rec.ID, Record: &rec}
}

func FetchFailed(id string, code int) FetchResult {
	return FetchResult{ID: id, Err: &RecordError{ID: id, Code: code}}
}

func (r FetchResult) OK() bool { return r.Err == nil && r.Record != nil }

type SyncResult struct {
	RunID           string        `json:"run_id"`
	ScannedCount    int           `json:"scanned_count"`
	SyncedItems     []CatalogItem `json:"synced_items"`
	TranslatedCount int           `json:"translated_count"`
	Errors          []string      `json:"errors"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
	Canceled        bool          `json:"canceled"`
}

type RefreshResult struct {
	RunID        string   `json:"run_id"`
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors"`
}

type Statistics struct {
	TotalItems        int            `json:"total_items"`
	TranslatedItems   int            `json:"translated_items"`
	LanguageBreakdown map[string]int `json:"language_breakdown"`
	RecentUpdateCount int            `json:"recent_update_count"`
}

type CacheStats struct {
	MemoryEntryCount      int   `json:"memory_entry_count"`
	ApproximateMemorySize int64 `json:"approximate_memory_size"`
	PersistentEntryCount  int   `json:"persistent_entry_count"`
	StoreDegraded         bool  `json:"store_degraded"`
}

const (
	RunKindSync    = "sync"
	RunKindRefresh = "refresh"

	RunStatusRunning  = "running"
	RunStatusDone     = "done"
	RunStatusFailed   = "failed"
	RunStatusCanceled = "canceled"
)

// SyncRun is the persisted summary of one sync or refresh pass.
type SyncRun struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Scanned    int       `json:"scanned"`
	Synced     int       `json:"synced"`
	Translated int       `json:"translated"`
	Errors     []string  `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}
