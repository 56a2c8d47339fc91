package ports

import (
	"context"
	"time"

	"modmanager/internal/domain"
)

// RemoteCatalog fetches item details in one call per batch. A returned
// error means the whole batch failed; per-item failures are FetchResult.Err.
type RemoteCatalog interface {
	FetchDetails(ctx context.Context, ids []string) ([]domain.FetchResult, error)
}

// LocalEnumerator lists the identifiers of items installed locally.
type LocalEnumerator interface {
	ListLocalIdentifiers(ctx context.Context) ([]string, error)
}

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

