package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidRecord = errors.New("invalid record")

	// Translation backend failures.
	ErrConfiguration = errors.New("translation not configured")
	ErrThrottled     = errors.New("translation backend throttled")
	ErrTransient     = errors.New("translation backend unavailable")
	ErrQuotaExceeded = errors.New("translation quota exceeded")
	ErrRejected      = errors.New("translation request rejected")

	ErrStoreUnavailable   = errors.New("translation store unavailable")
	ErrEnumerationFailed  = errors.New("cannot enumerate local items")
	ErrCatalogUnreachable = errors.New("remote catalog unreachable")
	ErrRecordUnavailable  = errors.New("catalog record unavailable")
)

// TranslationError carries what the backend reported so callers can tell
// a bad credential from a busy server.
type TranslationError struct {
	Kind     error  // one of the translation sentinels above
	Status   int    // HTTP status, 0 when no response was received
	Category string // backend-specific reason, e.g. "rateLimitExceeded"
	Message  string

	// RetryAfter is the delay the backend asked for, if any.
	RetryAfter time.Duration
}

func (e *TranslationError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Category != "" {
		msg += ": " + e.Category
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *TranslationError) Unwrap() error { return e.Kind }

// StoreError wraps a persistent cache failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("translation store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() []error { return []error{ErrStoreUnavailable, e.Err} }

// RecordError is a non-success result code for one item in a batch fetch.
type RecordError struct {
	ID   string
	Code int
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("item %s: catalog result code %d", e.ID, e.Code)
}

func (e *RecordError) Unwrap() error { return ErrRecordUnavailable }

// StopsTranslation reports errors after which further translation attempts
// in the same pass are pointless.
func StopsTranslation(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrConfiguration)
}
