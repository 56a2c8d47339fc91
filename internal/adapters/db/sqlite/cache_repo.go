package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"modmanager/internal/domain"
)

// CacheRepo is the persistent translation cache. Every failure comes back as
// a *domain.StoreError.
type CacheRepo struct{ *Repo }

func NewCacheRepo(db *sql.DB) *CacheRepo { return &CacheRepo{NewRepo(db)} }

func (r *CacheRepo) Get(ctx context.Context, key domain.CacheKey) (*domain.TranslationCacheEntry, error) {
	q := r.SQ.Select(
		"source_text",
		"translated_text",
		"detected_lang",
		"created_at",
		"expires_at",
	).
		From("translation_cache").
		Where(sq.Eq{
			"text_hash":   key.TextHash(),
			"source_lang": key.SourceLang,
			"target_lang": key.TargetLang,
		}).
		Where(sq.Gt{"expires_at": r.now()}).
		Limit(1)
	sqlStr, args, _ := q.ToSql()
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	var (
		e                domain.TranslationCacheEntry
		source           string
		created, expires int64
	)
	if err := row.Scan(&source, &e.TranslatedText, &e.DetectedLanguage, &created, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &domain.StoreError{Op: "get", Err: err}
	}
	// hash collision guard
	if source != key.Text {
		return nil, nil
	}
	e.Key = key
	e.CreatedAt = fromMillis(created)
	e.ExpiresAt = fromMillis(expires)
	return &e, nil
}

// Put inserts or replaces the entry for key. Replacing resets both
// timestamps, so a refreshed translation lives a full ttl.
func (r *CacheRepo) Put(ctx context.Context, key domain.CacheKey, tr domain.Translation, ttl time.Duration) error {
	if ttl <= 0 {
		return &domain.StoreError{Op: "put", Err: fmt.Errorf("non-positive ttl %s", ttl)}
	}
	now := r.now()
	q := r.SQ.
		Insert("translation_cache").
		Columns(
			"text_hash",
			"source_lang",
			"target_lang",
			"source_text",
			"translated_text",
			"detected_lang",
			"created_at",
			"expires_at",
		).
		Values(
			key.TextHash(),
			key.SourceLang,
			key.TargetLang,
			key.Text,
			tr.Text,
			tr.DetectedLanguage,
			now,
			now+ttl.Milliseconds(),
		).
		Suffix(`ON CONFLICT(text_hash, source_lang, target_lang) DO UPDATE SET
			source_text=excluded.source_text,
			translated_text=excluded.translated_text,
			detected_lang=excluded.detected_lang,
			created_at=excluded.created_at,
			expires_at=excluded.expires_at`)
	sqlStr, args, _ := q.ToSql()
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return &domain.StoreError{Op: "put", Err: err}
	}
	return nil
}

// PurgeExpired deletes every entry whose expiry is at or before now.
func (r *CacheRepo) PurgeExpired(ctx context.Context) (int64, error) {
	return r.delete(ctx, "purge", sq.LtOrEq{"expires_at": r.now()})
}

func (r *CacheRepo) Clear(ctx context.Context) (int64, error) {
	return r.delete(ctx, "clear", nil)
}

func (r *CacheRepo) delete(ctx context.Context, op string, where sq.Sqlizer) (int64, error) {
	q := r.SQ.Delete("translation_cache")
	if where != nil {
		q = q.Where(where)
	}
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, &domain.StoreError{Op: op, Err: err}
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Count returns the number of live entries.
func (r *CacheRepo) Count(ctx context.Context) (int, error) {
	q := r.SQ.Select("COUNT(*)").From("translation_cache").Where(sq.Gt{"expires_at": r.now()})
	sqlStr, args, _ := q.ToSql()
	var n int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, &domain.StoreError{Op: "count", Err: err}
	}
	return n, nil
}
