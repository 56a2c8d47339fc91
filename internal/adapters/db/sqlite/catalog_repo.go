package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"modmanager/internal/domain"
)

type CatalogRepo struct{ *Repo }

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{NewRepo(db)} }

var catalogColumns = []string{
	"id",
	"title",
	"description",
	"creator",
	"rating",
	"subscriptions",
	"tags_json",
	"created_at",
	"updated_at",
	"language",
	"original_title",
	"original_description",
	"translated_title",
	"translated_description",
	"target_language",
	"last_translated_at",
	"synced_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*domain.CatalogItem, error) {
	var (
		it                            domain.CatalogItem
		tags                          string
		created, updated, synced      int64
		origTitle, origDesc           sql.NullString
		transTitle, transDesc, target sql.NullString
		lastTranslated                sql.NullInt64
	)
	if err := s.Scan(
		&it.ID, &it.Title, &it.Description, &it.Creator, &it.Rating, &it.Subscriptions, &tags,
		&created, &updated, &it.Language,
		&origTitle, &origDesc, &transTitle, &transDesc, &target, &lastTranslated,
		&synced,
	); err != nil {
		return nil, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &it.Tags); err != nil {
			return nil, fmt.Errorf("item %s: decode tags: %w", it.ID, err)
		}
	}
	it.CreatedAt = fromMillis(created)
	it.UpdatedAt = fromMillis(updated)
	it.SyncedAt = fromMillis(synced)
	if lastTranslated.Valid {
		it.Translation = &domain.TranslationRecord{
			OriginalTitle:         origTitle.String,
			OriginalDescription:   origDesc.String,
			TranslatedTitle:       transTitle.String,
			TranslatedDescription: transDesc.String,
			TargetLanguage:        target.String,
			LastTranslatedAt:      fromMillis(lastTranslated.Int64),
		}
	}
	return &it, nil
}

func (r *CatalogRepo) Get(ctx context.Context, id string) (*domain.CatalogItem, error) {
	q := r.SQ.Select(catalogColumns...).From("catalog_items").Where(sq.Eq{"id": id}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	it, err := scanItem(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get catalog item %s: %w", id, err)
	}
	return it, nil
}

// GetMany loads the stored items among ids, keyed by id. Unknown ids are absent.
func (r *CatalogRepo) GetMany(ctx context.Context, ids []string) (map[string]*domain.CatalogItem, error) {
	out := make(map[string]*domain.CatalogItem, len(ids))
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		q := r.SQ.Select(catalogColumns...).From("catalog_items").Where(sq.Eq{"id": ids[start:end]})
		items, err := r.query(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			out[it.ID] = it
		}
	}
	return out, nil
}

func (r *CatalogRepo) Upsert(ctx context.Context, it *domain.CatalogItem) error {
	if err := it.Validate(); err != nil {
		return err
	}
	tags, err := json.Marshal(nonNil(it.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	var origTitle, origDesc, transTitle, transDesc, target, lastTranslated any
	if tr := it.Translation; tr != nil {
		origTitle, origDesc = tr.OriginalTitle, tr.OriginalDescription
		transTitle, transDesc = tr.TranslatedTitle, tr.TranslatedDescription
		target = tr.TargetLanguage
		lastTranslated = toMillis(tr.LastTranslatedAt)
	}
	sets := make([]string, 0, len(catalogColumns)-1)
	for _, c := range catalogColumns[1:] {
		sets = append(sets, c+"=excluded."+c)
	}
	q := r.SQ.Insert("catalog_items").Columns(catalogColumns...).
		Values(
			it.ID, it.Title, it.Description, it.Creator, it.Rating, it.Subscriptions, string(tags),
			toMillis(it.CreatedAt), toMillis(it.UpdatedAt), it.Language,
			origTitle, origDesc, transTitle, transDesc, target, lastTranslated,
			toMillis(it.SyncedAt),
		).
		Suffix("ON CONFLICT(id) DO UPDATE SET " + strings.Join(sets, ", "))
	sqlStr, args, _ := q.ToSql()
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("upsert catalog item %s: %w", it.ID, err)
	}
	return nil
}

// Search matches term against original and translated text and the creator,
// most subscribed first.
func (r *CatalogRepo) Search(ctx context.Context, term string, limit int) ([]*domain.CatalogItem, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.SQ.Select(catalogColumns...).From("catalog_items")
	if term = strings.TrimSpace(term); term != "" {
		pat := "%" + escapeLike(term) + "%"
		or := sq.Or{}
		for _, c := range []string{"title", "description", "creator", "translated_title", "translated_description"} {
			or = append(or, sq.Expr(c+` LIKE ? ESCAPE '\'`, pat))
		}
		q = q.Where(or)
	}
	q = q.OrderBy("subscriptions DESC", "id").Limit(uint64(limit))
	return r.query(ctx, q)
}

// ListByLanguage returns items whose language differs from exclude,
// optionally restricted to a single language.
func (r *CatalogRepo) ListByLanguage(ctx context.Context, exclude, only string) ([]*domain.CatalogItem, error) {
	q := r.SQ.Select(catalogColumns...).From("catalog_items").Where(sq.NotEq{"language": exclude})
	if only != "" {
		q = q.Where(sq.Eq{"language": only})
	}
	return r.query(ctx, q.OrderBy("id"))
}

func (r *CatalogRepo) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	return r.query(ctx, r.SQ.Select(catalogColumns...).From("catalog_items").OrderBy("id"))
}

// Statistics counts items, translated items, items per language ("unknown"
// when undetected) and items updated remotely since recentSince.
func (r *CatalogRepo) Statistics(ctx context.Context, recentSince time.Time) (domain.Statistics, error) {
	st := domain.Statistics{LanguageBreakdown: map[string]int{}}
	q := r.SQ.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN translated_title IS NOT NULL AND translated_title != '' THEN 1 ELSE 0 END), 0)",
	).
		Column(sq.Expr("COALESCE(SUM(CASE WHEN updated_at >= ? THEN 1 ELSE 0 END), 0)", toMillis(recentSince))).
		From("catalog_items")
	sqlStr, args, _ := q.ToSql()
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&st.TotalItems, &st.TranslatedItems, &st.RecentUpdateCount); err != nil {
		return st, fmt.Errorf("catalog totals: %w", err)
	}

	lq := r.SQ.Select("language", "COUNT(*)").From("catalog_items").GroupBy("language")
	sqlStr, args, _ = lq.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return st, fmt.Errorf("language breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return st, err
		}
		if lang == "" {
			lang = "unknown"
		}
		st.LanguageBreakdown[lang] += n
	}
	return st, rows.Err()
}

func (r *CatalogRepo) query(ctx context.Context, q sq.SelectBuilder) ([]*domain.CatalogItem, error) {
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()
	var out []*domain.CatalogItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
