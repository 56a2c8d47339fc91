package csv

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"modmanager/internal/domain"
)

type Exporter struct {
	Comma rune
}

func New() *Exporter { return &Exporter{Comma: ','} }

// WithSeparator picks the field separator by name: comma, semicolon or tab.
func WithSeparator(name string) *Exporter {
	e := New()
	switch strings.TrimSpace(strings.ToLower(name)) {
	case "semicolon":
		e.Comma = ';'
	case "tab":
		e.Comma = '\t'
	}
	return e
}

func (e *Exporter) Format() string { return "csv" }

var header = []string{
	"id", "title", "translated_title", "language", "creator", "rating",
	"subscriptions", "tags", "updated_at", "last_translated_at",
}

func (e *Exporter) Export(items []*domain.CatalogItem) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if e.Comma != 0 {
		w.Comma = e.Comma
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, it := range items {
		var translated, translatedAt string
		if it.Translation != nil {
			translated = it.Translation.TranslatedTitle
			translatedAt = stamp(it.Translation.LastTranslatedAt)
		}
		row := []string{
			it.ID, it.Title, translated, it.Language, it.Creator,
			strconv.FormatFloat(it.Rating, 'f', 2, 64),
			strconv.FormatInt(it.Subscriptions, 10),
			strings.Join(it.Tags, "|"),
			stamp(it.UpdatedAt), translatedAt,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
