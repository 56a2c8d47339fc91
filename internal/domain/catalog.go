package domain

import (
	"fmt"
	"time"
)

// CatalogItem is a workshop item mirrored from the remote catalog.
type CatalogItem struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	Creator       string             `json:"creator"`
	Rating        float64            `json:"rating"`
	Subscriptions int64              `json:"subscriptions"`
	Tags          []string           `json:"tags"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	Language      string             `json:"language"` // "" when detection was inconclusive
	Translation   *TranslationRecord `json:"translation,omitempty"`
	SyncedAt      time.Time          `json:"synced_at"`
}

// TranslationRecord keeps the remote text next to its translation so the
// original is never lost when the displayed fields are swapped.
type TranslationRecord struct {
	OriginalTitle         string    `json:"original_title"`
	OriginalDescription   string    `json:"original_description"`
	TranslatedTitle       string    `json:"translated_title"`
	TranslatedDescription string    `json:"translated_description"`
	TargetLanguage        string    `json:"target_language"`
	LastTranslatedAt      time.Time `json:"last_translated_at"`
}

func (t *TranslationRecord) Validate() error {
	if t == nil {
		return nil
	}
	if t.TranslatedTitle != "" && t.OriginalTitle == "" {
		return fmt.Errorf("%w: translated title without original", ErrInvalidRecord)
	}
	return nil
}

// Validate checks the item before it is written to the catalog store.
func (c *CatalogItem) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	return c.Translation.Validate()
}

// Translated reports whether the item carries a usable translation.
func (c *CatalogItem) Translated() bool {
	return c.Translation != nil && c.Translation.TranslatedTitle != ""
}

// Localized returns a copy whose title and description show the translated
// text when present. The originals stay available under Translation.
func (c CatalogItem) Localized() CatalogItem {
	if c.Translation == nil {
		return c
	}
	tr := *c.Translation
	c.Translation = &tr
	if tr.TranslatedTitle != "" {
		c.Title = tr.TranslatedTitle
	}
	if tr.TranslatedDescription != "" {
		c.Description = tr.TranslatedDescription
	}
	return c
}

// Original returns a copy with no translation attached. Title and
// Description are always stored as the latest remote text; the originals
// inside Translation describe what was translated and may be older.
func (c CatalogItem) Original() CatalogItem {
	c.Translation = nil
	return c
}
