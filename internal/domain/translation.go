package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// AutoLanguage is stored in place of an unspecified source language.
const AutoLanguage = "auto"

// CacheKey identifies a translation: the same text translated between the
// same pair of languages always maps to one key.
type CacheKey struct {
	Text       string
	SourceLang string
	TargetLang string
}

func NewCacheKey(text, sourceLang, targetLang string) CacheKey {
	src := strings.ToLower(strings.TrimSpace(sourceLang))
	if src == "" {
		src = AutoLanguage
	}
	return CacheKey{Text: text, SourceLang: src, TargetLang: strings.ToLower(strings.TrimSpace(targetLang))}
}

// TextHash is the hex sha256 of the source text.
func (k CacheKey) TextHash() string {
	sum := sha256.Sum256([]byte(k.Text))
	return hex.EncodeToString(sum[:])
}

// SourceParam is the source language to send to a backend: "" for auto.
func (k CacheKey) SourceParam() string {
	if k.SourceLang == AutoLanguage {
		return ""
	}
	return k.SourceLang
}

// String renders a compact key suitable for in-memory maps.
func (k CacheKey) String() string {
	return k.SourceLang + ":" + k.TargetLang + ":" + k.TextHash()
}

type TranslationCacheEntry struct {
	Key              CacheKey  `json:"-"`
	TranslatedText   string    `json:"translated_text"`
	DetectedLanguage string    `json:"detected_language,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// Translation is a single translated text as returned to callers.
type Translation struct {
	Text             string `json:"text"`
	DetectedLanguage string `json:"detected_language,omitempty"`
}
