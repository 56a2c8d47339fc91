// Package langdetect guesses the language of catalog text offline.
package langdetect

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

var markupRE = regexp.MustCompile(`\[/?[a-zA-Z][a-zA-Z0-9]*(?:=[^\]]*)?\]|https?://\S+`)

// Detector answers with an ISO 639-1 code, or "" when the text is too
// short or ambiguous to call.
type Detector struct {
	// MinConfidence below which latin-script guesses are discarded.
	MinConfidence float64
}

func New() *Detector { return &Detector{MinConfidence: 0.5} }

func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(markupRE.ReplaceAllString(text, " "))
	if text == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if info.Script == nil {
		return ""
	}
	// Han, kana and hangul identify the language on their own.
	if info.Script != unicode.Latin && info.Script != unicode.Cyrillic && info.Script != unicode.Arabic {
		return normalize(info.Lang.Iso6391())
	}
	if !info.IsReliable() && info.Confidence < d.MinConfidence {
		return ""
	}
	return normalize(info.Lang.Iso6391())
}

func normalize(code string) string {
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.String()
}
