package ports

import (
	"context"

	"modmanager/internal/domain"
)

type TranslateRequest struct {
	Texts      []string
	SourceLang string // "" lets the backend detect it
	TargetLang string
}

// TranslationBackend is a remote machine-translation service. Translate
// returns one result per input text, in order. Failures are reported as
// *domain.TranslationError.
type TranslationBackend interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) ([]domain.Translation, error)
}

// LanguageDetector guesses the language of a text; "" means unknown.
type LanguageDetector interface {
	Detect(text string) string
}
