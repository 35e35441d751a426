// Package language detects the language of article text.
package language

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"

	"news_ingest/internal/domain"
)

// Detector returns an ISO 639-1 code for text, or domain.LanguageUnknown.
type Detector interface {
	Detect(text string) string
}

// Lingua wraps a lingua-go detector.
type Lingua struct {
	detector  lingua.LanguageDetector
	minLength int
}

// NewLingua builds a detector restricted to codes (ISO 639-1, any case).
// An empty codes list loads every language lingua knows about.
func NewLingua(codes []string, minLength int) (*Lingua, error) {
	builder := lingua.NewLanguageDetectorBuilder()
	if len(codes) == 0 {
		builder = builder.FromAllLanguages()
	} else {
		langs, err := resolve(codes)
		if err != nil {
			return nil, err
		}
		builder = builder.FromLanguages(langs...)
	}

	return &Lingua{
		detector:  builder.WithMinimumRelativeDistance(0.1).Build(),
		minLength: minLength,
	}, nil
}

func (l *Lingua) Detect(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < l.minLength {
		return domain.LanguageUnknown
	}

	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return domain.LanguageUnknown
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

func resolve(codes []string) ([]lingua.Language, error) {
	byCode := make(map[string]lingua.Language)
	for _, lang := range lingua.AllLanguages() {
		byCode[strings.ToLower(lang.IsoCode639_1().String())] = lang
	}

	langs := make([]lingua.Language, 0, len(codes))
	for _, code := range codes {
		lang, ok := byCode[strings.ToLower(strings.TrimSpace(code))]
		if !ok {
			return nil, fmt.Errorf("unsupported language code %q", code)
		}
		langs = append(langs, lang)
	}
	// lingua needs at least two candidates to compare.
	if len(langs) < 2 {
		return nil, fmt.Errorf("need at least two languages, got %d", len(langs))
	}
	return langs, nil
}

// Fixed always answers with the same code. It serves sources whose language
// is configured and tests that do not care about detection.
type Fixed string

func (f Fixed) Detect(string) string { return string(f) }
