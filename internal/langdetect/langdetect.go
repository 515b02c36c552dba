// Package langdetect guesses the language of a transcript for logging.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Languages most often seen in short-form beauty content. Restricting the set
// keeps the detector's memory footprint small.
var languages = []lingua.Language{
	lingua.Arabic,
	lingua.Chinese,
	lingua.Dutch,
	lingua.English,
	lingua.French,
	lingua.German,
	lingua.Hindi,
	lingua.Indonesian,
	lingua.Italian,
	lingua.Japanese,
	lingua.Korean,
	lingua.Polish,
	lingua.Portuguese,
	lingua.Russian,
	lingua.Spanish,
	lingua.Turkish,
	lingua.Vietnamese,
}

type Detector struct {
	detector lingua.LanguageDetector
}

// New returns a detector. A disabled detector reports nothing.
func New(enabled bool) *Detector {
	if !enabled {
		return &Detector{}
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			WithLowAccuracyMode().
			Build(),
	}
}

func (d *Detector) Enabled() bool {
	return d != nil && d.detector != nil
}

// Detect returns the language name, e.g. "English".
func (d *Detector) Detect(text string) (string, bool) {
	if !d.Enabled() || strings.TrimSpace(text) == "" {
		return "", false
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return language.String(), true
}
