// internal/domain/review/composer.go
package review

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"review_reminder/internal/domain/random"
)

// Placeholder is the marker each template carries exactly once.
const Placeholder = "{descriptors}"

// ErrInvalidConfiguration is returned when the template pool is empty or a
// template does not carry exactly one placeholder.
var ErrInvalidConfiguration = errors.New("invalid review template configuration")

// DefaultTemplates is the built-in German template pool.
func DefaultTemplates() []string {
	return []string{
		"{descriptors}. Ich komme gerne wieder!",
		"{descriptors}. Klare Empfehlung!",
		"Insgesamt {descriptors}, sehr empfehlenswert.",
		"Ich war rundum zufrieden: {descriptors}.",
		"Was mir besonders gefallen hat: {descriptors}.",
		"Sehr gute Erfahrung, {descriptors}. Vielen Dank!",
	}
}

// Composer turns a selection of phrases into one review sentence.
type Composer struct {
	rnd random.Source
}

// NewComposer returns a Composer drawing template picks from rnd, or from the
// global generator when rnd is nil.
func NewComposer(rnd random.Source) *Composer {
	if rnd == nil {
		rnd = random.Global()
	}
	return &Composer{rnd: rnd}
}

// Compose joins phrases and substitutes them into a randomly chosen template.
// No phrases yield an empty string.
func (c *Composer) Compose(phrases []string, templates []string) (string, error) {
	if err := ValidateTemplates(templates); err != nil {
		return "", err
	}
	if len(phrases) == 0 {
		return "", nil
	}

	joined := JoinPhrases(phrases)
	idx := int(math.Floor(c.rnd.Float64() * float64(len(templates))))
	tmpl := templates[min(max(idx, 0), len(templates)-1)]

	if strings.Index(tmpl, Placeholder) == 0 {
		joined = capitalize(joined)
	}
	return strings.Replace(tmpl, Placeholder, joined, 1), nil
}

// ValidateTemplates checks the pool is non-empty and every template has exactly one placeholder.
func ValidateTemplates(templates []string) error {
	if len(templates) == 0 {
		return fmt.Errorf("%w: template pool is empty", ErrInvalidConfiguration)
	}
	for i, t := range templates {
		if n := strings.Count(t, Placeholder); n != 1 {
			return fmt.Errorf("%w: template %d has %d placeholders", ErrInvalidConfiguration, i, n)
		}
	}
	return nil
}

// JoinPhrases joins with ", " and a final " und " without an Oxford comma.
func JoinPhrases(phrases []string) string {
	switch len(phrases) {
	case 0:
		return ""
	case 1:
		return phrases[0]
	}
	last := len(phrases) - 1
	return strings.Join(phrases[:last], ", ") + " und " + phrases[last]
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
