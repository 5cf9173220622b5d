package textproc

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/kljensen/snowball/english"

	"github.com/kirillkom/docclass/internal/core/domain"
)

const minTokenLen = 3

var errInvalidUTF8 = errors.New("input is not valid utf-8")

// Normalizer converts extracted text into the token stream consumed by the
// feature model: lowercase, ASCII letters only, stopwords and short tokens
// dropped, Snowball English stems. Order and duplicates are preserved.
type Normalizer struct {
	logger *slog.Logger
	stem   func(string) string
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		logger: logger,
		stem: func(token string) string {
			return english.Stem(token, true)
		},
	}
}

// Normalize never fails. When any step cannot complete, the result carries
// the lowercased, whitespace-collapsed input with Fallback set.
func (n *Normalizer) Normalize(text string) domain.NormalizedText {
	tokens, err := n.normalize(text)
	if err != nil {
		n.logger.Warn("normalization_fallback", "error", err, "input_chars", len(text))
		return domain.NormalizedText{
			Tokens:         strings.Fields(strings.ToLower(strings.ToValidUTF8(text, " "))),
			Fallback:       true,
			FallbackReason: err.Error(),
		}
	}
	return domain.NormalizedText{Tokens: tokens}
}

func (n *Normalizer) normalize(text string) (tokens []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens = nil
			err = fmt.Errorf("normalizer panic: %v", r)
		}
	}()

	if !utf8.ValidString(text) {
		return nil, errInvalidUTF8
	}

	cleaned := collapseSpaces(keepLettersAndSpaces(strings.ToLower(text)))

	out := make([]string, 0, 64)
	for _, token := range tokenize(cleaned) {
		if len(token) < minTokenLen || IsStopword(token) {
			continue
		}
		out = append(out, n.stem(token))
	}
	return out, nil
}

// keepLettersAndSpaces removes every rune that is neither an ASCII letter nor
// whitespace. Removed runes are not replaced, so "e-mail" becomes "email".
func keepLettersAndSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// tokenize splits on Unicode (UAX #29) word boundaries and drops the
// whitespace segments between words.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, strings.Count(s, " ")+1)
	segments := words.FromString(s)
	for segments.Next() {
		seg := segments.Value()
		if strings.TrimSpace(seg) == "" {
			continue
		}
		out = append(out, seg)
	}
	return out
}
