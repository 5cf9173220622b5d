package tfidf

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Config is the fit-time configuration. It is recorded with the fitted
// vectorizer so Transform reproduces the same analysis.
type Config struct {
	NGramMin    int     `json:"ngram_min"`
	NGramMax    int     `json:"ngram_max"`
	MaxFeatures int     `json:"max_features"`
	MinDF       int     `json:"min_df"`
	MaxDF       float64 `json:"max_df"`
	StopWords   bool    `json:"stop_words"`
}

func DefaultConfig() Config {
	return Config{
		NGramMin:    1,
		NGramMax:    2,
		MaxFeatures: 5000,
		MinDF:       1,
		MaxDF:       0.95,
		StopWords:   true,
	}
}

var ErrEmptyVocabulary = errors.New("empty vocabulary: every term was filtered out")

// Vectorizer maps token sequences to L2-normalized TF-IDF vectors over a
// fixed, alphabetically ordered vocabulary. It is immutable after Fit.
type Vectorizer struct {
	cfg   Config
	terms []string
	idf   []float64
	index map[string]int
}

// Fit learns the vocabulary and inverse document frequencies from docs, each
// given as a token sequence.
func Fit(docs [][]string, cfg Config) (*Vectorizer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.New("fit tfidf: no documents")
	}

	n := len(docs)
	df := make(map[string]int)
	total := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range cfg.analyze(doc) {
			total[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	maxDocCount := cfg.MaxDF * float64(n)
	kept := make([]string, 0, len(df))
	for term, count := range df {
		if count < cfg.MinDF || float64(count) > maxDocCount {
			continue
		}
		kept = append(kept, term)
	}
	if len(kept) == 0 {
		return nil, ErrEmptyVocabulary
	}

	if cfg.MaxFeatures > 0 && len(kept) > cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if total[kept[i]] != total[kept[j]] {
				return total[kept[i]] > total[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:cfg.MaxFeatures]
	}
	sort.Strings(kept)

	idf := make([]float64, len(kept))
	for i, term := range kept {
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
	return newVectorizer(cfg, kept, idf), nil
}

func newVectorizer(cfg Config, terms []string, idf []float64) *Vectorizer {
	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}
	return &Vectorizer{cfg: cfg, terms: terms, idf: idf, index: index}
}

// Transform returns a vector of length Dimension. Terms outside the
// vocabulary contribute nothing; an input with no known terms yields the
// zero vector.
func (v *Vectorizer) Transform(tokens []string) []float64 {
	out := make([]float64, len(v.terms))
	for _, term := range v.cfg.analyze(tokens) {
		if i, ok := v.index[term]; ok {
			out[i]++
		}
	}
	var norm float64
	for i := range out {
		if out[i] == 0 {
			continue
		}
		out[i] *= v.idf[i]
		norm += out[i] * out[i]
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}

func (v *Vectorizer) Dimension() int {
	return len(v.terms)
}

// Vocabulary returns a copy of the ordered feature names.
func (v *Vectorizer) Vocabulary() []string {
	return append([]string(nil), v.terms...)
}

// Fingerprint identifies the fitted state. A classifier records it so a
// mismatched pair can be detected on load.
func (v *Vectorizer) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for i, term := range v.terms {
		h.Write([]byte(term))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.idf[i]))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// analyze drops stop words and one-character tokens, then emits n-grams
// joined by a single space.
func (c Config) analyze(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) < 2 {
			continue
		}
		if c.StopWords && isStopWord(tok) {
			continue
		}
		filtered = append(filtered, tok)
	}

	out := make([]string, 0, len(filtered)*(c.NGramMax-c.NGramMin+1))
	for size := c.NGramMin; size <= c.NGramMax; size++ {
		for i := 0; i+size <= len(filtered); i++ {
			if size == 1 {
				out = append(out, filtered[i])
				continue
			}
			out = append(out, strings.Join(filtered[i:i+size], " "))
		}
	}
	return out
}

func (c Config) validate() error {
	switch {
	case c.NGramMin < 1 || c.NGramMax < c.NGramMin:
		return fmt.Errorf("invalid ngram range [%d,%d]", c.NGramMin, c.NGramMax)
	case c.MaxDF <= 0 || c.MaxDF > 1:
		return fmt.Errorf("invalid max_df %v", c.MaxDF)
	case c.MinDF < 1:
		return fmt.Errorf("invalid min_df %d", c.MinDF)
	case c.MaxFeatures < 0:
		return fmt.Errorf("invalid max_features %d", c.MaxFeatures)
	}
	return nil
}
