package tfidf

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// State is the serialized form of a fitted Vectorizer.
type State struct {
	Config Config    `json:"config"`
	Terms  []string  `json:"terms"`
	IDF    []float64 `json:"idf"`
}

func (v *Vectorizer) State() State {
	return State{
		Config: v.cfg,
		Terms:  append([]string(nil), v.terms...),
		IDF:    append([]float64(nil), v.idf...),
	}
}

func (v *Vectorizer) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.State())
}

// FromState rebuilds a Vectorizer and rejects states that could not have
// been produced by Fit.
func FromState(s State) (*Vectorizer, error) {
	if err := s.Config.validate(); err != nil {
		return nil, err
	}
	if len(s.Terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	if len(s.Terms) != len(s.IDF) {
		return nil, fmt.Errorf("vocabulary has %d terms but %d idf weights", len(s.Terms), len(s.IDF))
	}
	if !sort.StringsAreSorted(s.Terms) {
		return nil, fmt.Errorf("vocabulary is not sorted")
	}
	for i := 1; i < len(s.Terms); i++ {
		if s.Terms[i] == s.Terms[i-1] {
			return nil, fmt.Errorf("duplicate term %q", s.Terms[i])
		}
	}
	for i, w := range s.IDF {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 1 {
			return nil, fmt.Errorf("invalid idf weight %v for term %q", w, s.Terms[i])
		}
	}
	return newVectorizer(s.Config, append([]string(nil), s.Terms...), append([]float64(nil), s.IDF...)), nil
}
