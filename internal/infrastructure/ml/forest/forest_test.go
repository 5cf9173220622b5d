package forest

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func separableData() ([][]float64, []int) {
	var x [][]float64
	var y []int
	for i := 0; i < 10; i++ {
		jitter := float64(i) / 100
		x = append(x, []float64{0, 0.8 + jitter, 0}, []float64{0.7 + jitter, 0, 0}, []float64{0, 0, 0.9 - jitter})
		y = append(y, 0, 1, 2)
	}
	return x, y
}

func TestFitPredictsSeparableClasses(t *testing.T) {
	x, y := separableData()
	f, err := Fit(x, y, 3, DefaultConfig())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	for i := range x {
		got, probs := f.Predict(x[i])
		if got != y[i] {
			t.Fatalf("row %d predicted %d, want %d (probs %v)", i, got, y[i], probs)
		}
		if probs[got] <= 0.5 {
			t.Fatalf("row %d confidence %v", i, probs[got])
		}
	}
}

func TestPredictProbabilitiesFormDistribution(t *testing.T) {
	x, y := separableData()
	f, err := Fit(x, y, 3, DefaultConfig())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	for _, in := range [][]float64{{0, 0, 0}, {0.5, 0.5, 0.5}, {1}, nil} {
		idx, probs := f.Predict(in)
		if len(probs) != 3 {
			t.Fatalf("len(probs) = %d", len(probs))
		}
		var sum float64
		for _, p := range probs {
			if p < 0 || p > 1 {
				t.Fatalf("probability out of range: %v", probs)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Fatalf("probabilities sum to %v", sum)
		}
		if idx != argmax(probs) {
			t.Fatalf("index %d is not argmax of %v", idx, probs)
		}
	}
}

func TestFitIsDeterministic(t *testing.T) {
	x, y := separableData()
	a, err := Fit(x, y, 3, DefaultConfig())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	b, err := Fit(x, y, 3, DefaultConfig())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !reflect.DeepEqual(a.State(), b.State()) {
		t.Fatalf("two fits with the same seed differ")
	}
}

func TestArgmaxTiesGoToLowestIndex(t *testing.T) {
	if got := argmax([]float64{0.25, 0.375, 0.375}); got != 1 {
		t.Fatalf("argmax = %d, want 1", got)
	}
	if got := argmax([]float64{0.5, 0.5}); got != 0 {
		t.Fatalf("argmax = %d, want 0", got)
	}
}

func TestMinSamplesSplitProducesSingleLeaf(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumTrees = 1
	f, err := Fit([][]float64{{0}, {1}, {0}, {1}}, []int{0, 1, 0, 1}, 2, cfg)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if n := len(f.State().Trees[0].Nodes); n != 1 {
		t.Fatalf("expected a single leaf below min_samples_split, got %d nodes", n)
	}
}

func TestStateRoundTrip(t *testing.T) {
	x, y := separableData()
	f, err := Fit(x, y, 3, DefaultConfig())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	raw, err := json.Marshal(f.State())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored, err := FromState(state)
	if err != nil {
		t.Fatalf("FromState() error = %v", err)
	}
	for i := range x {
		i1, p1 := f.Predict(x[i])
		i2, p2 := restored.Predict(x[i])
		if i1 != i2 || !reflect.DeepEqual(p1, p2) {
			t.Fatalf("row %d: %d %v vs %d %v", i, i1, p1, i2, p2)
		}
	}
}

func TestFromStateRejectsCorruptTrees(t *testing.T) {
	leaf := Node{Feature: leafFeature, Value: []float64{1, 0}}
	cases := map[string]State{
		"no trees":   {Config: DefaultConfig(), NumClasses: 2},
		"cycle":      {Config: DefaultConfig(), NumClasses: 2, Trees: []Tree{{Nodes: []Node{{Feature: 0, Left: 0, Right: 1}, leaf}}}},
		"dangling":   {Config: DefaultConfig(), NumClasses: 2, Trees: []Tree{{Nodes: []Node{{Feature: 0, Left: 1, Right: 5}, leaf}}}},
		"leaf width": {Config: DefaultConfig(), NumClasses: 3, Trees: []Tree{{Nodes: []Node{leaf}}}},
		"bad prob":   {Config: DefaultConfig(), NumClasses: 2, Trees: []Tree{{Nodes: []Node{{Feature: leafFeature, Value: []float64{2, -1}}}}}},
	}
	for name, state := range cases {
		if _, err := FromState(state); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	if _, err := Fit(nil, nil, 2, DefaultConfig()); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := Fit([][]float64{{1}}, []int{0, 1}, 2, DefaultConfig()); err == nil {
		t.Fatalf("expected error for label mismatch")
	}
	if _, err := Fit([][]float64{{1}}, []int{3}, 2, DefaultConfig()); err == nil {
		t.Fatalf("expected error for out-of-range label")
	}
}
