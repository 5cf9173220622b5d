package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

const minImprovement = 1e-12

type Config struct {
	NumTrees        int   `json:"num_trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`
	// MaxFeatures is the number of features sampled per split; 0 means all
	// features in index order.
	MaxFeatures int `json:"max_features"`
}

func DefaultConfig() Config {
	return Config{
		NumTrees:        100,
		MaxDepth:        20,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

func (c Config) validate() error {
	switch {
	case c.NumTrees < 1:
		return fmt.Errorf("invalid num_trees %d", c.NumTrees)
	case c.MaxDepth < 1:
		return fmt.Errorf("invalid max_depth %d", c.MaxDepth)
	case c.MinSamplesSplit < 2:
		return fmt.Errorf("invalid min_samples_split %d", c.MinSamplesSplit)
	case c.MinSamplesLeaf < 1:
		return fmt.Errorf("invalid min_samples_leaf %d", c.MinSamplesLeaf)
	case c.MaxFeatures < 0:
		return fmt.Errorf("invalid max_features %d", c.MaxFeatures)
	}
	return nil
}

// Forest is a bagged ensemble of gini decision trees. It is read-only after
// Fit and safe for concurrent Predict calls.
type Forest struct {
	cfg        Config
	numClasses int
	numFeature int
	trees      []Tree
}

// Fit trains the forest on rows x with labels y in [0, numClasses). The same
// inputs and Config always yield the same forest.
func Fit(x [][]float64, y []int, numClasses int, cfg Config) (*Forest, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, errors.New("fit forest: no samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit forest: %d rows but %d labels", len(x), len(y))
	}
	if numClasses < 1 {
		return nil, fmt.Errorf("fit forest: invalid class count %d", numClasses)
	}
	width := len(x[0])
	for i := range x {
		if len(x[i]) != width {
			return nil, fmt.Errorf("fit forest: row %d has %d features, want %d", i, len(x[i]), width)
		}
		if y[i] < 0 || y[i] >= numClasses {
			return nil, fmt.Errorf("fit forest: label %d out of range", y[i])
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	builder := &treeBuilder{
		cfg:        cfg,
		x:          x,
		y:          y,
		numClasses: numClasses,
		features:   featureSampler(cfg.MaxFeatures, rng),
	}

	trees := make([]Tree, 0, cfg.NumTrees)
	sample := make([]int, len(x))
	for t := 0; t < cfg.NumTrees; t++ {
		for i := range sample {
			sample[i] = rng.Intn(len(x))
		}
		trees = append(trees, builder.build(sample))
	}
	return &Forest{cfg: cfg, numClasses: numClasses, numFeature: width, trees: trees}, nil
}

func featureSampler(maxFeatures int, rng *rand.Rand) func(int) []int {
	return func(numFeatures int) []int {
		if maxFeatures == 0 || maxFeatures >= numFeatures {
			all := make([]int, numFeatures)
			for i := range all {
				all[i] = i
			}
			return all
		}
		return rng.Perm(numFeatures)[:maxFeatures]
	}
}

// Predict averages the per-tree leaf distributions. The returned index is
// the argmax with ties going to the lowest index.
func (f *Forest) Predict(x []float64) (int, []float64) {
	probs := make([]float64, f.numClasses)
	for i := range f.trees {
		for c, p := range f.trees[i].leaf(x) {
			probs[c] += p
		}
	}
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if sum > 0 {
		for c := range probs {
			probs[c] /= sum
		}
	} else {
		for c := range probs {
			probs[c] = 1 / float64(f.numClasses)
		}
	}
	return argmax(probs), probs
}

func (f *Forest) NumClasses() int {
	return f.numClasses
}

func (f *Forest) NumFeatures() int {
	return f.numFeature
}

func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// State is the serialized form of a fitted Forest.
type State struct {
	Config      Config `json:"config"`
	NumClasses  int    `json:"num_classes"`
	NumFeatures int    `json:"num_features"`
	Trees       []Tree `json:"trees"`
}

func (f *Forest) State() State {
	return State{Config: f.cfg, NumClasses: f.numClasses, NumFeatures: f.numFeature, Trees: f.trees}
}

// FromState validates every tree so Predict can never index out of range or
// loop on a corrupt artifact.
func FromState(s State) (*Forest, error) {
	if err := s.Config.validate(); err != nil {
		return nil, err
	}
	if s.NumClasses < 1 {
		return nil, fmt.Errorf("invalid class count %d", s.NumClasses)
	}
	if len(s.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}
	for t, tree := range s.Trees {
		if err := validateTree(tree, s.NumClasses); err != nil {
			return nil, fmt.Errorf("tree %d: %w", t, err)
		}
	}
	return &Forest{cfg: s.Config, numClasses: s.NumClasses, numFeature: s.NumFeatures, trees: s.Trees}, nil
}

func validateTree(tree Tree, numClasses int) error {
	n := len(tree.Nodes)
	if n == 0 {
		return errors.New("empty tree")
	}
	for i, node := range tree.Nodes {
		if node.Feature == leafFeature {
			if len(node.Value) != numClasses {
				return fmt.Errorf("leaf %d has %d classes, want %d", i, len(node.Value), numClasses)
			}
			for _, p := range node.Value {
				if math.IsNaN(p) || p < 0 || p > 1 {
					return fmt.Errorf("leaf %d has invalid probability %v", i, p)
				}
			}
			continue
		}
		if node.Feature < 0 {
			return fmt.Errorf("node %d has invalid feature %d", i, node.Feature)
		}
		// Children always follow their parent, which rules out cycles.
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, node.Left, node.Right)
		}
		if math.IsNaN(node.Threshold) {
			return fmt.Errorf("node %d has NaN threshold", i)
		}
	}
	return nil
}
