package forest

import "sort"

const leafFeature = -1

// Node is one entry of a flattened decision tree. Leaves have Feature -1
// and carry the normalized class distribution of their training samples.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

// Tree is a CART tree stored as a node slice with the root at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature == leafFeature {
			return n.Value
		}
		if featureAt(x, n.Feature) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func featureAt(x []float64, f int) float64 {
	if f < 0 || f >= len(x) {
		return 0
	}
	return x[f]
}

type treeBuilder struct {
	cfg        Config
	x          [][]float64
	y          []int
	numClasses int
	features   func(numFeatures int) []int
	nodes      []Node
}

func (b *treeBuilder) build(samples []int) Tree {
	b.nodes = b.nodes[:0]
	b.grow(samples, 0)
	return Tree{Nodes: append([]Node(nil), b.nodes...)}
}

func (b *treeBuilder) grow(samples []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leafFeature})

	counts := b.classCounts(samples)
	if depth >= b.cfg.MaxDepth || len(samples) < b.cfg.MinSamplesSplit || pure(counts) {
		b.nodes[idx].Value = distribution(counts, len(samples))
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples, counts)
	if !ok {
		b.nodes[idx].Value = distribution(counts, len(samples))
		return idx
	}

	left := make([]int, 0, len(samples))
	right := make([]int, 0, len(samples))
	for _, s := range samples {
		if featureAt(b.x[s], feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit scans candidate features in order and keeps the first split
// with the lowest weighted gini impurity. Thresholds are midpoints between
// consecutive distinct values; both children must hold MinSamplesLeaf.
func (b *treeBuilder) bestSplit(samples []int, parentCounts []int) (int, float64, bool) {
	n := len(samples)
	parent := gini(parentCounts, n)
	bestScore := parent
	bestFeature, bestThreshold, found := 0, 0.0, false

	order := make([]int, n)
	leftCounts := make([]int, b.numClasses)
	rightCounts := make([]int, b.numClasses)

	for _, f := range b.features(len(b.x[samples[0]])) {
		copy(order, samples)
		sort.SliceStable(order, func(i, j int) bool {
			return featureAt(b.x[order[i]], f) < featureAt(b.x[order[j]], f)
		})
		if featureAt(b.x[order[0]], f) == featureAt(b.x[order[n-1]], f) {
			continue
		}

		for c := range leftCounts {
			leftCounts[c] = 0
		}
		copy(rightCounts, parentCounts)

		for i := 0; i < n-1; i++ {
			cls := b.y[order[i]]
			leftCounts[cls]++
			rightCounts[cls]--

			cur := featureAt(b.x[order[i]], f)
			next := featureAt(b.x[order[i+1]], f)
			if cur == next {
				continue
			}
			nl, nr := i+1, n-i-1
			if nl < b.cfg.MinSamplesLeaf || nr < b.cfg.MinSamplesLeaf {
				continue
			}
			score := (float64(nl)*gini(leftCounts, nl) + float64(nr)*gini(rightCounts, nr)) / float64(n)
			if score < bestScore-minImprovement {
				bestScore = score
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func (b *treeBuilder) classCounts(samples []int) []int {
	counts := make([]int, b.numClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		impurity -= p * p
	}
	return impurity
}

func pure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func distribution(counts []int, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(n)
	}
	return out
}
