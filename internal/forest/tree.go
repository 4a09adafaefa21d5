package forest

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
)

// Errors returned by Fit.
var (
	// ErrEmptyInput is returned when there are no samples to fit.
	ErrEmptyInput = errors.New("forest: empty training set")

	// ErrShapeMismatch is returned when X, y and weights disagree in length
	// or rows have different widths.
	ErrShapeMismatch = errors.New("forest: inconsistent input shape")
)

// treeParams are the hyperparameters shared by every tree in a forest.
type treeParams struct {
	maxDepth       int // 0 means unlimited
	minSamplesLeaf int
	maxFeatures    int // 0 means all features
	nClasses       int
}

// node is a tree node. Leaves have nil children.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	probas    []float64
}

func (n *node) isLeaf() bool {
	return n.left == nil
}

// tree is a single fitted CART classifier.
type tree struct {
	root *node
}

// fitTree grows a tree on the given sample indices. idx may contain
// duplicates, which is how bootstrap samples are represented.
func fitTree(X [][]float64, y []int, w []float64, idx []int, p treeParams, rnd *rand.Rand) *tree {
	b := &builder{X: X, y: y, w: w, p: p, rnd: rnd, nFeatures: len(X[0])}
	return &tree{root: b.grow(idx, 0)}
}

// predictProba walks the tree for one sample.
func (t *tree) predictProba(x []float64) []float64 {
	n := t.root
	for !n.isLeaf() {
		v := x[n.feature]
		if math.IsNaN(v) || v <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.probas
}

type builder struct {
	X         [][]float64
	y         []int
	w         []float64
	p         treeParams
	rnd       *rand.Rand
	nFeatures int
}

func (b *builder) grow(idx []int, depth int) *node {
	counts := b.weightedCounts(idx)
	leaf := &node{probas: normalize(counts)}

	if isPure(counts) || len(idx) < 2*b.p.minSamplesLeaf {
		return leaf
	}
	if b.p.maxDepth > 0 && depth >= b.p.maxDepth {
		return leaf
	}

	best, ok := b.bestSplit(idx, gini(counts))
	if !ok {
		return leaf
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		v := b.X[i][best.feature]
		if math.IsNaN(v) || v <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   best.feature,
		threshold: best.threshold,
		left:      b.grow(left, depth+1),
		right:     b.grow(right, depth+1),
	}
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// bestSplit scans candidate features for the threshold with the largest
// weighted impurity decrease.
func (b *builder) bestSplit(idx []int, parentImpurity float64) (split, bool) {
	features := b.candidateFeatures()
	total := sum(b.weightedCounts(idx))
	if total <= 0 {
		return split{}, false
	}

	best := split{gain: 1e-12}
	found := false
	sorted := make([]int, len(idx))

	for _, f := range features {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return less(b.X[sorted[a]][f], b.X[sorted[c]][f])
		})

		leftCounts := make([]float64, b.p.nClasses)
		rightCounts := b.weightedCounts(sorted)

		for s := 1; s < len(sorted); s++ {
			prev := sorted[s-1]
			leftCounts[b.y[prev]] += b.w[prev]
			rightCounts[b.y[prev]] -= b.w[prev]

			if s < b.p.minSamplesLeaf || len(sorted)-s < b.p.minSamplesLeaf {
				continue
			}
			lv, rv := b.X[prev][f], b.X[sorted[s]][f]
			if lv == rv || math.IsNaN(rv) {
				continue
			}

			lw, rw := sum(leftCounts), sum(rightCounts)
			weighted := (lw*gini(leftCounts) + rw*gini(rightCounts)) / total
			gain := parentImpurity - weighted
			if gain > best.gain {
				threshold := (lv + rv) / 2
				if math.IsNaN(lv) {
					threshold = math.Inf(-1)
				}
				best = split{feature: f, threshold: threshold, gain: gain}
				found = true
			}
		}
	}
	return best, found
}

// candidateFeatures returns the features to examine at a node.
func (b *builder) candidateFeatures() []int {
	all := make([]int, b.nFeatures)
	for i := range all {
		all[i] = i
	}
	if b.p.maxFeatures <= 0 || b.p.maxFeatures >= b.nFeatures {
		return all
	}
	b.rnd.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:b.p.maxFeatures]
}

func (b *builder) weightedCounts(idx []int) []float64 {
	counts := make([]float64, b.p.nClasses)
	for _, i := range idx {
		counts[b.y[i]] += b.w[i]
	}
	return counts
}

// less orders NaN before every number.
func less(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return !math.IsNaN(b)
	case math.IsNaN(b):
		return false
	default:
		return a < b
	}
}

func gini(counts []float64) float64 {
	n := sum(counts)
	if n <= 0 {
		return 0
	}
	res := 1.0
	for _, c := range counts {
		p := c / n
		res -= p * p
	}
	return res
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	out := make([]float64, len(counts))
	n := sum(counts)
	if n <= 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i, c := range counts {
		out[i] = c / n
	}
	return out
}

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}
