package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Forest is a random forest classifier.
// Class labels are integers in [0, nClasses).
type Forest struct {
	nEstimators    int
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int // 0 means sqrt(number of features)
	bootstrap      bool
	seed           uint64
	concurrency    int

	nClasses int
	trees    []*tree
}

// Option configures a Forest.
type Option func(*Forest)

// WithEstimators sets the number of trees.
func WithEstimators(n int) Option {
	return func(f *Forest) {
		if n > 0 {
			f.nEstimators = n
		}
	}
}

// WithMaxDepth limits tree depth. Zero means unlimited.
func WithMaxDepth(d int) Option {
	return func(f *Forest) {
		if d >= 0 {
			f.maxDepth = d
		}
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in a leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(f *Forest) {
		if n > 0 {
			f.minSamplesLeaf = n
		}
	}
}

// WithMaxFeatures sets how many features each split examines.
// Zero selects the square root of the feature count.
func WithMaxFeatures(n int) Option {
	return func(f *Forest) {
		if n >= 0 {
			f.maxFeatures = n
		}
	}
}

// WithBootstrap enables or disables bootstrap sampling.
func WithBootstrap(b bool) Option {
	return func(f *Forest) {
		f.bootstrap = b
	}
}

// WithSeed sets the random seed. Equal seeds give equal forests.
func WithSeed(seed uint64) Option {
	return func(f *Forest) {
		f.seed = seed
	}
}

// WithConcurrency limits how many trees are fit at once.
func WithConcurrency(n int) Option {
	return func(f *Forest) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// New creates an unfitted forest.
func New(opts ...Option) *Forest {
	f := &Forest{
		nEstimators:    100,
		minSamplesLeaf: 1,
		bootstrap:      true,
		seed:           42,
		concurrency:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit trains the forest. weights holds one weight per sample; nil means
// uniform weights.
func (f *Forest) Fit(ctx context.Context, X [][]float64, y []int, weights []float64, nClasses int) error {
	if len(X) == 0 {
		return ErrEmptyInput
	}
	if len(y) != len(X) || (weights != nil && len(weights) != len(X)) {
		return fmt.Errorf("%d rows, %d labels, %d weights: %w", len(X), len(y), len(weights), ErrShapeMismatch)
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d: %w", i, len(row), width, ErrShapeMismatch)
		}
	}
	for i, label := range y {
		if label < 0 || label >= nClasses {
			return fmt.Errorf("label %d at row %d outside [0,%d): %w", label, i, nClasses, ErrShapeMismatch)
		}
	}
	if weights == nil {
		weights = make([]float64, len(X))
		for i := range weights {
			weights[i] = 1
		}
	}

	params := treeParams{
		maxDepth:       f.maxDepth,
		minSamplesLeaf: f.minSamplesLeaf,
		maxFeatures:    f.maxFeatures,
		nClasses:       nClasses,
	}
	if params.maxFeatures == 0 {
		params.maxFeatures = max(1, int(math.Sqrt(float64(width))))
	}

	trees := make([]*tree, f.nEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for t := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rnd := rand.New(rand.NewPCG(f.seed, uint64(t)))
			idx := make([]int, len(X))
			for i := range idx {
				if f.bootstrap {
					idx[i] = rnd.IntN(len(X))
				} else {
					idx[i] = i
				}
			}
			trees[t] = fitTree(X, y, weights, idx, params, rnd)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	f.nClasses = nClasses
	return nil
}

// PredictProba returns averaged class probabilities for each row.
func (f *Forest) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		probs := make([]float64, f.nClasses)
		for _, t := range f.trees {
			for c, p := range t.predictProba(x) {
				probs[c] += p
			}
		}
		if len(f.trees) > 0 {
			for c := range probs {
				probs[c] /= float64(len(f.trees))
			}
		}
		out[i] = probs
	}
	return out
}

// Predict returns the most probable class for each row.
// Ties go to the lower class index.
func (f *Forest) Predict(X [][]float64) []int {
	probas := f.PredictProba(X)
	out := make([]int, len(probas))
	for i, p := range probas {
		best := 0
		for c := 1; c < len(p); c++ {
			if p[c] > p[best] {
				best = c
			}
		}
		out[i] = best
	}
	return out
}

// Fitted reports whether Fit has completed.
func (f *Forest) Fitted() bool {
	return len(f.trees) > 0
}
