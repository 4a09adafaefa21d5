package forest

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// separable returns a dataset where class equals 1 when the first feature exceeds 5.
func separable() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 40; i++ {
		v := float64(i % 10)
		label := 0
		if v > 5 {
			label = 1
		}
		X = append(X, []float64{v, float64(i % 3)})
		y = append(y, label)
	}
	return X, y
}

func TestForestFitPredict(t *testing.T) {
	t.Parallel()

	t.Run("learns a separable problem", func(t *testing.T) {
		t.Parallel()

		X, y := separable()
		f := New(WithEstimators(20), WithMaxFeatures(2), WithSeed(7))
		if err := f.Fit(context.Background(), X, y, nil, 2); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		if !f.Fitted() {
			t.Fatal("expected fitted forest")
		}

		got := f.Predict([][]float64{{1, 0}, {9, 1}})
		if diff := cmp.Diff([]int{0, 1}, got); diff != "" {
			t.Errorf("Predict() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("probabilities sum to one", func(t *testing.T) {
		t.Parallel()

		X, y := separable()
		f := New(WithEstimators(5))
		if err := f.Fit(context.Background(), X, y, nil, 3); err != nil {
			t.Fatal(err)
		}
		for _, p := range f.PredictProba([][]float64{{3, 1}, {math.NaN(), 2}}) {
			total := p[0] + p[1] + p[2]
			if math.Abs(total-1) > 1e-9 {
				t.Errorf("probabilities sum to %v", total)
			}
		}
	})

	t.Run("same seed gives same predictions", func(t *testing.T) {
		t.Parallel()

		X, y := separable()
		a := New(WithEstimators(10), WithSeed(3))
		b := New(WithEstimators(10), WithSeed(3))
		if err := a.Fit(context.Background(), X, y, nil, 2); err != nil {
			t.Fatal(err)
		}
		if err := b.Fit(context.Background(), X, y, nil, 2); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(a.PredictProba(X), b.PredictProba(X)); diff != "" {
			t.Errorf("non-deterministic forest (-a +b):\n%s", diff)
		}
	})

	t.Run("without bootstrap every tree sees the full data", func(t *testing.T) {
		t.Parallel()

		X, y := separable()
		f := New(WithEstimators(5), WithMaxFeatures(2), WithBootstrap(false))
		if err := f.Fit(context.Background(), X, y, nil, 2); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(y, f.Predict(X)); diff != "" {
			t.Errorf("Predict() on training data mismatch (-want +got):\n%s", diff)
		}
		for i, p := range f.PredictProba(X) {
			if p[y[i]] != 1 {
				t.Errorf("row %d: probability of its own class = %v, want 1", i, p[y[i]])
			}
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		t.Parallel()

		f := New()
		if err := f.Fit(context.Background(), nil, nil, nil, 2); !errors.Is(err, ErrEmptyInput) {
			t.Errorf("expected ErrEmptyInput, got %v", err)
		}
		err := f.Fit(context.Background(), [][]float64{{1}, {2, 3}}, []int{0, 1}, nil, 2)
		if !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("expected ErrShapeMismatch, got %v", err)
		}
		err = f.Fit(context.Background(), [][]float64{{1}}, []int{5}, nil, 2)
		if !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("expected ErrShapeMismatch for label range, got %v", err)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		X, y := separable()
		if err := New().Fit(ctx, X, y, nil, 2); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestStratifiedSplit(t *testing.T) {
	t.Parallel()

	y := []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2}
	train, test := StratifiedSplit(y, 0.2, 42)

	if len(train)+len(test) != len(y) {
		t.Fatalf("split lost samples: %d + %d", len(train), len(test))
	}

	count := func(idx []int, class int) int {
		n := 0
		for _, i := range idx {
			if y[i] == class {
				n++
			}
		}
		return n
	}
	if got := count(test, 0); got != 2 {
		t.Errorf("class 0 test size = %d, want 2", got)
	}
	if got := count(test, 1); got != 1 {
		t.Errorf("class 1 test size = %d, want 1", got)
	}
	if got := count(test, 2); got != 0 {
		t.Errorf("singleton class should stay in train, got %d in test", got)
	}

	again, _ := StratifiedSplit(y, 0.2, 42)
	if diff := cmp.Diff(train, again); diff != "" {
		t.Errorf("split not deterministic (-first +second):\n%s", diff)
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	confusion := ConfusionMatrix([]int{0, 0, 1, 1, 2}, []int{0, 1, 1, 1, 0}, 3)
	want := [][]int{
		{1, 1, 0},
		{0, 2, 0},
		{1, 0, 0},
	}
	if diff := cmp.Diff(want, confusion); diff != "" {
		t.Fatalf("ConfusionMatrix() mismatch (-want +got):\n%s", diff)
	}

	score := Evaluate(confusion)
	if math.Abs(score.Accuracy-0.6) > 1e-9 {
		t.Errorf("Accuracy = %v, want 0.6", score.Accuracy)
	}
	if score.PerClass[1].Recall != 1 {
		t.Errorf("class 1 recall = %v, want 1", score.PerClass[1].Recall)
	}
	if math.Abs(score.PerClass[1].Precision-2.0/3.0) > 1e-9 {
		t.Errorf("class 1 precision = %v, want 2/3", score.PerClass[1].Precision)
	}
	if score.PerClass[2].F1 != 0 {
		t.Errorf("class 2 F1 = %v, want 0", score.PerClass[2].F1)
	}
	if score.WeightedAvg.Support != 5 {
		t.Errorf("weighted support = %d, want 5", score.WeightedAvg.Support)
	}
}
