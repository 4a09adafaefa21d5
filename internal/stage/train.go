package stage

import (
	"context"
	"fmt"
	"sync"

	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/forest"
	"github.com/nao1215/joblevel/internal/model"
)

// TrainerConfig holds the classifier hyperparameters.
type TrainerConfig struct {
	// Trees is the number of trees in the forest.
	Trees int

	// MaxDepth limits tree depth. Zero means unlimited.
	MaxDepth int

	// MinSamplesLeaf is the minimum number of samples in a leaf.
	MinSamplesLeaf int

	// MaxFeatures is the number of features examined per split.
	// Zero means the square root of the feature count.
	MaxFeatures int

	// TestSize is the share of rows held out for evaluation.
	TestSize float64

	// Seed makes the split and the forest reproducible.
	Seed uint64

	// ClassWeights scale the contribution of each class while training.
	// Missing classes weigh 1.
	ClassWeights map[model.Level]float64

	// MinRows is the smallest dataset the trainer fits a model on.
	MinRows int

	// NoBootstrap fits every tree on the full training split instead of a
	// sample drawn with replacement.
	NoBootstrap bool

	// Concurrency limits how many trees are fit at once. Zero means one per CPU.
	Concurrency int
}

// DefaultTrainerConfig returns the settings used when nothing is configured.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Trees:          300,
		MaxDepth:       15,
		MinSamplesLeaf: 2,
		TestSize:       0.2,
		Seed:           42,
		ClassWeights: map[model.Level]float64{
			model.LevelJunior: 12,
			model.LevelMiddle: 1,
			model.LevelSenior: 4,
		},
		MinRows: 10,
	}
}

// Trainer fits a random forest on the encoded dataset and evaluates it on a
// stratified hold-out split. It returns its input unchanged; the outcome is
// available from Evaluation.
//
// Datasets too small to split (fewer than MinRows rows, a single class, or a
// class with one member) are not an error: training is skipped and the
// evaluation records why.
type Trainer struct {
	base
	cfg TrainerConfig

	mu         sync.Mutex
	evaluation *model.Evaluation
}

// NewTrainer creates a Trainer.
func NewTrainer(cfg TrainerConfig, opts ...Option) *Trainer {
	return &Trainer{base: newBase(opts), cfg: cfg}
}

// Name implements pipeline.Stage.
func (t *Trainer) Name() string {
	return "trainer"
}

// Evaluation returns the outcome of the last Process call, or nil.
func (t *Trainer) Evaluation() *model.Evaluation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evaluation
}

// Process trains and evaluates the classifier.
func (t *Trainer) Process(ctx context.Context, in *dataset.Dataset) (*dataset.Dataset, error) {
	target := in.Index(model.TargetColumn)
	if target < 0 {
		return nil, fmt.Errorf("%q: %w", model.TargetColumn, ErrMissingColumn)
	}

	features := make([]string, 0, in.Width()-1)
	for _, name := range in.Names() {
		if name == model.TargetColumn {
			continue
		}
		if in.Kind(name) == dataset.KindText {
			return nil, fmt.Errorf("%q: %w", name, ErrUnencodedColumn)
		}
		features = append(features, name)
	}

	levels := make([]model.Level, in.Len())
	distribution := make(map[string]int, 3)
	for row := range levels {
		level, err := model.ParseLevel(in.Cell(row, target).String())
		if err != nil {
			return nil, fmt.Errorf("row %d: %v: %w", row, err, ErrInvalidLabel)
		}
		levels[row] = level
		distribution[level.String()]++
	}

	eval, err := t.train(ctx, in, features, levels, distribution)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.evaluation = eval
	t.mu.Unlock()

	return in, nil
}

func (t *Trainer) train(ctx context.Context, in *dataset.Dataset, features []string,
	levels []model.Level, distribution map[string]int) (*model.Evaluation, error) {
	classes := make([]model.Level, 0, 3)
	for _, l := range model.Levels() {
		if distribution[l.String()] > 0 {
			classes = append(classes, l)
		}
	}

	if reason := t.skipReason(len(levels), classes, distribution); reason != "" {
		t.logger.Warn("skipping training", "reason", reason, "rows", len(levels))
		return model.NewSkippedEvaluation(reason, distribution), nil
	}

	classIndex := make(map[model.Level]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	X := make([][]float64, len(levels))
	y := make([]int, len(levels))
	w := make([]float64, len(levels))
	cols := make([]int, len(features))
	for i, name := range features {
		cols[i] = in.Index(name)
	}
	for row := range levels {
		x := make([]float64, len(cols))
		for i, c := range cols {
			x[i] = in.Cell(row, c).Float()
		}
		X[row] = x
		y[row] = classIndex[levels[row]]
		w[row] = 1
		if cw, ok := t.cfg.ClassWeights[levels[row]]; ok {
			w[row] = cw
		}
	}

	trainIdx, testIdx := forest.StratifiedSplit(y, t.cfg.TestSize, t.cfg.Seed)
	pick := func(idx []int) ([][]float64, []int, []float64) {
		px, py, pw := make([][]float64, len(idx)), make([]int, len(idx)), make([]float64, len(idx))
		for i, r := range idx {
			px[i], py[i], pw[i] = X[r], y[r], w[r]
		}
		return px, py, pw
	}
	xTrain, yTrain, wTrain := pick(trainIdx)
	xTest, yTest, _ := pick(testIdx)

	opts := []forest.Option{
		forest.WithEstimators(t.cfg.Trees),
		forest.WithMaxDepth(t.cfg.MaxDepth),
		forest.WithMinSamplesLeaf(t.cfg.MinSamplesLeaf),
		forest.WithMaxFeatures(t.cfg.MaxFeatures),
		forest.WithSeed(t.cfg.Seed),
		forest.WithBootstrap(!t.cfg.NoBootstrap),
	}
	if t.cfg.Concurrency > 0 {
		opts = append(opts, forest.WithConcurrency(t.cfg.Concurrency))
	}
	clf := forest.New(opts...)

	t.logger.Info("training random forest",
		"trees", t.cfg.Trees,
		"features", len(features),
		"train", len(trainIdx),
		"test", len(testIdx),
	)
	if err := clf.Fit(ctx, xTrain, yTrain, wTrain, len(classes)); err != nil {
		return nil, fmt.Errorf("failed to train classifier: %w", err)
	}

	confusion := forest.ConfusionMatrix(yTest, clf.Predict(xTest), len(classes))
	score := forest.Evaluate(confusion)

	eval := &model.Evaluation{
		Classes:      make([]string, len(classes)),
		Features:     features,
		TrainSize:    len(trainIdx),
		TestSize:     len(testIdx),
		Accuracy:     score.Accuracy,
		PerClass:     make([]model.ClassMetrics, len(classes)),
		MacroAvg:     classMetrics("macro avg", score.MacroAvg),
		WeightedAvg:  classMetrics("weighted avg", score.WeightedAvg),
		Confusion:    confusion,
		Distribution: distribution,
	}
	for i, c := range classes {
		eval.Classes[i] = c.String()
		eval.PerClass[i] = classMetrics(c.String(), score.PerClass[i])
	}

	t.logger.Info("classifier evaluated",
		"accuracy", eval.Accuracy,
		"macroF1", eval.MacroAvg.F1,
	)
	return eval, nil
}

// skipReason explains why the data is too small to train on, or returns "".
func (t *Trainer) skipReason(rows int, classes []model.Level, distribution map[string]int) string {
	if rows < t.cfg.MinRows {
		return fmt.Sprintf("%d rows, need at least %d", rows, t.cfg.MinRows)
	}
	if len(classes) < 2 {
		return fmt.Sprintf("%d distinct levels, need at least 2", len(classes))
	}
	for _, c := range classes {
		if distribution[c.String()] < 2 {
			return fmt.Sprintf("level %s has a single posting", c)
		}
	}
	return ""
}

func classMetrics(class string, s forest.ClassScore) model.ClassMetrics {
	return model.ClassMetrics{
		Class:     class,
		Precision: s.Precision,
		Recall:    s.Recall,
		F1:        s.F1,
		Support:   s.Support,
	}
}
