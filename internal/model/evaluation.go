package model

// ClassMetrics holds precision, recall and F1 for one class.
type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Evaluation is the outcome of training and testing the classifier.
type Evaluation struct {
	// Skipped is true when the trainer did not fit a model.
	Skipped bool `json:"skipped"`

	// SkipReason explains why training was skipped.
	SkipReason string `json:"skip_reason,omitempty"`

	// Classes are the class names in matrix order.
	Classes []string `json:"classes"`

	// Features are the feature column names used for training.
	Features []string `json:"features"`

	// TrainSize and TestSize are the split sizes.
	TrainSize int `json:"train_size"`
	TestSize  int `json:"test_size"`

	// Accuracy is the share of correct test predictions.
	Accuracy float64 `json:"accuracy"`

	// PerClass lists metrics in Classes order.
	PerClass []ClassMetrics `json:"per_class"`

	// MacroAvg and WeightedAvg summarize PerClass.
	MacroAvg    ClassMetrics `json:"macro_avg"`
	WeightedAvg ClassMetrics `json:"weighted_avg"`

	// Confusion is indexed [true][predicted] in Classes order.
	Confusion [][]int `json:"confusion"`

	// Distribution counts labeled rows per class over the whole dataset.
	Distribution map[string]int `json:"distribution"`
}

// NewSkippedEvaluation returns an evaluation that records why no model was fit.
func NewSkippedEvaluation(reason string, distribution map[string]int) *Evaluation {
	return &Evaluation{
		Skipped:      true,
		SkipReason:   reason,
		Distribution: distribution,
	}
}
