package forest

import (
	"math"
	"math/rand/v2"
	"slices"
)

// StratifiedSplit partitions sample indices into train and test sets so
// that every class keeps roughly the same share in both. Each class with at
// least two samples contributes at least one test and one train sample.
// Both returned slices are sorted.
func StratifiedSplit(y []int, testRatio float64, seed uint64) (train, test []int) {
	byClass := map[int][]int{}
	classes := make([]int, 0)
	for i, label := range y {
		if _, ok := byClass[label]; !ok {
			classes = append(classes, label)
		}
		byClass[label] = append(byClass[label], i)
	}
	slices.Sort(classes)

	rnd := rand.New(rand.NewPCG(seed, 0))
	for _, c := range classes {
		members := byClass[c]
		rnd.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })

		nTest := int(math.Round(float64(len(members)) * testRatio))
		if len(members) >= 2 {
			nTest = min(max(nTest, 1), len(members)-1)
		} else {
			nTest = 0
		}
		test = append(test, members[:nTest]...)
		train = append(train, members[nTest:]...)
	}

	slices.Sort(train)
	slices.Sort(test)
	return train, test
}

// ConfusionMatrix counts predictions, indexed [true][predicted].
func ConfusionMatrix(yTrue, yPred []int, nClasses int) [][]int {
	m := make([][]int, nClasses)
	for i := range m {
		m[i] = make([]int, nClasses)
	}
	for i := range yTrue {
		m[yTrue[i]][yPred[i]]++
	}
	return m
}

// ClassScore holds per-class precision, recall and F1.
type ClassScore struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Score summarizes a confusion matrix.
type Score struct {
	Accuracy    float64
	PerClass    []ClassScore
	MacroAvg    ClassScore
	WeightedAvg ClassScore
}

// Evaluate computes accuracy and per-class metrics from a confusion matrix.
// Undefined ratios (no predictions or no support for a class) count as zero.
func Evaluate(confusion [][]int) Score {
	n := len(confusion)
	score := Score{PerClass: make([]ClassScore, n)}

	total, correct := 0, 0
	for i := range n {
		tp := confusion[i][i]
		predicted, support := 0, 0
		for j := range n {
			predicted += confusion[j][i]
			support += confusion[i][j]
		}
		total += support
		correct += tp

		var cs ClassScore
		cs.Support = support
		if predicted > 0 {
			cs.Precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			cs.Recall = float64(tp) / float64(support)
		}
		if cs.Precision+cs.Recall > 0 {
			cs.F1 = 2 * cs.Precision * cs.Recall / (cs.Precision + cs.Recall)
		}
		score.PerClass[i] = cs
	}

	if total > 0 {
		score.Accuracy = float64(correct) / float64(total)
	}

	for _, cs := range score.PerClass {
		if n > 0 {
			score.MacroAvg.Precision += cs.Precision / float64(n)
			score.MacroAvg.Recall += cs.Recall / float64(n)
			score.MacroAvg.F1 += cs.F1 / float64(n)
		}
		if total > 0 {
			w := float64(cs.Support) / float64(total)
			score.WeightedAvg.Precision += cs.Precision * w
			score.WeightedAvg.Recall += cs.Recall * w
			score.WeightedAvg.F1 += cs.F1 * w
		}
	}
	score.MacroAvg.Support = total
	score.WeightedAvg.Support = total

	return score
}
