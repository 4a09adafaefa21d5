package stage

import (
	"context"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/model"
)

// Names of the derived feature columns.
const (
	ExperienceFeature = "experience_months"
	SalaryFeature     = "salary_feature"
)

var (
	yearsPattern  = regexp.MustCompile(`(\d+)\s*(?:год|лет|г\.)`)
	monthsPattern = regexp.MustCompile(`(\d+)\s*(?:месяц|мес\.)`)
)

// FeatureEncoder turns the dataset into numbers a classifier can use.
//
// The experience column becomes experience_months and the salary column
// becomes salary_feature; both source columns are dropped. Every other text
// column except target_level is then label-encoded: its distinct values are
// sorted and each cell is replaced with the index of its value.
type FeatureEncoder struct {
	base
	columns dataset.ColumnSet
}

// NewFeatureEncoder creates a FeatureEncoder that finds the experience and
// salary columns through columns.
func NewFeatureEncoder(columns dataset.ColumnSet, opts ...Option) *FeatureEncoder {
	return &FeatureEncoder{base: newBase(opts), columns: columns}
}

// Name implements pipeline.Stage.
func (e *FeatureEncoder) Name() string {
	return "feature-encoder"
}

// Process returns the encoded dataset.
func (e *FeatureEncoder) Process(ctx context.Context, in *dataset.Dataset) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := in
	lower := lowerer()

	if name, ok := e.columns.ExperienceColumn(out); ok {
		var err error
		out, err = derive(out, name, ExperienceFeature, func(v dataset.Value) float64 {
			return float64(ExperienceMonths(lower.String(v.String())))
		})
		if err != nil {
			return nil, err
		}
	} else {
		e.logger.Warn("no experience column, skipping experience extraction")
	}

	if name, ok := e.columns.SalaryColumn(out); ok {
		var err error
		out, err = derive(out, name, SalaryFeature, func(v dataset.Value) float64 {
			return ParseSalary(v.String())
		})
		if err != nil {
			return nil, err
		}
	} else {
		e.logger.Warn("no salary column, skipping salary extraction")
	}

	encoded := 0
	for _, name := range out.Names() {
		if name == model.TargetColumn || out.Kind(name) != dataset.KindText {
			continue
		}
		col, err := out.Column(name)
		if err != nil {
			return nil, err
		}
		if out, err = out.WithColumn(name, labelEncode(col)); err != nil {
			return nil, err
		}
		encoded++
	}

	e.logger.Info("encoded features",
		"columns", out.Width(),
		"labelEncoded", encoded,
	)
	return out, nil
}

// derive appends a numeric column computed from source and drops source.
func derive(d *dataset.Dataset, source, target string, fn func(dataset.Value) float64) (*dataset.Dataset, error) {
	col, err := d.Column(source)
	if err != nil {
		return nil, err
	}
	values := make([]dataset.Value, len(col))
	for i, v := range col {
		values[i] = dataset.Number(fn(v))
	}
	out, err := d.WithColumn(target, values)
	if err != nil {
		return nil, err
	}
	if source == target {
		return out, nil
	}
	return out.Drop(source)
}

// ExperienceMonths returns the total months mentioned in a lowercased
// experience description. Every "<n> год/лет/г." adds n*12 and every
// "<n> месяц/мес." adds n. Text containing "без опыта" yields 0.
func ExperienceMonths(text string) int {
	if strings.Contains(text, noExperience) {
		return 0
	}
	total := 0
	for _, m := range yearsPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > math.MaxInt/12 {
			continue
		}
		total = addMonths(total, n*12)
	}
	for _, m := range monthsPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		total = addMonths(total, n)
	}
	return total
}

// addMonths adds n to total, dropping n when the sum would overflow.
func addMonths(total, n int) int {
	if total > math.MaxInt-n {
		return total
	}
	return total + n
}

// ParseSalary keeps the ASCII digits of text and parses them as a number.
// Text without digits yields 0.
func ParseSalary(text string) float64 {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0
	}
	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return f
}

// labelEncode replaces every cell with the index of its stringified value
// among the sorted distinct values of the column. Missing cells share the
// empty-string category.
func labelEncode(col []dataset.Value) []dataset.Value {
	seen := make(map[string]bool)
	for _, v := range col {
		seen[v.String()] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	codes := make(map[string]int, len(keys))
	for i, k := range keys {
		codes[k] = i
	}

	out := make([]dataset.Value, len(col))
	for i, v := range col {
		out[i] = dataset.Number(float64(codes[v.String()]))
	}
	return out
}
