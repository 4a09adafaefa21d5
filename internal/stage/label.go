package stage

import (
	"context"
	"strings"

	"github.com/nao1215/joblevel/internal/dataset"
	"github.com/nao1215/joblevel/internal/model"
)

// LevelLabeler assigns Junior, Middle or Senior to every posting and
// stores it in the target_level column.
//
// The whole row is searched for tier keywords. Senior keywords win over
// junior ones, junior over middle. Without any tier keyword, "без опыта" in
// the experience column means Junior and anything else means Middle.
type LevelLabeler struct {
	base
	columns dataset.ColumnSet
}

// NewLevelLabeler creates a LevelLabeler that finds the experience column through columns.
func NewLevelLabeler(columns dataset.ColumnSet, opts ...Option) *LevelLabeler {
	return &LevelLabeler{base: newBase(opts), columns: columns}
}

// Name implements pipeline.Stage.
func (l *LevelLabeler) Name() string {
	return "level-labeler"
}

// Process returns the dataset with target_level set for every row.
// An existing target_level column is replaced and ignored while labeling.
func (l *LevelLabeler) Process(ctx context.Context, in *dataset.Dataset) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := lowerer()
	expCol := -1
	if name, ok := l.columns.ExperienceColumn(in); ok {
		expCol = in.Index(name)
	}
	targetCol := in.Index(model.TargetColumn)

	labels := make([]dataset.Value, in.Len())
	counts := make(map[model.Level]int, 3)
	var blob strings.Builder
	for row := range labels {
		blob.Reset()
		for c := 0; c < in.Width(); c++ {
			if c == targetCol {
				continue
			}
			if blob.Len() > 0 {
				blob.WriteByte(' ')
			}
			blob.WriteString(in.Cell(row, c).String())
		}

		experience := ""
		if expCol >= 0 {
			experience = lower.String(in.Cell(row, expCol).String())
		}
		level := classify(lower.String(blob.String()), experience)
		labels[row] = dataset.Text(level.String())
		counts[level]++
	}

	labeled, err := in.WithColumn(model.TargetColumn, labels)
	if err != nil {
		return nil, err
	}
	targetCol = labeled.Index(model.TargetColumn)
	out := labeled.Filter(func(row int) bool {
		return model.Level(labeled.Cell(row, targetCol).String()).Valid()
	})

	l.logger.Info("labeled postings",
		"junior", counts[model.LevelJunior],
		"middle", counts[model.LevelMiddle],
		"senior", counts[model.LevelSenior],
	)
	return out, nil
}

// classify picks the level for a lowercased row text and its lowercased
// experience text.
func classify(text, experience string) model.Level {
	switch {
	case containsAny(text, seniorKeywords):
		return model.LevelSenior
	case containsAny(text, juniorKeywords):
		return model.LevelJunior
	case containsAny(text, middleKeywords):
		return model.LevelMiddle
	case strings.Contains(experience, noExperience):
		return model.LevelJunior
	default:
		return model.LevelMiddle
	}
}
