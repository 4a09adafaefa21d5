package stage

import (
	"context"

	"github.com/nao1215/joblevel/internal/dataset"
)

// DomainFilter keeps postings for software development roles.
// A row is kept when any of its cells, lowercased, contains a development
// keyword such as "developer", "программист" or "python".
type DomainFilter struct {
	base
}

// NewDomainFilter creates a DomainFilter.
func NewDomainFilter(opts ...Option) *DomainFilter {
	return &DomainFilter{base: newBase(opts)}
}

// Name implements pipeline.Stage.
func (f *DomainFilter) Name() string {
	return "domain-filter"
}

// Process returns the matching rows with every column kept.
// No match at all yields an empty dataset, not an error.
func (f *DomainFilter) Process(ctx context.Context, in *dataset.Dataset) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lower := lowerer()
	out := in.Filter(func(row int) bool {
		for c := 0; c < in.Width(); c++ {
			if containsAny(lower.String(in.Cell(row, c).String()), devKeywords) {
				return true
			}
		}
		return false
	})

	f.logger.Info("filtered development postings",
		"kept", out.Len(),
		"dropped", in.Len()-out.Len(),
	)
	return out, nil
}
