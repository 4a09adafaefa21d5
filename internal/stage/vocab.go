package stage

import (
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// devKeywords mark postings for software development roles.
var devKeywords = []string{
	"разработчик", "developer", "programmer", "программист",
	"frontend", "backend", "fullstack", "python", "java", "c++", "php",
}

// Tier keywords, checked in the order senior, junior, middle.
var (
	seniorKeywords = []string{"senior", "саньор", "сеньор", "ведущий", "lead", "лид", "architect"}
	juniorKeywords = []string{"junior", "джуниор", "младший", "intern", "стажер", "trainee"}
	middleKeywords = []string{"middle", "мидл"}
)

// noExperience marks experience text for candidates without prior work.
const noExperience = "без опыта"

// containsAny reports whether s contains any of the keywords.
func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// lowerer lowercases text. A Caser keeps state, so each Process call makes its own.
func lowerer() cases.Caser {
	return cases.Lower(language.Und)
}

// Option configures behavior shared by all stages.
type Option func(*base)

// WithLogger sets the logger a stage reports progress to.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

// base holds the fields every stage carries.
type base struct {
	logger *slog.Logger
}

func newBase(opts []Option) base {
	var b base
	for _, opt := range opts {
		opt(&b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}
