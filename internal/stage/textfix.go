package stage

import (
	"context"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/joblevel/internal/dataset"
)

// mojibakeSources are the code pages UTF-8 text is commonly misread as.
var mojibakeSources = []*charmap.Charmap{
	charmap.Windows1251,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// maxRepairPasses bounds how many layers of mojibake are undone.
const maxRepairPasses = 2

// TextCorrector repairs text that was UTF-8 but got decoded with a
// single-byte code page, as in "Р Р°Р·СЂР°Р±РѕС‚С‡РёРє" for "Разработчик".
// Repaired text is NFC-normalized and trimmed. Numeric and missing cells
// are left as they are.
type TextCorrector struct {
	base
}

// NewTextCorrector creates a TextCorrector.
func NewTextCorrector(opts ...Option) *TextCorrector {
	return &TextCorrector{base: newBase(opts)}
}

// Name implements pipeline.Stage.
func (t *TextCorrector) Name() string {
	return "text-corrector"
}

// Process returns a dataset with repaired column names and text cells.
func (t *TextCorrector) Process(ctx context.Context, in *dataset.Dataset) (*dataset.Dataset, error) {
	names := in.Names()
	columns := make([][]dataset.Value, len(names))
	repaired := 0

	for c, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		col, err := in.Column(name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			if v.Kind() != dataset.KindText {
				continue
			}
			fixed := RepairText(v.String())
			if fixed != v.String() {
				col[i] = dataset.Text(fixed)
				repaired++
			}
		}
		columns[c] = col
	}

	fixedNames := repairNames(names)
	out, err := dataset.New(fixedNames, columns)
	if err != nil {
		return nil, err
	}

	t.logger.Info("corrected text", "cells", repaired)
	return out, nil
}

// repairNames repairs each column name. A repaired name that collides with
// another column gets a numeric suffix.
func repairNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for i, n := range names {
		fixed := RepairText(n)
		if fixed != n {
			base := fixed
			for k := 1; seen[fixed]; k++ {
				fixed = base + "." + strconv.Itoa(k)
			}
			seen[fixed] = true
		}
		out[i] = fixed
	}
	return out
}

// RepairText undoes up to two layers of mojibake, then normalizes s to NFC
// and trims surrounding white space.
func RepairText(s string) string {
	if fixed, ok := unmojibake(s, maxRepairPasses); ok {
		s = fixed
	}
	return strings.TrimSpace(norm.NFC.String(s))
}

// unmojibake re-encodes s with each source code page, peeling at most
// depth layers, and returns the first result that reads as modern Russian.
// Intermediate layers only need to be shorter than their input.
func unmojibake(s string, depth int) (string, bool) {
	if depth == 0 || isASCII(s) {
		return "", false
	}
	for _, cm := range mojibakeSources {
		candidate, ok := reencode(cm, s)
		if !ok || utf8.RuneCountInString(candidate) >= utf8.RuneCountInString(s) {
			continue
		}
		if plausible(candidate) {
			return candidate, true
		}
		if deeper, ok := unmojibake(candidate, depth-1); ok {
			return deeper, true
		}
	}
	return "", false
}

// reencode maps s back to the bytes it was decoded from with enc.
func reencode(enc encoding.Encoding, s string) (string, bool) {
	raw, err := enc.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return "", false
	}
	return raw, true
}

// plausible reports whether every non-ASCII rune of s is a letter of the
// modern Russian alphabet, punctuation, a symbol or a space.
func plausible(s string) bool {
	for _, r := range s {
		if r < utf8.RuneSelf {
			continue
		}
		if !isRussianLetter(r) && !unicode.IsPunct(r) &&
			!unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func isRussianLetter(r rune) bool {
	return (r >= 'А' && r <= 'я') || r == 'Ё' || r == 'ё'
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
