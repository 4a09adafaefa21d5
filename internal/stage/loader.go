package stage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/nao1215/joblevel/internal/dataset"
)

// utf8BOM is the byte order mark some spreadsheet tools prepend.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidateDelimiters are tried, in order of preference, when no delimiter is configured.
var candidateDelimiters = []rune{',', ';', '\t'}

// naValues are cell texts read as missing values.
var naValues = map[string]bool{
	"":       true,
	"#N/A":   true,
	"<NA>":   true,
	"N/A":    true,
	"n/a":    true,
	"NA":     true,
	"NULL":   true,
	"null":   true,
	"NaN":    true,
	"nan":    true,
	"-nan":   true,
	"None":   true,
	"-NaN":   true,
	"#NA":    true,
	"1.#IND": true,
}

// cancelCheckInterval is how many records are read between context checks.
const cancelCheckInterval = 1024

// LoaderConfig controls how the input file is parsed.
type LoaderConfig struct {
	// Delimiter separates fields. Zero means detect from the header line.
	Delimiter rune

	// Encoding names the input charset (for example "windows-1251").
	// Empty means UTF-8 when the file is valid UTF-8, otherwise detect.
	Encoding string
}

// Loader reads a delimited text file into a dataset.
// It ignores the dataset it receives.
type Loader struct {
	base
	path string
	cfg  LoaderConfig
}

// NewLoader creates a Loader for the file at path.
func NewLoader(path string, cfg LoaderConfig, opts ...Option) *Loader {
	return &Loader{base: newBase(opts), path: path, cfg: cfg}
}

// Name implements pipeline.Stage.
func (l *Loader) Name() string {
	return "loader"
}

// Process reads the file and returns its contents as a dataset.
// Columns whose non-missing cells all parse as numbers become numeric.
func (l *Loader) Process(ctx context.Context, _ *dataset.Dataset) (*dataset.Dataset, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	text, encName, err := l.decode(raw)
	if err != nil {
		return nil, err
	}

	delim := l.cfg.Delimiter
	if delim == 0 {
		delim = detectDelimiter(text)
	}
	l.logger.Debug("parsing input",
		"path", l.path,
		"bytes", len(raw),
		"encoding", encName,
		"delimiter", string(delim),
	)

	d, err := parseRecords(ctx, bytes.NewReader(text), delim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}

	l.logger.Info("loaded input",
		"path", l.path,
		"rows", d.Len(),
		"columns", d.Width(),
	)
	return d, nil
}

// decode converts raw to UTF-8 and strips a leading byte order mark.
func (l *Loader) decode(raw []byte) ([]byte, string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var (
		enc  encoding.Encoding
		name string
	)
	switch {
	case l.cfg.Encoding != "":
		enc, name = charset.Lookup(l.cfg.Encoding)
		if enc == nil {
			return nil, "", fmt.Errorf("%q: %w", l.cfg.Encoding, ErrUnknownEncoding)
		}
	case utf8.Valid(raw):
		return raw, "utf-8", nil
	default:
		enc, name = detectEncoding(raw)
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode %s input: %w", name, err)
	}
	return bytes.TrimPrefix(out, utf8BOM), name, nil
}

// detectEncoding guesses the charset of non-UTF-8 input. When the charset
// sniffer is unsure and most high bytes fall in the Cyrillic letter range of
// Windows-1251, that code page is chosen.
func detectEncoding(raw []byte) (encoding.Encoding, string) {
	enc, name, certain := charset.DetermineEncoding(raw, "text/csv")
	if certain {
		return enc, name
	}

	high, letters := 0, 0
	for _, b := range raw {
		if b >= 0x80 {
			high++
			if b >= 0xC0 {
				letters++
			}
		}
	}
	if high > 0 && letters*10 >= high*8 {
		return charmap.Windows1251, "windows-1251"
	}
	return enc, name
}

// detectDelimiter picks the candidate that occurs most often in the first line.
// Ties go to the earlier candidate; a line without candidates yields a comma.
func detectDelimiter(text []byte) rune {
	line := text
	if i := bytes.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best, bestCount := candidateDelimiters[0], 0
	for _, c := range candidateDelimiters {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// parseRecords reads the header and records from r.
func parseRecords(ctx context.Context, r io.Reader, delim rune) (*dataset.Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	names := headerNames(header)

	cells := make([][]string, len(names))
	missing := make([][]bool, len(names))
	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrMalformedInput)
		}
		if len(record) > len(names) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d has %d fields, header has %d: %w",
				line, len(record), len(names), ErrMalformedInput)
		}
		for c := range names {
			if c >= len(record) {
				cells[c] = append(cells[c], "")
				missing[c] = append(missing[c], true)
				continue
			}
			cells[c] = append(cells[c], record[c])
			missing[c] = append(missing[c], naValues[strings.TrimSpace(record[c])])
		}
	}

	columns := make([][]dataset.Value, len(names))
	for c := range names {
		columns[c] = inferColumn(cells[c], missing[c])
	}
	return dataset.New(names, columns)
}

// headerNames trims header fields, names empty ones by position and makes
// duplicates unique by appending ".1", ".2" and so on.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i)
		}
		unique := name
		for k := 1; seen[unique]; k++ {
			unique = name + "." + strconv.Itoa(k)
		}
		seen[unique] = true
		names[i] = unique
	}
	return names
}

// inferColumn builds a numeric column when every present cell parses as a
// float, and a text column otherwise.
func inferColumn(cells []string, missing []bool) []dataset.Value {
	out := make([]dataset.Value, len(cells))

	numeric := true
	nums := make([]float64, len(cells))
	for i, s := range cells {
		if missing[i] {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			numeric = false
			break
		}
		nums[i] = f
	}

	for i, s := range cells {
		switch {
		case missing[i]:
			out[i] = dataset.Null()
		case numeric:
			out[i] = dataset.Number(nums[i])
		default:
			out[i] = dataset.Text(s)
		}
	}
	return out
}
