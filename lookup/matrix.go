package lookup

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Entry is one axis label: a bare name and an upper class threshold.
type Entry struct {
	Name      string
	Threshold float64 // +Inf when the label has no threshold
}

// Ordering reports whether an entry with threshold applies to value.
type Ordering func(threshold, value float64) bool

// StrictlyAbove selects entries whose threshold exceeds the class value.
func StrictlyAbove(threshold, value float64) bool { return threshold > value }

// Axis is an ordered list of entries.
type Axis []Entry

// IndexOf returns the index of the first entry named name. With a non-nil
// order the entry must also satisfy order(threshold, value); with a nil
// order the class value is ignored.
func (a Axis) IndexOf(name string, value float64, order Ordering) (int, error) {
	for i, e := range a {
		if e.Name != name {
			continue
		}
		if order == nil || order(e.Threshold, value) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q at class %g", ErrLookupNotFound, name, value)
}

// Names returns the distinct names in axis order.
func (a Axis) Names() []string {
	seen := make(map[string]bool, len(a))
	names := make([]string, 0, len(a))
	for _, e := range a {
		if !seen[e.Name] {
			seen[e.Name] = true
			names = append(names, e.Name)
		}
	}
	return names
}

// ParseLabel splits "name < threshold" into its parts.
func ParseLabel(label string) (Entry, error) {
	name, thr, found := strings.Cut(label, "<")
	name = strings.TrimSpace(name)
	if name == "" {
		return Entry{}, fmt.Errorf("empty name in label %q", label)
	}
	if !found {
		return Entry{Name: name, Threshold: math.Inf(1)}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(thr), 64)
	if err != nil {
		return Entry{}, fmt.Errorf("threshold in label %q: %w", label, err)
	}
	return Entry{Name: name, Threshold: v}, nil
}

// Matrix is a dense table with labelled rows (source) and columns (target).
type Matrix struct {
	Path  string
	Rows  Axis
	Cols  Axis
	table *mat.Dense
}

// NewMatrix builds a matrix from axes and row-major values.
func NewMatrix(rows, cols Axis, data []float64) (*Matrix, error) {
	if len(rows) == 0 || len(cols) == 0 {
		return nil, errors.New("lookup: matrix needs at least one row and one column")
	}
	if len(data) != len(rows)*len(cols) {
		return nil, fmt.Errorf("lookup: %d values for a %dx%d matrix", len(data), len(rows), len(cols))
	}
	return &Matrix{Rows: rows, Cols: cols, table: mat.NewDense(len(rows), len(cols), data)}, nil
}

// Load reads a matrix from path, detecting the delimiter.
func Load(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lookup table: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading lookup table %s: %w", path, err)
	}
	comma := DetectDelimiter(path, first)

	m, err := Read(io.MultiReader(strings.NewReader(first), br), path, comma)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DetectDelimiter picks the field separator from the file extension, then
// from whichever of ';', tab or ',' is most frequent in the header line.
func DetectDelimiter(path, header string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	best, bestCount := ',', strings.Count(header, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(header, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// Read parses a matrix. The header's first cell is ignored; every other row
// starts with its label followed by one numeric value per column.
func Read(r io.Reader, path string, comma rune) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("reading header: %w", err)}
	}
	if len(header) < 2 {
		return nil, &ParseError{Path: path, Line: 1, Err: errors.New("header has no column labels")}
	}

	cols := make(Axis, 0, len(header)-1)
	for _, label := range header[1:] {
		e, err := ParseLabel(label)
		if err != nil {
			return nil, &ParseError{Path: path, Line: 1, Err: err}
		}
		cols = append(cols, e)
	}

	var rows Axis
	var data []float64
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(record) != len(header) {
			return nil, &ParseError{
				Path: path,
				Line: line,
				Err:  fmt.Errorf("%d fields, header has %d", len(record), len(header)),
			}
		}
		e, err := ParseLabel(record[0])
		if err != nil {
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		rows = append(rows, e)
		for j, cell := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Err: fmt.Errorf("column %d: %w", j+2, err)}
			}
			if v < 0 {
				return nil, &ParseError{Path: path, Line: line, Err: fmt.Errorf("column %d: negative value %g", j+2, v)}
			}
			data = append(data, v)
		}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Path: path, Line: 1, Err: errors.New("no data rows")}
	}

	m, err := NewMatrix(rows, cols, data)
	if err != nil {
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (r, c int) { return m.table.Dims() }

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.table.At(i, j) }

// Lookup resolves both axes and returns the value where they cross.
func (m *Matrix) Lookup(row string, rowValue float64, col string, colValue float64, order Ordering) (float64, error) {
	i, err := m.Rows.IndexOf(row, rowValue, order)
	if err != nil {
		return 0, fmt.Errorf("%s row: %w", m.Path, err)
	}
	j, err := m.Cols.IndexOf(col, colValue, order)
	if err != nil {
		return 0, fmt.Errorf("%s column: %w", m.Path, err)
	}
	return m.table.At(i, j), nil
}

// ColSum returns the sum of column j over every row.
func (m *Matrix) ColSum(j int) float64 {
	return mat.Sum(m.table.ColView(j))
}
