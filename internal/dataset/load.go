package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/catalogcrawl/internal/model"
)

var (
	// ErrMissingColumn is returned when a required column has no matching header.
	ErrMissingColumn = errors.New("required column not found")

	// ErrUnsupportedFile is returned for file extensions Load cannot read.
	ErrUnsupportedFile = errors.New("unsupported dataset file")
)

// columnAliases lists accepted headers per column, most preferred first.
// Matching is exact first, then case-insensitive.
var columnAliases = map[string][]string{
	model.ColumnName:        {"Assessment Name", "name", "Title"},
	model.ColumnURL:         {"URL", "url", "Link"},
	model.ColumnDescription: {"Description", "description"},
	model.ColumnJobLevels:   {"job_levels", "Job Levels", "Job levels"},
	model.ColumnLanguages:   {"languages", "Languages"},
	model.ColumnDuration:    {"assessment_length_minutes", "Assessment Length", "Duration", "duration"},
	model.ColumnTestType:    {"test_type", "Test Type", "Test type"},
}

// requiredColumns must be present for a file to be usable downstream.
var requiredColumns = []string{model.ColumnName, model.ColumnURL, model.ColumnDescription}

// Load reads a dataset from path. The format is chosen by extension:
// .csv, .json or .xlsx. Records are deduplicated by URL.
func Load(path string) (*model.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
}

func loadCSV(path string) (*model.Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided dataset path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromRows(rows)
}

func loadXLSX(path string) (*model.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrUnsupportedFile, path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromRows(rows)
}

// loadJSON accepts an array of objects or an object with a "records" array.
func loadJSON(path string) (*model.Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided dataset path is intentional
	if err != nil {
		return nil, err
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err != nil {
		var wrapped struct {
			Records []map[string]any `json:"records"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		objects = wrapped.Records
	}

	records := make([]model.Assessment, 0, len(objects))
	for i, obj := range objects {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		cols := resolveColumns(keys)
		if i == 0 {
			if err := checkRequired(cols); err != nil {
				return nil, err
			}
		}

		cell := func(column string) string {
			key, ok := cols[column]
			if !ok {
				return ""
			}
			return jsonCell(obj[key])
		}
		records = append(records, recordFrom(cell))
	}
	return model.NewDataset(records), nil
}

// FromRows builds a dataset from a header row followed by data rows.
func FromRows(rows [][]string) (*model.Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}

	header := rows[0]
	cols := resolveColumns(header)
	if err := checkRequired(cols); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	records := make([]model.Assessment, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(column string) string {
			key, ok := cols[column]
			if !ok {
				return ""
			}
			i := index[key]
			if i >= len(row) {
				return ""
			}
			return row[i]
		}
		records = append(records, recordFrom(cell))
	}
	return model.NewDataset(records), nil
}

// resolveColumns maps each known column to the header that represents it.
func resolveColumns(headers []string) map[string]string {
	present := make(map[string]bool, len(headers))
	folded := make(map[string]string, len(headers))
	for _, h := range headers {
		present[h] = true
		if _, ok := folded[strings.ToLower(strings.TrimSpace(h))]; !ok {
			folded[strings.ToLower(strings.TrimSpace(h))] = h
		}
	}

	cols := make(map[string]string, len(columnAliases))
	for column, aliases := range columnAliases {
		if h, ok := findColumn(aliases, present, folded); ok {
			cols[column] = h
		}
	}
	return cols
}

func findColumn(aliases []string, present map[string]bool, folded map[string]string) (string, bool) {
	for _, a := range aliases {
		if present[a] {
			return a, true
		}
	}
	for _, a := range aliases {
		if h, ok := folded[strings.ToLower(a)]; ok {
			return h, true
		}
	}
	return "", false
}

func checkRequired(cols map[string]string) error {
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}

func recordFrom(cell func(column string) string) model.Assessment {
	return model.Assessment{
		Name:            cell(model.ColumnName),
		URL:             cell(model.ColumnURL),
		Description:     cell(model.ColumnDescription),
		JobLevels:       cell(model.ColumnJobLevels),
		Languages:       cell(model.ColumnLanguages),
		DurationMinutes: parseMinutes(cell(model.ColumnDuration)),
		TestType:        cell(model.ColumnTestType),
	}
}

// parseMinutes reads a duration cell. Spreadsheet tools often write whole
// numbers as "45.0", which is accepted. Anything else is unknown.
func parseMinutes(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

func jsonCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
