package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Dataset is a cleaned training table: feature rows, their 0/1 labels and
// the inferred column schema.
type Dataset struct {
	Target  string
	Columns []Column
	Rows    []Row
	Labels  []int
	// Skipped counts records dropped for a missing or invalid label.
	Skipped int
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path, target string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, target)
}

// ReadCSV parses a headered CSV. A column is numeric when every non-empty
// value parses as a number, categorical otherwise. Empty cells are filled
// with the column median (numeric) or the most frequent value
// (categorical, ties go to the smallest value).
func ReadCSV(r io.Reader, target string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("read csv: no data rows")
	}

	header := records[0]
	body := records[1:]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	targetCol := -1
	for i, h := range header {
		if h == target {
			targetCol = i
		}
	}
	if targetCol < 0 {
		return nil, fmt.Errorf("read csv: target column %q not found", target)
	}

	ds := &Dataset{Target: target}
	var kept [][]string
	for _, rec := range body {
		label, ok := parseLabel(cell(rec, targetCol))
		if !ok {
			ds.Skipped++
			continue
		}
		ds.Labels = append(ds.Labels, label)
		kept = append(kept, rec)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("read csv: no rows with a valid %q label", target)
	}

	fill := map[string]string{}
	for i, name := range header {
		if i == targetCol {
			continue
		}
		values := make([]string, 0, len(kept))
		for _, rec := range kept {
			if v := cell(rec, i); v != "" {
				values = append(values, v)
			}
		}
		kind := inferKind(values)
		ds.Columns = append(ds.Columns, Column{Name: name, Kind: kind})
		if kind == Numeric {
			fill[name] = strconv.FormatFloat(median(values), 'f', -1, 64)
		} else {
			fill[name] = mode(values)
		}
	}

	ds.Rows = make([]Row, len(kept))
	for j, rec := range kept {
		row := make(Row, len(ds.Columns))
		for i, name := range header {
			if i == targetCol {
				continue
			}
			v := cell(rec, i)
			if v == "" {
				v = fill[name]
			}
			row[name] = v
		}
		ds.Rows[j] = row
	}
	return ds, nil
}

// naValues are the cell spellings pandas reads as missing by default.
var naValues = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true,
	"1.#QNAN": true, "<NA>": true, "N/A": true, "NA": true,
	"NULL": true, "NaN": true, "None": true, "n/a": true,
	"nan": true, "null": true,
}

// cell returns the trimmed value at i, or "" when it is absent or missing.
func cell(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	v := strings.TrimSpace(rec[i])
	if naValues[v] {
		return ""
	}
	return v
}

func parseLabel(v string) (int, bool) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	switch f {
	case 0:
		return 0, true
	case 1:
		return 1, true
	}
	return 0, false
}

func inferKind(values []string) Kind {
	if len(values) == 0 {
		return Categorical
	}
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return Categorical
		}
	}
	return Numeric
}

func median(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	nums := make([]float64, len(values))
	for i, v := range values {
		nums[i] = parseNumber(v)
	}
	sort.Float64s(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return nums[mid]
	}
	return (nums[mid-1] + nums[mid]) / 2
}

func mode(values []string) string {
	counts := map[string]int{}
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := "", 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}
