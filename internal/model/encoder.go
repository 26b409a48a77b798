package model

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind tells the encoder how to treat a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Row is one record keyed by column name, with values in their raw text form.
type Row map[string]string

// Column describes an input column. Categories is filled in by fitting and
// only used for categorical columns.
type Column struct {
	Name       string
	Kind       Kind
	Categories []string
}

// Encoder one-hot encodes categorical columns and passes numeric columns
// through. Output layout: every categorical block in column order, then the
// numeric columns in column order.
type Encoder struct {
	Columns []Column
}

// FitEncoder learns the sorted category set of each categorical column.
func FitEncoder(schema []Column, rows []Row) *Encoder {
	cols := make([]Column, len(schema))
	for i, c := range schema {
		cols[i] = Column{Name: c.Name, Kind: c.Kind}
		if c.Kind != Categorical {
			continue
		}
		seen := map[string]struct{}{}
		for _, r := range rows {
			seen[strings.TrimSpace(r[c.Name])] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		cols[i].Categories = cats
	}
	return &Encoder{Columns: cols}
}

// Width is the length of an encoded vector.
func (e *Encoder) Width() int {
	n := 0
	for _, c := range e.Columns {
		if c.Kind == Categorical {
			n += len(c.Categories)
		} else {
			n++
		}
	}
	return n
}

// Transform encodes one row. Unknown categories encode as all zeros;
// numeric values that are missing or do not parse encode as 0.
func (e *Encoder) Transform(r Row) []float64 {
	out := make([]float64, 0, e.Width())
	for _, c := range e.Columns {
		if c.Kind != Categorical {
			continue
		}
		v := strings.TrimSpace(r[c.Name])
		for _, cat := range c.Categories {
			if cat == v {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	for _, c := range e.Columns {
		if c.Kind == Categorical {
			continue
		}
		out = append(out, parseNumber(r[c.Name]))
	}
	return out
}

// FeatureNames names each encoded position, e.g. "loan_intent=EDUCATION".
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for _, c := range e.Columns {
		if c.Kind != Categorical {
			continue
		}
		for _, cat := range c.Categories {
			names = append(names, c.Name+"="+cat)
		}
	}
	for _, c := range e.Columns {
		if c.Kind != Categorical {
			names = append(names, c.Name)
		}
	}
	return names
}

// parseNumber reads a numeric cell. Unparseable, NaN and infinite values
// become 0.
func parseNumber(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
