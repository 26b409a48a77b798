package model

import (
	"strings"
	"testing"
)

func TestReadCSV_InfersKindsAndFills(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(sampleCSV), "loan_status")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(ds.Rows) != 10 || len(ds.Labels) != 10 {
		t.Fatalf("rows=%d labels=%d", len(ds.Rows), len(ds.Labels))
	}
	kinds := map[string]Kind{}
	for _, c := range ds.Columns {
		kinds[c.Name] = c.Kind
	}
	if kinds["person_age"] != Numeric || kinds["person_income"] != Numeric || kinds["person_home_ownership"] != Categorical {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
	if _, ok := kinds["loan_status"]; ok {
		t.Fatalf("target must not be a feature column")
	}

	// RENT appears 4 times, more than OWN (3) and MORTGAGE (2).
	if got := ds.Rows[2]["person_home_ownership"]; got != "RENT" {
		t.Fatalf("missing category filled with %q, want RENT", got)
	}
	// Median of the nine incomes present.
	if got := ds.Rows[3]["person_income"]; got != "88000" {
		t.Fatalf("missing income filled with %q, want 88000", got)
	}
}

func TestReadCSV_SkipsBadLabels(t *testing.T) {
	in := "a,b,loan_status\n1,x,1\n2,y,\n3,z,maybe\n4,x,0\n"
	ds, err := ReadCSV(strings.NewReader(in), "loan_status")
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Rows) != 2 || ds.Skipped != 2 {
		t.Fatalf("rows=%d skipped=%d", len(ds.Rows), ds.Skipped)
	}
	if ds.Labels[0] != 1 || ds.Labels[1] != 0 {
		t.Fatalf("labels = %v", ds.Labels)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("a,b\n1,2\n"), "loan_status"); err == nil {
		t.Fatalf("expected error for missing target")
	}
	if _, err := ReadCSV(strings.NewReader("a,loan_status\n"), "loan_status"); err == nil {
		t.Fatalf("expected error for header only")
	}
}

func TestModeTieBreak(t *testing.T) {
	if got := mode([]string{"b", "a", "b", "a", "c"}); got != "a" {
		t.Fatalf("mode = %q, want a", got)
	}
	if got := median([]string{"4", "1", "3", "2"}); got != 2.5 {
		t.Fatalf("median = %v, want 2.5", got)
	}
}

func TestReadCSV_TreatsNATokensAsMissing(t *testing.T) {
	in := "age,home,loan_status\n" +
		"20,RENT,1\n" +
		"NaN,OWN,0\n" +
		"30,NA,1\n" +
		"40,RENT,0\n" +
		"null,N/A,1\n" +
		"50,OWN,nan\n"
	ds, err := ReadCSV(strings.NewReader(in), "loan_status")
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.Rows) != 5 || ds.Skipped != 1 {
		t.Fatalf("rows=%d skipped=%d", len(ds.Rows), ds.Skipped)
	}
	if ds.Columns[0].Kind != Numeric {
		t.Fatalf("age should stay numeric, got %v", ds.Columns[0].Kind)
	}
	// Median of 20, 30, 40.
	for _, j := range []int{1, 4} {
		if got := ds.Rows[j]["age"]; got != "30" {
			t.Fatalf("row %d age filled with %q, want 30", j, got)
		}
	}
	for _, j := range []int{2, 4} {
		if got := ds.Rows[j]["home"]; got != "RENT" {
			t.Fatalf("row %d home filled with %q, want RENT", j, got)
		}
	}
}
