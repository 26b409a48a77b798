package model

import (
	"reflect"
	"testing"
)

var schema = []Column{
	{Name: "age", Kind: Numeric},
	{Name: "home", Kind: Categorical},
	{Name: "income", Kind: Numeric},
	{Name: "intent", Kind: Categorical},
}

func fittedEncoder() *Encoder {
	return FitEncoder(schema, []Row{
		{"age": "30", "home": "RENT", "income": "100", "intent": "EDUCATION"},
		{"age": "40", "home": "OWN", "income": "200", "intent": "MEDICAL"},
		{"age": "50", "home": "MORTGAGE", "income": "300", "intent": "EDUCATION"},
	})
}

func TestFitEncoder_SortsCategories(t *testing.T) {
	enc := fittedEncoder()
	if got := enc.Columns[1].Categories; !reflect.DeepEqual(got, []string{"MORTGAGE", "OWN", "RENT"}) {
		t.Fatalf("home categories = %v", got)
	}
	if enc.Columns[0].Categories != nil {
		t.Fatalf("numeric column should carry no categories")
	}
	if enc.Width() != 3+2+2 {
		t.Fatalf("width = %d", enc.Width())
	}
}

func TestEncoder_TransformLayout(t *testing.T) {
	enc := fittedEncoder()
	got := enc.Transform(Row{"age": "35", "home": "OWN", "income": "150.5", "intent": "MEDICAL"})
	want := []float64{0, 1, 0, 0, 1, 35, 150.5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Transform = %v, want %v", got, want)
	}

	names := enc.FeatureNames()
	wantNames := []string{"home=MORTGAGE", "home=OWN", "home=RENT", "intent=EDUCATION", "intent=MEDICAL", "age", "income"}
	if !reflect.DeepEqual(names, wantNames) {
		t.Fatalf("FeatureNames = %v", names)
	}
}

func TestEncoder_UnknownAndMissing(t *testing.T) {
	enc := fittedEncoder()
	got := enc.Transform(Row{"home": "CASTLE", "income": "lots"})
	want := []float64{0, 0, 0, 0, 0, 0, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Transform = %v, want all zeros", got)
	}
}

func TestEncoder_NonFiniteNumbersBecomeZero(t *testing.T) {
	enc := fittedEncoder()
	for _, v := range []string{"NaN", "inf", "-Inf", "1e999"} {
		got := enc.Transform(Row{"age": v, "home": "RENT", "income": "120", "intent": "MEDICAL"})
		want := []float64{0, 0, 1, 0, 1, 0, 120}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Transform(age=%q) = %v, want %v", v, got, want)
		}
	}
}
