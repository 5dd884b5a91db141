package engine

import (
	"reflect"
	"testing"
)

// parseAll parses a FeatureCollection built from the given feature literals.
func parseAll(t *testing.T, featureJSON ...string) []*Feature {
	t.Helper()
	data := `{"type":"FeatureCollection","features":[`
	for i, f := range featureJSON {
		if i > 0 {
			data += ","
		}
		data += f
	}
	data += `]}`
	features, err := ParseCollection([]byte(data))
	if err != nil {
		t.Fatalf("ParseCollection() error = %v", err)
	}
	return features
}

// plot builds a feature literal with a convex polygon offset by the given
// amount, so collections of distinct non-overlapping plots are cheap to
// assemble.
func plot(id string, offset float64, extraProps string) string {
	coords := fmtCoords(offset)
	props := `"plotId": "` + id + `", "producerCountry": "BR"`
	if extraProps != "" {
		props += ", " + extraProps
	}
	return `{"type":"Feature","geometry":{"type":"Polygon","coordinates":` + coords + `},"properties":{` + props + `}}`
}

func fmtCoords(offset float64) string {
	c := func(x, y float64) string {
		return "[" + trimFloat(x+offset) + "," + trimFloat(y) + "]"
	}
	return "[[" + c(0, 0) + "," + c(0.001, 0) + "," + c(0.001, 0.001) + "," + c(0, 0.001) + "," + c(0, 0) + "]]"
}

func trimFloat(f float64) string {
	return stringify(f)
}

func TestValidateCollectionGating(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("all valid", func(t *testing.T) {
		features := parseAll(t, plot("a", 0, ""), plot("b", 1, ""))
		report := ValidateCollection(features, cfg, ValidateOptions{})

		if !report.Valid() {
			t.Fatalf("Valid() = false, want true: %+v", report.Summary)
		}
		if report.Summary.ValidCount != 2 || report.Summary.TotalCount != 2 {
			t.Errorf("summary = %+v, want 2/2 valid", report.Summary)
		}
		if got := report.ValidatedPlotIDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("ValidatedPlotIDs() = %v, want [a b]", got)
		}
	})

	t.Run("one invalid plot gates the whole collection", func(t *testing.T) {
		features := parseAll(t,
			plot("a", 0, ""),
			`{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,1],[1,0],[0,1],[0,0]]]},"properties":{"plotId":"bowtie","producerCountry":"BR"}}`,
		)
		report := ValidateCollection(features, cfg, ValidateOptions{})

		if report.Valid() {
			t.Fatalf("Valid() = true with an invalid plot")
		}
		if report.Summary.ValidCount != 1 {
			t.Errorf("ValidCount = %d, want 1", report.Summary.ValidCount)
		}
		if ids := report.ValidatedPlotIDs(); ids != nil {
			t.Errorf("ValidatedPlotIDs() = %v, want nil when gated", ids)
		}
	})

	t.Run("duplicate plot ids gate the collection", func(t *testing.T) {
		features := parseAll(t, plot("a", 0, ""), plot("a", 1, ""))
		report := ValidateCollection(features, cfg, ValidateOptions{})

		if report.Valid() {
			t.Fatalf("Valid() = true with duplicate ids")
		}
		if len(report.Summary.CollectionErrors) != 1 {
			t.Fatalf("CollectionErrors = %v, want one duplicate-id error", report.Summary.CollectionErrors)
		}
		// Every plot still validates individually.
		if report.Summary.ValidCount != 2 {
			t.Errorf("ValidCount = %d, want 2", report.Summary.ValidCount)
		}
	})
}

func TestValidateCollectionParallelMatchesSerial(t *testing.T) {
	cfg := DefaultConfig()

	var literals []string
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		extra := ""
		if i%3 == 0 {
			extra = `"area": 0` // invalid declaration on every third plot
		}
		literals = append(literals, plot(id, float64(i), extra))
	}
	features := parseAll(t, literals...)

	serial := ValidateCollection(features, cfg, ValidateOptions{Parallel: false})
	parallel := ValidateCollection(features, cfg, ValidateOptions{Parallel: true, Workers: 4})

	if !reflect.DeepEqual(serial, parallel) {
		t.Errorf("parallel run differs from serial run")
	}
}

func TestValidateCollectionIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	features := parseAll(t, plot("a", 0, ""), plot("b", 1, `"area": -1`))

	first := ValidateCollection(features, cfg, DefaultValidateOptions())
	second := ValidateCollection(features, cfg, DefaultValidateOptions())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated validation of unchanged input produced different reports")
	}
}

func TestTopErrors(t *testing.T) {
	results := []PlotResult{
		{Errors: []string{"b", "a"}},
		{Errors: []string{"a"}},
		{Errors: []string{"a", "c"}},
		{Errors: []string{"c"}},
	}

	got := topErrors(results)
	want := []string{"a", "c", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topErrors() = %v, want %v", got, want)
	}
}

func TestTopErrorsCap(t *testing.T) {
	results := []PlotResult{{Errors: []string{"a", "b", "c", "d", "e", "f", "g"}}}
	if got := topErrors(results); len(got) != maxTopErrors {
		t.Errorf("topErrors() returned %d messages, want %d", len(got), maxTopErrors)
	}
}

func TestDuplicatePlotIDs(t *testing.T) {
	features := parseAll(t,
		plot("a", 0, ""), plot("b", 1, ""), plot("a", 2, ""), plot("b", 3, ""), plot("a", 4, ""),
	)

	got := duplicatePlotIDs(features)
	want := []string{
		`duplicate plot id "a" used by 3 plots`,
		`duplicate plot id "b" used by 2 plots`,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("duplicatePlotIDs() = %v, want %v", got, want)
	}
}
