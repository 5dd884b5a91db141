package engine

import (
	"math"
	"testing"

	"github.com/twpayne/go-geom"
)

// polygonFeature builds a plot feature from a raw coordinates literal.
func polygonFeature(t *testing.T, coordinates, properties string) *Feature {
	t.Helper()
	return parseOne(t, `{
		"type": "Feature",
		"geometry": {"type": "Polygon", "coordinates": `+coordinates+`},
		"properties": `+properties+`
	}`)
}

func TestValidateGeometryPolygon(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		coordinates string
		step        string
		wantPassed  bool
	}{
		{
			"convex square valid",
			`[[[0,0],[0.001,0],[0.001,0.001],[0,0.001],[0,0]]]`,
			StepSelfIntersection, true,
		},
		{
			"bowtie self-intersects",
			`[[[0,0],[1,1],[1,0],[0,1],[0,0]]]`,
			StepSelfIntersection, false,
		},
		{
			"hole crossing outer ring",
			`[[[0,0],[4,0],[4,4],[0,4],[0,0]],[[2,2],[6,2],[6,3],[2,3],[2,2]]]`,
			StepSelfIntersection, false,
		},
		{
			"closed ring",
			`[[[0,0],[1,0],[1,1],[0,1],[0,0]]]`,
			StepRingClosure, true,
		},
		{
			"unclosed ring",
			`[[[0,0],[1,0],[1,1],[0,1]]]`,
			StepRingClosure, false,
		},
		{
			"too few coordinates",
			`[[[0,0],[1,0],[0,0]]]`,
			StepRingClosure, false,
		},
		{
			"longitude out of range",
			`[[[0,0],[200,0],[200,1],[0,1],[0,0]]]`,
			StepCoordinateBounds, false,
		},
		{
			"latitude out of range",
			`[[[0,0],[1,0],[1,-91],[0,1],[0,0]]]`,
			StepCoordinateBounds, false,
		},
		{
			"bounds at the edge pass",
			`[[[-180,-90],[180,-90],[180,90],[-180,90],[-180,-90]]]`,
			StepCoordinateBounds, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature := polygonFeature(t, tt.coordinates, `{"plotId": "p"}`)
			steps := ValidateGeometry(feature, cfg)
			step := findStep(t, steps, tt.step)
			if step.Passed != tt.wantPassed {
				t.Errorf("step %q passed = %v (%s), want %v", tt.step, step.Passed, step.Message, tt.wantPassed)
			}
		})
	}
}

func TestValidateGeometryTypeWhitelist(t *testing.T) {
	cfg := DefaultConfig()
	feature := parseOne(t, `{
		"type": "Feature",
		"geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]},
		"properties": {"plotId": "p"}
	}`)

	steps := ValidateGeometry(feature, cfg)
	if len(steps) != 1 {
		t.Fatalf("unsupported type ran %d steps, want the single short-circuit step", len(steps))
	}
	if steps[0].Name != StepGeometryType || steps[0].Passed {
		t.Errorf("step = %+v, want failed %q", steps[0], StepGeometryType)
	}
}

func TestValidateGeometryMalformedCoordinates(t *testing.T) {
	cfg := DefaultConfig()
	feature := parseOne(t, `{
		"type": "Feature",
		"geometry": {"type": "Polygon", "coordinates": "nope"},
		"properties": {"plotId": "p"}
	}`)

	steps := ValidateGeometry(feature, cfg)
	step := findStep(t, steps, StepCoordinates)
	if step.Passed {
		t.Errorf("coordinates step passed for undecodable geometry")
	}
}

func TestValidateGeometryPoint(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		coordinates string
		step        string
		wantPassed  bool
	}{
		{"valid point", `[10, 20]`, StepCoordinateBounds, true},
		{"longitude out of range", `[181, 0]`, StepCoordinateBounds, false},
		{"latitude out of range", `[0, 95]`, StepCoordinateBounds, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature := parseOne(t, `{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": `+tt.coordinates+`},
				"properties": {"plotId": "p"}
			}`)
			steps := ValidateGeometry(feature, cfg)
			step := findStep(t, steps, tt.step)
			if step.Passed != tt.wantPassed {
				t.Errorf("step %q passed = %v (%s), want %v", tt.step, step.Passed, step.Message, tt.wantPassed)
			}
		})
	}
}

func TestAreaConsistency(t *testing.T) {
	cfg := DefaultConfig()

	square := `[[[0,0],[0.001,0],[0.001,0.001],[0,0.001],[0,0]]]`

	tests := []struct {
		name       string
		properties string
		wantPassed bool
	}{
		// The square computes to roughly 1.24 ha at the equator.
		{"declared matches computed", `{"plotId": "p", "area": 1.24, "producerCountry": "BR"}`, true},
		{"declared far from computed", `{"plotId": "p", "area": 5.0, "producerCountry": "BR"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feature := polygonFeature(t, square, tt.properties)
			steps := ValidateGeometry(feature, cfg)
			step := findStep(t, steps, StepAreaConsistency)
			if step.Passed != tt.wantPassed {
				t.Errorf("area consistency passed = %v (%s), want %v", step.Passed, step.Message, tt.wantPassed)
			}
		})
	}

	t.Run("no declared area skips the check", func(t *testing.T) {
		feature := polygonFeature(t, square, `{"plotId": "p"}`)
		for _, step := range ValidateGeometry(feature, cfg) {
			if step.Name == StepAreaConsistency {
				t.Errorf("area consistency ran without a declared area")
			}
		}
	})
}

func TestSegmentsCross(t *testing.T) {
	c := func(x, y float64) []float64 { return []float64{x, y} }

	tests := []struct {
		name           string
		p1, p2, q1, q2 []float64
		want           bool
	}{
		{"proper cross", c(0, 0), c(2, 2), c(0, 2), c(2, 0), true},
		{"disjoint", c(0, 0), c(1, 0), c(0, 1), c(1, 1), false},
		{"shared endpoint excluded", c(0, 0), c(1, 1), c(1, 1), c(2, 0), false},
		{"endpoint on interior", c(0, 0), c(2, 0), c(1, 0), c(1, 1), true},
		{"collinear overlap", c(0, 0), c(2, 0), c(1, 0), c(3, 0), true},
		{"parallel", c(0, 0), c(2, 0), c(0, 1), c(2, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := segmentsCross(tt.p1, tt.p2, tt.q1, tt.q2); got != tt.want {
				t.Errorf("segmentsCross() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputedAreaHectares(t *testing.T) {
	feature := polygonFeature(t, `[[[0,0],[0.001,0],[0.001,0.001],[0,0.001],[0,0]]]`, `{"plotId": "p"}`)
	poly, ok := feature.Geometry.(*geom.Polygon)
	if !ok {
		t.Fatalf("geometry decoded as %T, want *geom.Polygon", feature.Geometry)
	}

	// 0.001 x 0.001 degrees near the equator is about 1.2392 ha.
	got := computedAreaHectares(poly)
	if math.Abs(got-1.2392) > 0.001 {
		t.Errorf("computedAreaHectares() = %v, want about 1.2392", got)
	}
}
