package engine

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// Geometry step names, in the order the checks run.
const (
	StepGeometryType     = "geometry-type"
	StepCoordinates      = "coordinates"
	StepPointCoordinate  = "point-coordinate"
	StepCoordinateBounds = "coordinate-bounds"
	StepRingClosure      = "ring-closure"
	StepSelfIntersection = "self-intersection"
	StepAreaConsistency  = "area-consistency"
)

// metersPerDegree is the approximate length of one degree of latitude.
// Longitude degrees are scaled by the cosine of the ring's mean latitude.
const metersPerDegree = 111320.0

// ValidateGeometry runs the structural and metric geometry checks for one
// plot and returns one ordered step per check.
//
// It never returns an error and never mutates the feature: malformed
// coordinate data (wrong nesting, mixed dimensions) degrades to a single
// failed coordinates step, and an unsupported geometry type short-circuits
// the remaining checks for that plot.
func ValidateGeometry(feature *Feature, cfg Config) []Step {
	if !cfg.SupportedGeometry(feature.GeometryType) {
		return []Step{{
			Name:    StepGeometryType,
			Passed:  false,
			Message: fmt.Sprintf("unsupported geometry type %q", feature.GeometryType),
		}}
	}
	steps := []Step{{Name: StepGeometryType, Passed: true}}

	if feature.Geometry == nil {
		return append(steps, Step{
			Name:    StepCoordinates,
			Passed:  false,
			Message: "malformed coordinates: could not be decoded for the declared geometry type",
		})
	}

	switch g := feature.Geometry.(type) {
	case *geom.Point:
		steps = append(steps, validatePoint(g)...)
	case *geom.Polygon:
		steps = append(steps, validatePolygon(g, feature, cfg)...)
	default:
		// Declared type passed the whitelist but decoded to something
		// else entirely; treat as coordinate damage.
		steps = append(steps, Step{
			Name:    StepCoordinates,
			Passed:  false,
			Message: fmt.Sprintf("coordinates do not match declared geometry type %q", feature.GeometryType),
		})
	}
	return steps
}

// validatePoint checks that a Point is a single 2-element position inside
// geographic bounds.
func validatePoint(point *geom.Point) []Step {
	steps := make([]Step, 0, 2)

	if point.Stride() != 2 {
		steps = append(steps, Step{
			Name:    StepPointCoordinate,
			Passed:  false,
			Message: fmt.Sprintf("point coordinate must have exactly 2 values [lon, lat], got %d", point.Stride()),
		})
	} else {
		steps = append(steps, Step{Name: StepPointCoordinate, Passed: true})
	}

	coords := point.Coords()
	if len(coords) >= 2 {
		if msg, ok := checkBounds(coords[0], coords[1]); !ok {
			steps = append(steps, Step{
				Name:    StepCoordinateBounds,
				Passed:  false,
				Message: fmt.Sprintf("coordinate 0 %s", msg),
			})
			return steps
		}
	}
	steps = append(steps, Step{Name: StepCoordinateBounds, Passed: true})
	return steps
}

// validatePolygon runs the polygon checks: coordinate bounds, ring
// closure, self-intersection within and across rings, and declared-area
// consistency.
func validatePolygon(poly *geom.Polygon, feature *Feature, cfg Config) []Step {
	rings := poly.Coords()
	steps := make([]Step, 0, 4)

	if len(rings) == 0 {
		return append(steps, Step{
			Name:    StepCoordinates,
			Passed:  false,
			Message: "polygon has no rings",
		})
	}

	steps = append(steps, checkCoordinateBounds(rings))
	steps = append(steps, checkRingClosure(rings[0]))
	steps = append(steps, checkSelfIntersection(rings))

	if declared, ok := declaredArea(feature); ok {
		steps = append(steps, checkAreaConsistency(poly, declared, cfg.AreaTolerance))
	}
	return steps
}

// checkBounds validates one position against geographic bounds.
// Returns (message, false) on violation.
func checkBounds(lon, lat float64) (string, bool) {
	if !isFiniteNumber(lon) || !isFiniteNumber(lat) {
		return fmt.Sprintf("is not finite: [%v, %v]", lon, lat), false
	}
	if lon < -180.0 || lon > 180.0 {
		return fmt.Sprintf("longitude %v out of range [-180, 180]", lon), false
	}
	if lat < -90.0 || lat > 90.0 {
		return fmt.Sprintf("latitude %v out of range [-90, 90]", lat), false
	}
	return "", true
}

// checkCoordinateBounds validates every ring position, reporting the first
// offending ring and coordinate index.
func checkCoordinateBounds(rings [][]geom.Coord) Step {
	for r, ring := range rings {
		for i, coord := range ring {
			if len(coord) < 2 {
				return Step{
					Name:    StepCoordinateBounds,
					Passed:  false,
					Message: fmt.Sprintf("ring %d coordinate %d has fewer than 2 values", r, i),
				}
			}
			if msg, ok := checkBounds(coord[0], coord[1]); !ok {
				return Step{
					Name:    StepCoordinateBounds,
					Passed:  false,
					Message: fmt.Sprintf("ring %d coordinate %d %s", r, i, msg),
				}
			}
		}
	}
	return Step{Name: StepCoordinateBounds, Passed: true}
}

// checkRingClosure requires the outer ring to have at least 4 positions
// with the first equal to the last. An unclosed ring is reported, never
// silently corrected.
func checkRingClosure(outer []geom.Coord) Step {
	if len(outer) < 4 {
		return Step{
			Name:    StepRingClosure,
			Passed:  false,
			Message: fmt.Sprintf("outer ring has %d coordinates, a closed ring needs at least 4", len(outer)),
		}
	}
	first, last := outer[0], outer[len(outer)-1]
	if len(first) < 2 || len(last) < 2 || first[0] != last[0] || first[1] != last[1] {
		return Step{
			Name:    StepRingClosure,
			Passed:  false,
			Message: "outer ring is not closed: first and last coordinates differ",
		}
	}
	return Step{Name: StepRingClosure, Passed: true}
}

// checkSelfIntersection runs the pairwise segment test across all
// non-adjacent edge pairs of each ring, and across every edge pair of
// distinct rings. O(n²) in vertex count, which is acceptable for plots of
// at most a few hundred vertices.
func checkSelfIntersection(rings [][]geom.Coord) Step {
	for r, ring := range rings {
		if i, j, crossed := ringSelfCrossing(ring); crossed {
			return Step{
				Name:    StepSelfIntersection,
				Passed:  false,
				Message: fmt.Sprintf("ring %d self-intersects: edge %d crosses edge %d", r, i, j),
			}
		}
	}
	for a := 0; a < len(rings); a++ {
		for b := a + 1; b < len(rings); b++ {
			if i, j, crossed := ringsCrossing(rings[a], rings[b]); crossed {
				return Step{
					Name:    StepSelfIntersection,
					Passed:  false,
					Message: fmt.Sprintf("ring %d edge %d crosses ring %d edge %d", a, i, b, j),
				}
			}
		}
	}
	return Step{Name: StepSelfIntersection, Passed: true}
}

// ringSelfCrossing tests all non-adjacent edge pairs of one ring.
// Adjacent edges share a vertex and are excluded, as is any pair sharing
// an endpoint (the closing edge shares the ring's first coordinate).
func ringSelfCrossing(ring []geom.Coord) (int, int, bool) {
	edges := len(ring) - 1
	for i := 0; i < edges; i++ {
		for j := i + 2; j < edges; j++ {
			if segmentsCross(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// ringsCrossing tests every edge of ring a against every edge of ring b.
func ringsCrossing(a, b []geom.Coord) (int, int, bool) {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if segmentsCross(a[i], a[i+1], b[j], b[j+1]) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// segmentsCross reports whether segments p1-p2 and q1-q2 cross. Segments
// that share an endpoint do not cross; an endpoint of one segment lying in
// the interior of the other does.
func segmentsCross(p1, p2, q1, q2 geom.Coord) bool {
	if sameXY(p1, q1) || sameXY(p1, q2) || sameXY(p2, q1) || sameXY(p2, q2) {
		return false
	}

	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear touches: an endpoint resting on the other segment.
	if d1 == 0 && onSegment(q1, q2, p1) {
		return true
	}
	if d2 == 0 && onSegment(q1, q2, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, q2) {
		return true
	}
	return false
}

// orientation returns the signed cross product of (b-a) and (c-a):
// positive for counter-clockwise, negative for clockwise, zero for
// collinear.
func orientation(a, b, c geom.Coord) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether collinear point p lies within segment a-b.
func onSegment(a, b, p geom.Coord) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}

func sameXY(a, b geom.Coord) bool {
	return len(a) >= 2 && len(b) >= 2 && a[0] == b[0] && a[1] == b[1]
}

// checkAreaConsistency compares the computed planar area against the
// declared hectares within a relative tolerance. A mismatch is its own
// error category: it flags a suspect declaration, not a geometry defect,
// so the UI can explain the discrepancy separately.
func checkAreaConsistency(poly *geom.Polygon, declaredHa, tolerance float64) Step {
	computedHa := computedAreaHectares(poly)
	diff := math.Abs(computedHa - declaredHa) / declaredHa
	if diff > tolerance {
		return Step{
			Name:   StepAreaConsistency,
			Passed: false,
			Message: fmt.Sprintf("declared area %.2f ha differs from computed area %.2f ha by %.0f%% (tolerance %.0f%%)",
				declaredHa, computedHa, diff*100, tolerance*100),
		}
	}
	return Step{Name: StepAreaConsistency, Passed: true}
}

// computedAreaHectares computes the polygon's planar area with the
// shoelace formula over raw lon/lat coordinates and scales degrees to
// meters at the outer ring's mean latitude.
//
// This is a deliberate planar approximation: geodesic and ellipsoidal
// correction are out of scope, and for parcel-scale polygons the error is
// well inside the configured tolerance.
func computedAreaHectares(poly *geom.Polygon) float64 {
	areaDeg := math.Abs(poly.Area())

	meanLat := 0.0
	outer := poly.Coords()
	if len(outer) > 0 && len(outer[0]) > 0 {
		for _, coord := range outer[0] {
			if len(coord) >= 2 {
				meanLat += coord[1]
			}
		}
		meanLat /= float64(len(outer[0]))
	}

	lonMeters := metersPerDegree * math.Cos(meanLat*math.Pi/180)
	latMeters := metersPerDegree
	return areaDeg * lonMeters * latMeters / 10000.0
}
