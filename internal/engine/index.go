package engine

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/twpayne/go-geom"
)

// plotIndex provides O(log n) bounding-box queries over a collection's
// plots using an R-tree. The index is advisory: validation correctness
// never depends on it. Geometry is immutable within a session, so the
// index stays valid across property patches.
type plotIndex struct {
	rtree *rtreego.Rtree
}

// indexedPlot wraps a feature for R-tree storage.
type indexedPlot struct {
	feature *Feature
}

// rectEpsilon pads zero-area bounds (points, degenerate rings); the R-tree
// requires non-zero dimensions.
const rectEpsilon = 0.0001

// Bounds implements rtreego.Spatial.
func (p *indexedPlot) Bounds() rtreego.Rect {
	return boundsToRect(p.feature.Geometry.Bounds())
}

func boundsToRect(b *geom.Bounds) rtreego.Rect {
	point := rtreego.Point{b.Min(0), b.Min(1)}
	lonLength := b.Max(0) - b.Min(0)
	latLength := b.Max(1) - b.Min(1)
	if lonLength < rectEpsilon {
		lonLength = rectEpsilon
	}
	if latLength < rectEpsilon {
		latLength = rectEpsilon
	}
	rect, _ := rtreego.NewRect(point, []float64{lonLength, latLength})
	return rect
}

// buildPlotIndex indexes every feature with a decodable geometry.
// Returns nil for an empty collection.
func buildPlotIndex(features []*Feature) *plotIndex {
	rtree := rtreego.NewTree(2, 25, 50)
	indexed := 0
	for _, feature := range features {
		if feature.Geometry == nil {
			continue
		}
		rtree.Insert(&indexedPlot{feature: feature})
		indexed++
	}
	if indexed == 0 {
		return nil
	}
	return &plotIndex{rtree: rtree}
}

// InBounds returns the features whose bounding boxes intersect the given
// lon/lat box. Order is unspecified; callers map results back to rows by
// plot ID.
func (idx *plotIndex) InBounds(minLon, minLat, maxLon, maxLat float64) []*Feature {
	if idx == nil || idx.rtree == nil {
		return nil
	}

	lonLength := maxLon - minLon
	latLength := maxLat - minLat
	if lonLength < rectEpsilon {
		lonLength = rectEpsilon
	}
	if latLength < rectEpsilon {
		latLength = rectEpsilon
	}
	queryRect, _ := rtreego.NewRect(rtreego.Point{minLon, minLat}, []float64{lonLength, latLength})

	spatials := idx.rtree.SearchIntersect(queryRect)
	result := make([]*Feature, 0, len(spatials))
	for _, spatial := range spatials {
		result = append(result, spatial.(*indexedPlot).feature)
	}
	return result
}

// overlapWarnings screens polygon plots for bounding-box overlap. Plots
// claimed as distinct origin parcels should not cover the same ground;
// bounding boxes only yield candidates, so this is an advisory warning,
// not a gating error.
func overlapWarnings(features []*Feature) []string {
	polygons := make([]*Feature, 0, len(features))
	for _, feature := range features {
		if _, ok := feature.Geometry.(*geom.Polygon); ok {
			polygons = append(polygons, feature)
		}
	}
	if len(polygons) < 2 {
		return nil
	}

	idx := buildPlotIndex(polygons)
	if idx == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var warnings []string
	for _, feature := range polygons {
		for _, other := range idx.InBounds(polygonBox(feature)) {
			if other == feature {
				continue
			}
			a, b := feature.PlotID, other.PlotID
			if a > b {
				a, b = b, a
			}
			key := a + "\x00" + b
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			warnings = append(warnings, fmt.Sprintf("plots %q and %q have overlapping bounds", a, b))
		}
	}
	sort.Strings(warnings)
	return warnings
}

func polygonBox(feature *Feature) (minLon, minLat, maxLon, maxLat float64) {
	b := feature.Geometry.Bounds()
	return b.Min(0), b.Min(1), b.Max(0), b.Max(1)
}
