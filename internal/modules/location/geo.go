// README: Package location — geo contains pure geographic computation helpers.
package location

import (
	"github.com/golang/geo/s2"
	h3 "github.com/uber/h3-go/v4"

	"pickup/internal/types"
)

const earthRadiusM = 6371000.0

// CellID discretizes a coordinate into an H3 hexagon id at the given
// resolution (9 ≈ 174 m hexagons).
func CellID(p types.Point, resolution int) string {
	return h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), resolution).String()
}

// CellsWithinRing reports whether two H3 cells are within k rings of each
// other. Identical cells are within any ring, including k=0.
func CellsWithinRing(a, b string, k int) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if k <= 0 {
		return false
	}
	ca := h3.Cell(h3.IndexFromString(a))
	cb := h3.Cell(h3.IndexFromString(b))
	dist := h3.GridDistance(ca, cb)
	return dist >= 0 && dist <= k
}

// DistanceM returns the great-circle distance in metres between two points.
func DistanceM(a, b types.Point) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lng)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return la.Distance(lb).Radians() * earthRadiusM
}
