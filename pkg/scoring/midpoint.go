package scoring

import (
	"math"

	"github.com/elonfeng/commutescore/pkg/provider"
)

// Midpoint returns the point halfway along the great circle between a and b.
func Midpoint(a, b provider.Coordinates) provider.Coordinates {
	lat1, lon1 := radians(a.Lat), radians(a.Lng)
	lat2, lon2 := radians(b.Lat), radians(b.Lng)
	dLon := lon2 - lon1

	bx := math.Cos(lat2) * math.Cos(dLon)
	by := math.Cos(lat2) * math.Sin(dLon)

	lat := math.Atan2(math.Sin(lat1)+math.Sin(lat2), math.Hypot(math.Cos(lat1)+bx, by))
	lon := lon1 + math.Atan2(by, math.Cos(lat1)+bx)

	return provider.Coordinates{
		Lat: degrees(lat),
		Lng: normalizeLongitude(degrees(lon)),
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// normalizeLongitude wraps lng into [-180, 180].
func normalizeLongitude(lng float64) float64 {
	lng = math.Mod(lng+540, 360) - 180
	if lng == -180 {
		return 180
	}
	return lng
}
