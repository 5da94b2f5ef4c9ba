package service

import (
	"math"
	"sort"
	"strconv"
	"strings"

	apperrors "natours/internal/errors"
	"natours/internal/model"
)

// Unit is a distance unit accepted by the geo endpoints.
type Unit string

const (
	UnitMiles      Unit = "mi"
	UnitKilometers Unit = "km"
)

const (
	earthRadiusMi = 3963.2
	earthRadiusKm = 6378.1
)

// radius returns the earth radius in u. Anything other than mi is treated as km.
func (u Unit) radius() float64 {
	if u == UnitMiles {
		return earthRadiusMi
	}
	return earthRadiusKm
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// ParseLatLng parses "lat,lng".
func ParseLatLng(s string) (Point, error) {
	latStr, lngStr, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, apperrors.ErrInvalidLatLng
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil || lat < -90 || lat > 90 {
		return Point{}, apperrors.ErrInvalidLatLng
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil || lng < -180 || lng > 180 {
		return Point{}, apperrors.ErrInvalidLatLng
	}
	return Point{Lat: lat, Lng: lng}, nil
}

// distance returns the great-circle distance between a and b in u.
func distance(a, b Point, u Unit) float64 {
	return angularDistance(a, b) * u.radius()
}

// angularDistance is the haversine central angle between two points, in radians.
func angularDistance(a, b Point) float64 {
	lat1, lat2 := toRadians(a.Lat), toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func startPoint(t *model.Tour) Point {
	return Point{Lat: t.StartLocation.Lat(), Lng: t.StartLocation.Lng()}
}

// TourDistance is a tour name with its distance from a reference point.
type TourDistance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// withinRadius keeps the tours whose start location lies within dist of center.
func withinRadius(tours []model.Tour, center Point, dist float64, u Unit) []model.Tour {
	maxAngle := dist / u.radius()
	out := make([]model.Tour, 0, len(tours))
	for i := range tours {
		if angularDistance(center, startPoint(&tours[i])) <= maxAngle {
			out = append(out, tours[i])
		}
	}
	return out
}

// distancesFrom returns every tour's distance from center, nearest first.
func distancesFrom(tours []model.Tour, center Point, u Unit) []TourDistance {
	out := make([]TourDistance, 0, len(tours))
	for i := range tours {
		out = append(out, TourDistance{
			ID:       tours[i].ID.String(),
			Name:     tours[i].Name,
			Distance: distance(center, startPoint(&tours[i]), u),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
