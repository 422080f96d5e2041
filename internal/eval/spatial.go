package eval

import (
	"math"

	"github.com/grafito-db/grafito/internal/gerrors"
	"github.com/grafito-db/grafito/internal/values"
)

// fnPoint builds a point from a map literal with x/y (Cartesian) or
// longitude/latitude (geographic) keys, per §4.6.
func fnPoint(args []values.Value) (values.Value, error) {
	m, ok := arg(args, 0).Map()
	if !ok {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "point: expected a map argument"}
	}
	if lon, ok := numField(m, "longitude"); ok {
		lat, _ := numField(m, "latitude")
		srid := 4326
		if sv, ok := m["srid"]; ok {
			if i, ok := sv.Int(); ok {
				srid = int(i)
			}
		}
		return values.FromPoint(values.Point{X: lon, Y: lat, Geographic: true, SRID: srid}), nil
	}
	x, _ := numField(m, "x")
	y, _ := numField(m, "y")
	srid := 7203
	if sv, ok := m["srid"]; ok {
		if i, ok := sv.Int(); ok {
			srid = int(i)
		}
	}
	return values.FromPoint(values.Point{X: x, Y: y, SRID: srid}), nil
}

func numField(m map[string]values.Value, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.Number()
}

// fnDistance computes Euclidean distance for Cartesian points and
// haversine great-circle distance (in meters) for geographic points.
func fnDistance(args []values.Value) (values.Value, error) {
	a, b := arg(args, 0), arg(args, 1)
	if a.Kind() == values.KindNull || b.Kind() == values.KindNull {
		return values.Null(), nil
	}
	pa, ok1 := a.Point()
	pb, ok2 := b.Point()
	if !ok1 || !ok2 {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "distance: expected two points"}
	}
	if pa.Geographic != pb.Geographic {
		return values.Value{}, &gerrors.QueryExecutionError{Message: "distance: cannot mix Cartesian and geographic points"}
	}
	if !pa.Geographic {
		dx := pa.X - pb.X
		dy := pa.Y - pb.Y
		return values.Float(math.Sqrt(dx*dx + dy*dy)), nil
	}
	const earthRadiusM = 6371000.0
	lat1, lon1 := pa.Y*math.Pi/180, pa.X*math.Pi/180
	lat2, lon2 := pb.Y*math.Pi/180, pb.X*math.Pi/180
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return values.Float(earthRadiusM * c), nil
}
