package cache

import (
	"strconv"
	"swissgrid-converter/internal/domain"
)

// pointKey renders an input point with the precision sent to the remote
// service, so points that produce identical requests share one entry.
func pointKey(p domain.Point) string {
	return strconv.FormatFloat(p.E, 'f', 14, 64) + "," + strconv.FormatFloat(p.N, 'f', 14, 64)
}

// uniqueKeys maps each distinct key to the first input point producing it.
func uniqueKeys(points []domain.Point) ([]string, map[string]domain.Point) {
	byKey := make(map[string]domain.Point, len(points))
	keys := make([]string, 0, len(points))
	for _, p := range points {
		k := pointKey(p)
		if _, ok := byKey[k]; ok {
			continue
		}
		byKey[k] = p
		keys = append(keys, k)
	}
	return keys, byKey
}

func validDirection(d domain.Direction) bool {
	return d == domain.LV03ToWGS84 || d == domain.WGS84ToLV03
}
