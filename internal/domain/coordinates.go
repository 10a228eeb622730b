package domain

import (
	"iter"
	"regexp"
	"strconv"
)

// coordinateRe matches NAVAREA degree-minute pairs such as "36-50N 075-58W" or
// "01-17.5S 103-48.2E". Seconds are never used in these bulletins.
var coordinateRe = regexp.MustCompile(`\b(\d{1,2})-(\d{1,2}(?:\.\d+)?)\s*([NS])\s+(\d{1,3})-(\d{1,2}(?:\.\d+)?)\s*([EW])`)

// ExtractCoordinates yields every valid coordinate pair found in text, in the
// order it appears. The sequence scans the text once; pairs outside the valid
// range are skipped.
func ExtractCoordinates(text string) iter.Seq[Coordinate] {
	return func(yield func(Coordinate) bool) {
		rest := text
		for {
			loc := coordinateRe.FindStringSubmatchIndex(rest)
			if loc == nil {
				return
			}
			m := func(i int) string { return rest[loc[2*i]:loc[2*i+1]] }

			lat := dmToDecimal(m(1), m(2))
			if m(3) == "S" {
				lat = -lat
			}
			lon := dmToDecimal(m(4), m(5))
			if m(6) == "W" {
				lon = -lon
			}
			rest = rest[loc[1]:]

			c := Coordinate{Lat: lat, Lon: lon}
			if !c.Valid() {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// dmToDecimal converts degrees and (possibly fractional) minutes to decimal
// degrees. The regex guarantees both parts are numeric.
func dmToDecimal(deg, minutes string) float64 {
	d, _ := strconv.ParseFloat(deg, 64)
	m, _ := strconv.ParseFloat(minutes, 64)
	return d + m/60
}

// centroid averages coordinates; ok is false for an empty slice.
func centroid(coords []Coordinate) (Coordinate, bool) {
	if len(coords) == 0 {
		return Coordinate{}, false
	}
	var sumLat, sumLon float64
	for _, c := range coords {
		sumLat += c.Lat
		sumLon += c.Lon
	}
	n := float64(len(coords))
	return Coordinate{Lat: sumLat / n, Lon: sumLon / n}, true
}
