// Package numeric holds the rounding helpers shared by the scoring pipeline.
package numeric

import "math"

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Percent returns 100*part/whole rounded to two places, or fallback when whole is zero.
func Percent(part, whole int, fallback float64) float64 {
	if whole == 0 {
		return fallback
	}
	return Round(float64(part)/float64(whole)*100, 2)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
