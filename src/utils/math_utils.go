package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places.
// Rounding happens at presentation time only, never mid-aggregation.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
