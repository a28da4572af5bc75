package utils

import "math"

// QuantityEpsilon bounds float drift when comparing contract quantities.
const QuantityEpsilon = 1e-9

// MinFloat returns the smaller of two float64 values.
func MinFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// AbsFloat returns the absolute value of a float64.
func AbsFloat(x float64) float64 {
	return math.Abs(x)
}

// SignFloat returns -1.0 for negative values and 1.0 otherwise.
func SignFloat(x float64) float64 {
	if x < 0 {
		return -1.0
	}
	return 1.0
}

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
