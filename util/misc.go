package util

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func CopyFloatSlice(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
