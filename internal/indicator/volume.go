package indicator

import "math"

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// VolumeSpike returns latest/mean over the whole volume window. A zero (or
// empty) mean yields 0.
func VolumeSpike(volumes []float64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	avg := Mean(volumes)
	if !(avg > 0) {
		return 0
	}
	r := volumes[len(volumes)-1] / avg
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
