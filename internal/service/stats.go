package service

import "math"

// PearsonCorrelation returns r for two equal-length series, or 0 when the
// series are shorter than two points or either has zero variance.
func PearsonCorrelation(xs, ys []float64) float64 {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}

	r := cov / math.Sqrt(varX*varY)
	// Guard against floating-point drift outside [-1, 1].
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// bucketMeans groups ys by the nearest-integer bucket of the paired x and
// returns the mean y per bucket, keeping only buckets with at least
// minSamples observations.
func bucketMeans(xs, ys []float64, minSamples int) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i := range xs {
		b := int(math.Round(xs[i]))
		sums[b] += ys[i]
		counts[b]++
	}
	means := make(map[int]float64)
	for b, c := range counts {
		if c >= minSamples {
			means[b] = sums[b] / float64(c)
		}
	}
	return means
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
