package profile

import (
	"math"
	"sort"
)

// Quartiles holds index-truncated quartiles of a sorted sample.
type Quartiles struct {
	Q1 float64 `json:"q1"`
	Q2 float64 `json:"q2"`
	Q3 float64 `json:"q3"`
}

// Mean returns the arithmetic mean, or 0 for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value, averaging the two middle values of an
// even-sized sample.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := sorted(values)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// Mode returns every most frequent value, ascending.
func Mode(values []float64) []float64 {
	freq := make(map[float64]int, len(values))
	maxFreq := 0
	for _, v := range values {
		freq[v]++
		if freq[v] > maxFreq {
			maxFreq = freq[v]
		}
	}

	modes := []float64{}
	for v, n := range freq {
		if n == maxFreq {
			modes = append(modes, v)
		}
	}
	sort.Float64s(modes)
	return modes
}

// Variance returns the population variance.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// QuartilesOf picks the values at floor(n*0.25), floor(n*0.5) and
// floor(n*0.75) of the sorted sample. No interpolation is done.
func QuartilesOf(values []float64) Quartiles {
	if len(values) == 0 {
		return Quartiles{}
	}
	s := sorted(values)
	n := float64(len(s))
	return Quartiles{
		Q1: s[int(math.Floor(n*0.25))],
		Q2: s[int(math.Floor(n*0.5))],
		Q3: s[int(math.Floor(n*0.75))],
	}
}

// Outliers returns the values outside [Q1-1.5*IQR, Q3+1.5*IQR] in input
// order. Fewer than four values never have outliers.
func Outliers(values []float64) []float64 {
	out := []float64{}
	if len(values) < 4 {
		return out
	}

	q := QuartilesOf(values)
	iqr := q.Q3 - q.Q1
	lower, upper := q.Q1-1.5*iqr, q.Q3+1.5*iqr
	for _, v := range values {
		if v < lower || v > upper {
			out = append(out, v)
		}
	}
	return out
}

// Pearson returns the correlation coefficient of two equally long samples.
// ok is false when there are fewer than two pairs or either side is constant.
func Pearson(x, y []float64) (r float64, ok bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, false
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	fn := float64(n)
	den := math.Sqrt((fn*sumX2 - sumX*sumX) * (fn*sumY2 - sumY*sumY))
	if den == 0 || math.IsNaN(den) {
		return 0, false
	}
	return (fn*sumXY - sumX*sumY) / den, true
}

func sorted(values []float64) []float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	return s
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
