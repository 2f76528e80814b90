package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutliers(t *testing.T) {
	assert.Equal(t, []float64{100}, Outliers([]float64{1, 2, 3, 4, 5, 100}))
	assert.Equal(t, []float64{-50, 90}, Outliers([]float64{10, -50, 11, 12, 90, 13, 12, 11}))

	for _, small := range [][]float64{nil, {1}, {1, 1000}, {1, 2, 1e9}} {
		assert.Empty(t, Outliers(small))
		assert.NotNil(t, Outliers(small))
	}
}

func TestQuartilesOf(t *testing.T) {
	q := QuartilesOf([]float64{100, 5, 4, 3, 2, 1})
	assert.Equal(t, Quartiles{Q1: 2, Q2: 4, Q3: 5}, q)
	assert.Equal(t, Quartiles{}, QuartilesOf(nil))
}

func TestCentralTendency(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 4.5, Median(values), 1e-9)
	assert.InDelta(t, 4.0, Variance(values), 1e-9)
	assert.InDelta(t, 2.0, StdDev(values), 1e-9)
	assert.Equal(t, []float64{4}, Mode(values))

	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	assert.Equal(t, []float64{1, 2}, Mode([]float64{2, 1, 2, 1}))
	assert.Equal(t, 0.0, Mean(nil))
}

func TestPearson(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, r, 1e-9)

	r, ok = Pearson([]float64{1, 2, 3, 4}, []float64{8, 6, 4, 2})
	assert.True(t, ok)
	assert.InDelta(t, -1.0, r, 1e-9)

	_, ok = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.False(t, ok, "constant column")

	_, ok = Pearson([]float64{1}, []float64{1})
	assert.False(t, ok, "single pair")
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{3, 1, 2})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, 2.0, s.Range)
	assert.Equal(t, []float64{1, 2, 3}, s.Mode)
	assert.Empty(t, s.Outliers)
}
