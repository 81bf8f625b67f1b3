package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 5.0, mean([]float64{5}))
	assert.Equal(t, 2.5, mean([]float64{1, 2, 3, 4}))
}

func TestPercentile(t *testing.T) {
	t.Run("Empty input", func(t *testing.T) {
		assert.Equal(t, 0.0, percentile(nil, 0.5))
	})

	t.Run("Single value", func(t *testing.T) {
		assert.Equal(t, 42.0, percentile([]float64{42}, 0.5))
	})

	t.Run("Median of even count interpolates midpoint", func(t *testing.T) {
		values := make([]float64, 0, 10)
		for v := 1000.0; v <= 10000; v += 1000 {
			values = append(values, v)
		}
		assert.Equal(t, 5500.0, percentile(values, 0.5))
	})

	t.Run("Median of odd count is the middle value", func(t *testing.T) {
		assert.Equal(t, 3.0, percentile([]float64{5, 1, 3, 2, 4}, 0.5))
	})

	t.Run("Bounds", func(t *testing.T) {
		values := []float64{10, 20, 30}
		assert.Equal(t, 10.0, percentile(values, 0))
		assert.Equal(t, 30.0, percentile(values, 1))
	})

	t.Run("Input is not mutated", func(t *testing.T) {
		values := []float64{3, 1, 2}
		percentile(values, 0.5)
		assert.Equal(t, []float64{3, 1, 2}, values)
	})
}

func TestRatioPct(t *testing.T) {
	assert.Equal(t, 0.0, ratioPct(5, 0))
	assert.Equal(t, 50.0, ratioPct(1, 2))
	assert.Equal(t, 33.3, ratioPct(1, 3))
	assert.Equal(t, 66.7, ratioPct(2, 3))
	assert.Equal(t, 100.0, ratioPct(7, 7))
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 1.5, round1(1.46))
	assert.Equal(t, 1.4, round1(1.44))
	assert.Equal(t, 0.0, round1(0))
}
