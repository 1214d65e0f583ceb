package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeightsAreValid(t *testing.T) {
	require.NoError(t, DefaultTrafficWeights().Check(TrafficFactors))
	require.NoError(t, DefaultBikeWeights().Check(BikeFactors))
}

func TestWeightsCheck(t *testing.T) {
	w := DefaultTrafficWeights()
	w["historicalData"] = 0
	assert.ErrorContains(t, w.Check(TrafficFactors), "unknown factor")

	w = DefaultTrafficWeights()
	delete(w, FactorTimeOfDay)
	assert.ErrorContains(t, w.Check(TrafficFactors), "missing weight")

	w = DefaultBikeWeights()
	w[FactorSafety] = -0.15
	w[FactorDistance] = 0.65
	assert.ErrorContains(t, w.Check(BikeFactors), "negative weight")

	w = DefaultBikeWeights()
	w[FactorWeather] = 0.5
	assert.ErrorContains(t, w.Check(BikeFactors), "sum")
}

func TestCombine(t *testing.T) {
	factors := map[Factor]float64{
		FactorDistance:        10,
		FactorTimeOfDay:       5,
		FactorWeather:         10,
		FactorRouteComplexity: 10,
		FactorTrafficLevel:    7,
	}
	assert.InDelta(t, 8.45, Combine(factors, DefaultTrafficWeights()), 1e-9)
}

func TestCombineIsOrderStable(t *testing.T) {
	factors := map[Factor]float64{
		FactorDistance:        9.7,
		FactorTimeOfDay:       3.3,
		FactorWeather:         7.1,
		FactorRouteComplexity: 5.9,
		FactorTrafficLevel:    6.7,
	}
	w := Weights{
		FactorDistance:        0.1,
		FactorTimeOfDay:       0.2,
		FactorWeather:         0.3,
		FactorRouteComplexity: 0.17,
		FactorTrafficLevel:    0.23,
	}

	var want float64
	for _, f := range []Factor{FactorDistance, FactorRouteComplexity, FactorTimeOfDay, FactorTrafficLevel, FactorWeather} {
		want += factors[f] * w[f]
	}
	for range 50 {
		assert.Equal(t, want, Combine(factors, w))
	}
}

func TestCombineClamps(t *testing.T) {
	all := func(v float64) map[Factor]float64 {
		return map[Factor]float64{FactorDistance: v, FactorTimeOfDay: v, FactorWeather: v, FactorRouteComplexity: v, FactorTrafficLevel: v}
	}

	heavy := Weights{FactorDistance: 1, FactorTimeOfDay: 1, FactorWeather: 1, FactorRouteComplexity: 1, FactorTrafficLevel: 1}
	assert.Equal(t, MaxScore, Combine(all(10), heavy))

	light := Weights{FactorDistance: 0.01}
	assert.Equal(t, MinScore, Combine(all(10), light))
	assert.Equal(t, MinScore, Combine(all(1), DefaultTrafficWeights().scaled(0.5)))
}

func TestWeightsCloneIsIndependent(t *testing.T) {
	w := DefaultBikeWeights()
	c := w.Clone()
	c[FactorDistance] = 0
	assert.Equal(t, 0.35, w[FactorDistance])
}

func (w Weights) scaled(k float64) Weights {
	out := w.Clone()
	for f := range out {
		out[f] *= k
	}
	return out
}
