package scoring

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Factor names one component of a weighted score.
type Factor string

const (
	FactorDistance        Factor = "distance"
	FactorTimeOfDay       Factor = "timeOfDay"
	FactorWeather         Factor = "weather"
	FactorRouteComplexity Factor = "routeComplexity"
	FactorTrafficLevel    Factor = "trafficLevel"
	FactorInfrastructure  Factor = "infrastructure"
	FactorTerrain         Factor = "terrain"
	FactorSafety          Factor = "safety"
)

// Display order of the factors for each score kind.
var (
	TrafficFactors = []Factor{FactorDistance, FactorTimeOfDay, FactorWeather, FactorRouteComplexity, FactorTrafficLevel}
	BikeFactors    = []Factor{FactorDistance, FactorInfrastructure, FactorTerrain, FactorSafety, FactorWeather}
)

const (
	MinScore = 1.0
	MaxScore = 10.0
)

// Weights maps each factor of one score kind to its share of the total.
type Weights map[Factor]float64

// DefaultTrafficWeights returns the stock traffic weighting.
func DefaultTrafficWeights() Weights {
	return Weights{
		FactorDistance:        0.30,
		FactorTimeOfDay:       0.25,
		FactorWeather:         0.20,
		FactorRouteComplexity: 0.15,
		FactorTrafficLevel:    0.10,
	}
}

// DefaultBikeWeights returns the stock bike weighting.
func DefaultBikeWeights() Weights {
	return Weights{
		FactorDistance:       0.35,
		FactorInfrastructure: 0.25,
		FactorTerrain:        0.20,
		FactorSafety:         0.15,
		FactorWeather:        0.05,
	}
}

func (w Weights) Clone() Weights {
	return maps.Clone(w)
}

func (w Weights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Check verifies w covers exactly the given factors with non-negative
// weights that add up to 1.
func (w Weights) Check(factors []Factor) error {
	allowed := make(map[Factor]bool, len(factors))
	for _, f := range factors {
		allowed[f] = true
		if _, ok := w[f]; !ok {
			return fmt.Errorf("missing weight for %q", f)
		}
	}
	for f, v := range w {
		if !allowed[f] {
			return fmt.Errorf("unknown factor %q", f)
		}
		if v < 0 {
			return fmt.Errorf("negative weight %v for %q", v, f)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights sum to %v, want 1", sum)
	}
	return nil
}

// Combine is the weighted sum of factor scores, clamped to [MinScore, MaxScore].
// Factors without a weight contribute nothing. Terms are added in factor
// name order so equal inputs give bit-identical scores.
func Combine(factors map[Factor]float64, w Weights) float64 {
	var total float64
	for _, f := range slices.Sorted(maps.Keys(w)) {
		total += factors[f] * w[f]
	}
	return Clamp(total)
}

func Clamp(score float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, score))
}
