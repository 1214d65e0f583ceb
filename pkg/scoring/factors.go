package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/elonfeng/commutescore/pkg/provider"
)

const metersPerMile = 1609.34

// MetersToMiles converts a provider distance value to miles.
func MetersToMiles(meters float64) float64 {
	return meters / metersPerMile
}

// bucket is an inclusive upper bound in miles and the score at or below it.
type bucket struct {
	maxMiles float64
	score    float64
}

var (
	drivingBuckets = []bucket{{5, 10}, {10, 9}, {15, 8}, {20, 7}, {25, 6}, {30, 5}, {40, 4}, {50, 3}}
	cyclingBuckets = []bucket{{2, 10}, {5, 9}, {8, 8}, {12, 7}, {15, 6}, {20, 5}, {25, 4}, {30, 3}}
)

// longDistanceScore applies past the last bucket.
const longDistanceScore = 2

func bucketScore(miles float64, buckets []bucket) float64 {
	for _, b := range buckets {
		if miles <= b.maxMiles {
			return b.score
		}
	}
	return longDistanceScore
}

// DistanceScore rates a driving distance in miles: shorter commutes score higher.
func DistanceScore(miles float64) float64 {
	return bucketScore(miles, drivingBuckets)
}

// BikeDistanceScore is DistanceScore with the tighter buckets of a
// comfortable riding range.
func BikeDistanceScore(miles float64) float64 {
	return bucketScore(miles, cyclingBuckets)
}

// TimeOfDayScore rates the departure time in t's location.
// Weekends always score 9; rush hours are checked before quieter windows.
func TimeOfDayScore(t time.Time) float64 {
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return 9
	}

	hour := t.Hour()
	switch {
	case hour >= 7 && hour <= 9, hour >= 16 && hour <= 18:
		return 5
	case hour >= 11 && hour <= 13:
		return 7
	case hour >= 22 || hour <= 5:
		return 10
	case hour >= 10 && hour <= 15:
		return 8
	default:
		return 6
	}
}

// WeatherScore rates driving weather. Deductions stack and the result is
// floored at MinScore.
func WeatherScore(w provider.WeatherData) float64 {
	cond := strings.ToLower(w.Conditions)
	score := 10.0

	if strings.Contains(cond, "rain") || strings.Contains(cond, "drizzle") {
		score -= 2
	}
	if strings.Contains(cond, "snow") || strings.Contains(cond, "sleet") {
		score -= 4
	}
	if strings.Contains(cond, "thunderstorm") {
		score -= 3
	}
	if strings.Contains(cond, "fog") || strings.Contains(cond, "mist") {
		score -= 2
	}

	if w.Temperature < 32 || w.Temperature > 95 {
		score -= 1
	}
	if w.Temperature < 20 || w.Temperature > 100 {
		score -= 2
	}

	if w.WindSpeed > 15 {
		score -= 1
	}
	if w.WindSpeed > 25 {
		score -= 2
	}

	if w.Visibility < 5000 {
		score -= 2
	}

	return math.Max(MinScore, score)
}

// RouteComplexityScore penalizes long routes and routes with many maneuvers.
func RouteComplexityScore(steps []provider.RouteStep) float64 {
	score := 10.0

	if n := len(steps); n > 20 {
		score -= 2
		if n > 30 {
			score -= 1
		}
	}

	if turns := CountSteps(steps, TurnKeywords); turns > 10 {
		score -= 2
		if turns > 15 {
			score -= 1
		}
	}

	return math.Max(MinScore, score)
}

// TrafficLevelScore maps a congestion bucket to a score; unknown levels rate as normal.
func TrafficLevelScore(level provider.TrafficLevel) float64 {
	switch level {
	case provider.TrafficLight:
		return 10
	case provider.TrafficModerate:
		return 5
	case provider.TrafficHeavy:
		return 3
	default:
		return 7
	}
}

// InfrastructureScore rewards lanes, paths and friendly roads on top of the
// provider's own rating. Capped at MaxScore.
func InfrastructureScore(infra provider.InfrastructureData) float64 {
	score := 5.0
	if infra.BikeLanes {
		score += 2
	}
	if infra.BikePaths {
		score += 2
	}
	if infra.BikeFriendlyRoads {
		score += 1
	}
	score += infra.InfrastructureScore * 0.3

	return math.Min(MaxScore, score)
}

// TerrainScore penalizes routes whose steps mention hills or climbs.
func TerrainScore(steps []provider.RouteStep) float64 {
	score := 10.0

	climbs := CountSteps(steps, TerrainKeywords)
	if climbs > 5 {
		score -= 3
	}
	if climbs > 10 {
		score -= 2
	}
	if climbs > 15 {
		score -= 1
	}

	return math.Max(MinScore, score)
}

// BikeSafetyScore combines the provider safety rating with the step count.
func BikeSafetyScore(infra provider.InfrastructureData, steps []provider.RouteStep) float64 {
	score := 5 + infra.SafetyScore*0.4

	switch n := len(steps); {
	case n < 10:
		score += 1
	case n > 20:
		score -= 1
	}

	return math.Min(MaxScore, score)
}

// BikeWeatherScore is 10 in riding weather and otherwise starts from 5.
func BikeWeatherScore(w provider.WeatherData) float64 {
	if w.IsBikeFriendly {
		return 10
	}

	score := 5.0
	if w.Temperature < 40 || w.Temperature > 85 {
		score -= 2
	}
	if w.Temperature < 32 || w.Temperature > 95 {
		score -= 3
	}
	if w.WindSpeed > 10 {
		score -= 1
	}
	if w.WindSpeed > 15 {
		score -= 2
	}

	return math.Max(MinScore, score)
}
