package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elonfeng/commutescore/pkg/provider"
)

func steps(n int, instruction string) []provider.RouteStep {
	out := make([]provider.RouteStep, n)
	for i := range out {
		out[i].Instruction = instruction
	}
	return out
}

func TestDistanceScoreBoundaries(t *testing.T) {
	tests := []struct {
		miles float64
		want  float64
	}{
		{0, 10}, {5, 10}, {5.01, 9}, {10, 9}, {15, 8}, {20, 7},
		{25, 6}, {30, 5}, {40, 4}, {50, 3}, {50.01, 2}, {500, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DistanceScore(tt.miles), "%v miles", tt.miles)
	}
}

func TestBikeDistanceScoreBoundaries(t *testing.T) {
	tests := []struct {
		miles float64
		want  float64
	}{
		{0, 10}, {2, 10}, {2.01, 9}, {5, 9}, {8, 8}, {12, 7},
		{15, 6}, {20, 5}, {25, 4}, {30, 3}, {30.01, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BikeDistanceScore(tt.miles), "%v miles", tt.miles)
	}
}

func TestDistanceScoresNonIncreasing(t *testing.T) {
	prev, prevBike := DistanceScore(0), BikeDistanceScore(0)
	for m := 0.0; m <= 80; m += 0.25 {
		cur, curBike := DistanceScore(m), BikeDistanceScore(m)
		require.LessOrEqual(t, cur, prev, "driving at %v miles", m)
		require.LessOrEqual(t, curBike, prevBike, "cycling at %v miles", m)
		prev, prevBike = cur, curBike
	}
}

func TestTimeOfDayScore(t *testing.T) {
	// 2026-10-14 is a Wednesday.
	day := func(d, hour int) time.Time { return time.Date(2026, 10, d, hour, 30, 0, 0, time.UTC) }
	require.Equal(t, time.Wednesday, day(14, 0).Weekday())

	for hour := 0; hour < 24; hour++ {
		assert.Equal(t, 9.0, TimeOfDayScore(day(17, hour)), "saturday %d:30", hour)
		assert.Equal(t, 9.0, TimeOfDayScore(day(18, hour)), "sunday %d:30", hour)
	}

	weekday := map[int]float64{
		0: 10, 1: 10, 2: 10, 3: 10, 4: 10, 5: 10,
		6:  6,
		7:  5, 8: 5, 9: 5,
		10: 8,
		11: 7, 12: 7, 13: 7,
		14: 8, 15: 8,
		16: 5, 17: 5, 18: 5,
		19: 6, 20: 6, 21: 6,
		22: 10, 23: 10,
	}
	for hour, want := range weekday {
		assert.Equal(t, want, TimeOfDayScore(day(14, hour)), "wednesday %d:30", hour)
	}
}

func clearWeather() provider.WeatherData {
	return provider.WeatherData{Temperature: 70, WindSpeed: 5, Conditions: "Clear", Visibility: 10000}
}

func TestWeatherScore(t *testing.T) {
	assert.Equal(t, 10.0, WeatherScore(clearWeather()))

	snowy := provider.WeatherData{Temperature: 20, Conditions: "Snow", WindSpeed: 25, Visibility: 10000}
	// snow -4, below freezing -1, wind over 15 -1
	assert.Equal(t, 4.0, WeatherScore(snowy))

	worst := provider.WeatherData{Temperature: -10, Conditions: "Thunderstorm with rain and snow, fog", WindSpeed: 60, Visibility: 100}
	assert.Equal(t, 1.0, WeatherScore(worst))
}

func TestWeatherScoreMonotone(t *testing.T) {
	adverse := []struct {
		name  string
		apply func(*provider.WeatherData)
	}{
		{"rain", func(w *provider.WeatherData) { w.Conditions += " rain" }},
		{"snow", func(w *provider.WeatherData) { w.Conditions += " snow" }},
		{"thunderstorm", func(w *provider.WeatherData) { w.Conditions += " thunderstorm" }},
		{"mist", func(w *provider.WeatherData) { w.Conditions += " mist" }},
		{"cold", func(w *provider.WeatherData) { w.Temperature = 10 }},
		{"hot", func(w *provider.WeatherData) { w.Temperature = 105 }},
		{"wind", func(w *provider.WeatherData) { w.WindSpeed = 30 }},
		{"low visibility", func(w *provider.WeatherData) { w.Visibility = 1000 }},
	}

	bases := []provider.WeatherData{
		clearWeather(),
		{Temperature: 30, WindSpeed: 18, Conditions: "Drizzle", Visibility: 10000},
		{Temperature: 98, WindSpeed: 2, Conditions: "Fog", Visibility: 4000},
	}

	for _, base := range bases {
		before := WeatherScore(base)
		assert.GreaterOrEqual(t, before, 1.0)
		assert.LessOrEqual(t, before, 10.0)

		for _, a := range adverse {
			w := base
			a.apply(&w)
			after := WeatherScore(w)
			assert.LessOrEqual(t, after, before, "%s on %+v", a.name, base)
			assert.GreaterOrEqual(t, after, 1.0)
		}
	}
}

func TestRouteComplexityScore(t *testing.T) {
	assert.Equal(t, 10.0, RouteComplexityScore(nil))
	assert.Equal(t, 10.0, RouteComplexityScore(steps(20, "Continue")))
	assert.Equal(t, 8.0, RouteComplexityScore(steps(21, "Continue")))
	assert.Equal(t, 7.0, RouteComplexityScore(steps(31, "Continue")))
	assert.Equal(t, 10.0, RouteComplexityScore(steps(10, "Turn right")))
	assert.Equal(t, 8.0, RouteComplexityScore(steps(11, "Take the Exit")))
	assert.Equal(t, 7.0, RouteComplexityScore(steps(16, "Merge onto I-95")))
	assert.Equal(t, 4.0, RouteComplexityScore(steps(31, "Turn left")))
	// matching is case-sensitive
	assert.Equal(t, 8.0, RouteComplexityScore(steps(21, "turn left")))
}

func TestTrafficLevelScore(t *testing.T) {
	assert.Equal(t, 10.0, TrafficLevelScore(provider.TrafficLight))
	assert.Equal(t, 7.0, TrafficLevelScore(provider.TrafficNormal))
	assert.Equal(t, 5.0, TrafficLevelScore(provider.TrafficModerate))
	assert.Equal(t, 3.0, TrafficLevelScore(provider.TrafficHeavy))
	assert.Equal(t, 7.0, TrafficLevelScore("gridlock"))
}

func TestInfrastructureScore(t *testing.T) {
	assert.Equal(t, 5.0, InfrastructureScore(provider.InfrastructureData{}))
	assert.InDelta(t, 8.8, InfrastructureScore(provider.InfrastructureData{BikeLanes: true, InfrastructureScore: 6}), 1e-9)
	full := provider.InfrastructureData{BikeLanes: true, BikePaths: true, BikeFriendlyRoads: true, InfrastructureScore: 9}
	assert.Equal(t, 10.0, InfrastructureScore(full))
}

func TestTerrainScore(t *testing.T) {
	assert.Equal(t, 10.0, TerrainScore(steps(5, "Climb the hill")))
	assert.Equal(t, 7.0, TerrainScore(steps(6, "Steep climb ahead")))
	assert.Equal(t, 5.0, TerrainScore(steps(11, "elevation gain")))
	assert.Equal(t, 4.0, TerrainScore(steps(16, "up the hill")))
	assert.Equal(t, 10.0, TerrainScore(steps(20, "Hill Street")))
}

func TestBikeSafetyScore(t *testing.T) {
	infra := provider.InfrastructureData{SafetyScore: 5}
	assert.Equal(t, 8.0, BikeSafetyScore(infra, steps(9, "")))
	assert.Equal(t, 7.0, BikeSafetyScore(infra, steps(10, "")))
	assert.Equal(t, 7.0, BikeSafetyScore(infra, steps(20, "")))
	assert.Equal(t, 6.0, BikeSafetyScore(infra, steps(21, "")))
	assert.Equal(t, 10.0, BikeSafetyScore(provider.InfrastructureData{SafetyScore: 10}, nil))
}

func TestBikeWeatherScore(t *testing.T) {
	assert.Equal(t, 10.0, BikeWeatherScore(provider.WeatherData{IsBikeFriendly: true, Temperature: 0}))
	assert.Equal(t, 5.0, BikeWeatherScore(provider.WeatherData{Temperature: 60, Conditions: "Rain"}))
	assert.Equal(t, 3.0, BikeWeatherScore(provider.WeatherData{Temperature: 90}))
	assert.Equal(t, 1.0, BikeWeatherScore(provider.WeatherData{Temperature: 20, WindSpeed: 30}))
	assert.Equal(t, 4.0, BikeWeatherScore(provider.WeatherData{Temperature: 60, WindSpeed: 12}))
}

func TestCountSteps(t *testing.T) {
	route := []provider.RouteStep{
		{Instruction: "Head <b>north</b>"},
		{Instruction: "Turn <b>left</b>"},
		{Instruction: "Take exit 4"},
		{Instruction: "Merge onto US-1"},
		{Instruction: "Take the Exit toward the hill"},
	}
	assert.Equal(t, 3, CountSteps(route, TurnKeywords))
	assert.Equal(t, 1, CountSteps(route, TerrainKeywords))
	assert.Equal(t, 0, CountSteps(route, nil))
}
