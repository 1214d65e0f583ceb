package commute

import (
	"fmt"
	"strings"

	"github.com/elonfeng/commutescore/pkg/scoring"
)

// Label buckets a 1-10 score for display.
func Label(score float64) string {
	switch {
	case score >= 8:
		return "Excellent"
	case score >= 6:
		return "Good"
	case score >= 4:
		return "Fair"
	default:
		return "Poor"
	}
}

// Description is the one-line summary shown under a score.
func Description(score float64, kind scoring.Kind) string {
	if kind == scoring.KindTraffic {
		switch {
		case score >= 8:
			return "Light traffic, smooth commute"
		case score >= 6:
			return "Moderate traffic, some delays expected"
		case score >= 4:
			return "Heavy traffic, significant delays"
		default:
			return "Severe congestion, consider alternatives"
		}
	}

	switch {
	case score >= 8:
		return "Excellent biking conditions"
	case score >= 6:
		return "Good biking route available"
	case score >= 4:
		return "Challenging but doable"
	default:
		return "Not recommended for biking"
	}
}

// Recommend picks the advice for a traffic/bike score pair. Duration text
// comes from the live route details when present.
func Recommend(traffic, bike scoring.ScoreResult) string {
	trafficLabel := strings.ToLower(Label(traffic.Score))
	bikeLabel := strings.ToLower(Label(bike.Score))

	switch {
	case bike.Score >= 7 && traffic.Score <= 5:
		bikeTime := "similar time"
		if r := routeOf(bike); r != nil && r.Duration.Text != "" {
			bikeTime = r.Duration.Text
		}
		return fmt.Sprintf("Consider biking! Your route has %s bikability and %s traffic. "+
			"Biking would take %s and could save you time while improving your health.",
			bikeLabel, trafficLabel, bikeTime)

	case traffic.Score <= 4:
		trafficTime := "longer than usual"
		if r := routeOf(traffic); r != nil && r.DurationInTraffic != nil && r.DurationInTraffic.Text != "" {
			trafficTime = r.DurationInTraffic.Text
		}
		return fmt.Sprintf("Traffic looks challenging with %s travel time. "+
			"Consider leaving earlier, using public transit, or exploring alternative routes.", trafficTime)

	case bike.Score >= 8:
		return fmt.Sprintf("Excellent biking conditions! Even with %s traffic, "+
			"biking might be faster and more enjoyable.", trafficLabel)

	case traffic.Score >= 7:
		driveTime := "reasonable time"
		if r := routeOf(traffic); r != nil && r.Duration.Text != "" {
			driveTime = r.Duration.Text
		}
		return fmt.Sprintf("Traffic conditions look good! Your commute should take %s with smooth sailing.", driveTime)

	default:
		return "Mixed conditions. Consider checking real-time traffic updates before leaving."
	}
}

// DataSource tells whether a factor was computed from a live provider.
type DataSource string

const (
	SourceReal      DataSource = "real"
	SourceSimulated DataSource = "simulated"
)

// Keys records which providers have a usable API key.
type Keys struct {
	GoogleMaps  bool `json:"google_maps"`
	OpenWeather bool `json:"openweather"`
	Mapbox      bool `json:"mapbox"`
}

// Source reports where a factor's data comes from given the configured keys.
// Time of day is always real; unknown factors are simulated.
func (k Keys) Source(kind scoring.Kind, f scoring.Factor) DataSource {
	var live bool
	switch f {
	case scoring.FactorTimeOfDay:
		live = true
	case scoring.FactorWeather:
		live = k.OpenWeather
	case scoring.FactorDistance:
		live = k.GoogleMaps
	case scoring.FactorRouteComplexity, scoring.FactorTrafficLevel:
		live = kind == scoring.KindTraffic && k.GoogleMaps
	case scoring.FactorInfrastructure, scoring.FactorTerrain, scoring.FactorSafety:
		live = kind == scoring.KindBike && k.Mapbox
	}
	if live {
		return SourceReal
	}
	return SourceSimulated
}

// Warnings lists the notices shown when analysis runs on simulated data.
func (k Keys) Warnings() []string {
	var out []string
	if !k.GoogleMaps {
		out = append(out, "Google Maps API key not configured, using simulated data")
	}
	if !k.OpenWeather {
		out = append(out, "OpenWeather API key not configured, using simulated data")
	}
	return out
}

type factorText struct {
	name        string
	description string
}

var factorTexts = map[scoring.Kind]map[scoring.Factor]factorText{
	scoring.KindTraffic: {
		scoring.FactorDistance:        {"Distance", "Route length impact on traffic"},
		scoring.FactorTimeOfDay:       {"Time of Day", "Rush hour vs. off-peak analysis"},
		scoring.FactorWeather:         {"Weather", "Current weather conditions"},
		scoring.FactorRouteComplexity: {"Route Complexity", "Number of turns and complexity"},
		scoring.FactorTrafficLevel:    {"Traffic Level", "Real-time traffic conditions"},
	},
	scoring.KindBike: {
		scoring.FactorDistance:       {"Distance", "Bike route length"},
		scoring.FactorInfrastructure: {"Infrastructure", "Bike lanes and paths"},
		scoring.FactorTerrain:        {"Terrain", "Hills and elevation changes"},
		scoring.FactorSafety:         {"Safety", "Road safety factors"},
		scoring.FactorWeather:        {"Weather", "Weather suitability for biking"},
	},
}

// FactorInfo is one row of a score breakdown.
type FactorInfo struct {
	Factor      scoring.Factor `json:"factor"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Score       float64        `json:"score"`
	Label       string         `json:"label"`
	Source      DataSource     `json:"source"`
}

// Breakdown lists the factors of r in display order.
func Breakdown(r scoring.ScoreResult, keys Keys) []FactorInfo {
	order := scoring.TrafficFactors
	if r.Kind == scoring.KindBike {
		order = scoring.BikeFactors
	}

	out := make([]FactorInfo, 0, len(order))
	for _, f := range order {
		score, ok := r.Factors[f]
		if !ok {
			continue
		}
		text, ok := factorTexts[r.Kind][f]
		if !ok {
			text = factorText{name: string(f)}
		}
		out = append(out, FactorInfo{
			Factor:      f,
			Name:        text.name,
			Description: text.description,
			Score:       score,
			Label:       Label(score),
			Source:      keys.Source(r.Kind, f),
		})
	}
	return out
}

// RouteSummary is a one-line route description, empty without live route data.
func RouteSummary(r scoring.ScoreResult) string {
	route := routeOf(r)
	if route == nil {
		return ""
	}
	return fmt.Sprintf("Route: %s, Duration: %s, Traffic: %s", route.Distance.Text, route.Duration.Text, route.TrafficLevel)
}

// WeatherSummary is a one-line weather description, empty without live weather data.
func WeatherSummary(r scoring.ScoreResult) string {
	if r.Details == nil || r.Details.Weather == nil {
		return ""
	}
	w := r.Details.Weather
	return fmt.Sprintf("Weather: %.0f°F, %s", w.Temperature, w.Description)
}
