// Package provider wraps the upstream routing, weather and bike-infrastructure
// services and normalizes their responses into one canonical shape.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Name identifies an upstream service.
type Name string

const (
	GoogleDirections     Name = "google-directions"
	GoogleDistanceMatrix Name = "google-distance-matrix"
	GoogleGeocoding      Name = "google-geocoding"
	OpenWeatherMap       Name = "openweather"
	MapboxCycling        Name = "mapbox"
)

// Mode is the travel mode requested from the directions provider.
type Mode string

const (
	ModeDriving   Mode = "driving"
	ModeBicycling Mode = "bicycling"
)

// TrafficLevel is the congestion bucket derived from traffic-adjusted durations.
type TrafficLevel string

const (
	TrafficLight    TrafficLevel = "light"
	TrafficNormal   TrafficLevel = "normal"
	TrafficModerate TrafficLevel = "moderate"
	TrafficHeavy    TrafficLevel = "heavy"
)

// ErrMissingAPIKey is returned before any network I/O when a provider has no
// usable key, which puts the caller in simulated-data mode.
var ErrMissingAPIKey = errors.New("api key not configured")

// UpstreamError reports a non-success status embedded in a provider payload.
type UpstreamError struct {
	Provider Name
	Status   string
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %s: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %s", e.Provider, e.Status)
}

// TextValue pairs a provider's display text with its numeric value
// (meters for distances, seconds for durations).
type TextValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteStep is a single maneuver along a route.
type RouteStep struct {
	Instruction string    `json:"instruction"`
	Distance    TextValue `json:"distance"`
	Duration    TextValue `json:"duration"`
	Polyline    string    `json:"polyline"`
}

// RouteData is the normalized first leg of the best route.
type RouteData struct {
	Distance          TextValue    `json:"distance"`
	Duration          TextValue    `json:"duration"`
	DurationInTraffic *TextValue   `json:"duration_in_traffic,omitempty"`
	Steps             []RouteStep  `json:"steps"`
	Polyline          string       `json:"polyline"`
	Mode              Mode         `json:"mode"`
	TrafficLevel      TrafficLevel `json:"traffic_level"`
}

// DistanceMatrixResult is the single origin/destination element of a matrix query.
type DistanceMatrixResult struct {
	Distance          TextValue    `json:"distance"`
	Duration          TextValue    `json:"duration"`
	DurationInTraffic TextValue    `json:"duration_in_traffic"`
	TrafficLevel      TrafficLevel `json:"traffic_level"`
}

// GeocodeResult is the best match for a free-text address.
type GeocodeResult struct {
	FormattedAddress string      `json:"formatted_address"`
	PlaceID          string      `json:"place_id"`
	Location         Coordinates `json:"location"`
}

// WeatherData is current weather, always in °F and mph.
type WeatherData struct {
	Temperature    float64 `json:"temperature"`
	FeelsLike      float64 `json:"feels_like"`
	Humidity       float64 `json:"humidity"`
	WindSpeed      float64 `json:"wind_speed"`
	Description    string  `json:"description"`
	Icon           string  `json:"icon"`
	Conditions     string  `json:"conditions"`
	Visibility     float64 `json:"visibility"` // meters
	IsBikeFriendly bool    `json:"is_bike_friendly"`
}

// InfrastructureData describes cycling infrastructure near a point.
type InfrastructureData struct {
	BikeLanes           bool    `json:"bike_lanes"`
	BikePaths           bool    `json:"bike_paths"`
	BikeFriendlyRoads   bool    `json:"bike_friendly_roads"`
	SafetyScore         float64 `json:"safety_score"`
	InfrastructureScore float64 `json:"infrastructure_score"`
	Simulated           bool    `json:"simulated"`
}

// Router resolves routes, traffic and addresses.
type Router interface {
	Route(ctx context.Context, origin, destination string, mode Mode) (*RouteData, error)
	DistanceMatrix(ctx context.Context, origin, destination string) (*DistanceMatrixResult, error)
	Geocode(ctx context.Context, address string) (*GeocodeResult, error)
}

// WeatherSource reports current weather at a point.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (*WeatherData, error)
}

// InfrastructureSource reports bike infrastructure at a point. It never fails;
// implementations substitute simulated data instead.
type InfrastructureSource interface {
	Infrastructure(ctx context.Context, lat, lon float64) *InfrastructureData
}

// ClassifyTraffic buckets the ratio of traffic-adjusted to baseline duration.
// A nil inTraffic means the provider had no live traffic and yields normal.
func ClassifyTraffic(normal TextValue, inTraffic *TextValue) TrafficLevel {
	if inTraffic == nil || normal.Value <= 0 {
		return TrafficNormal
	}

	ratio := inTraffic.Value / normal.Value
	switch {
	case ratio >= 1.5:
		return TrafficHeavy
	case ratio >= 1.2:
		return TrafficModerate
	default:
		return TrafficLight
	}
}
