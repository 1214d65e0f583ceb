package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultGoogleMapsBaseURL = "https://maps.googleapis.com/maps/api"

// GoogleMaps talks to the Directions, Distance Matrix and Geocoding APIs.
type GoogleMaps struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	language string
	logger   *zap.Logger
}

// NewGoogleMaps creates a Google Maps client. An empty apiKey makes every call
// fail fast with ErrMissingAPIKey.
func NewGoogleMaps(baseURL, apiKey, language string, timeout time.Duration, logger *zap.Logger) *GoogleMaps {
	if baseURL == "" {
		baseURL = DefaultGoogleMapsBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleMaps{
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		language: language,
		logger:   logger.Named("google"),
	}
}

// Route fetches directions and normalizes the first leg of the first route.
func (g *GoogleMaps) Route(ctx context.Context, origin, destination string, mode Mode) (*RouteData, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("directions: %w", ErrMissingAPIKey)
	}
	if mode == "" {
		mode = ModeDriving
	}

	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("mode", string(mode))
	if g.language != "" {
		params.Set("language", g.language)
	}
	params.Set("key", g.apiKey)

	var result gDirectionsResult
	if err := getJSON(ctx, g.client, g.baseURL+"/directions/json?"+params.Encode(), &result); err != nil {
		g.logger.Error("fetch route data", zap.String("mode", string(mode)), zap.Error(err))
		return nil, fmt.Errorf("fetch directions: %w", err)
	}
	if result.Status != "OK" {
		err := &UpstreamError{Provider: GoogleDirections, Status: result.Status, Message: result.ErrorMessage}
		g.logger.Error("fetch route data", zap.String("mode", string(mode)), zap.Error(err))
		return nil, err
	}
	if len(result.Routes) == 0 || len(result.Routes[0].Legs) == 0 {
		return nil, &UpstreamError{Provider: GoogleDirections, Status: "ZERO_RESULTS", Message: "no route legs in response"}
	}

	route := result.Routes[0]
	leg := route.Legs[0]

	data := &RouteData{
		Distance:          leg.Distance.textValue(),
		Duration:          leg.Duration.textValue(),
		DurationInTraffic: leg.DurationInTraffic.optional(),
		Steps:             make([]RouteStep, 0, len(leg.Steps)),
		Polyline:          route.OverviewPolyline.Points,
		Mode:              mode,
	}
	for _, step := range leg.Steps {
		data.Steps = append(data.Steps, RouteStep{
			Instruction: step.HTMLInstructions,
			Distance:    step.Distance.textValue(),
			Duration:    step.Duration.textValue(),
			Polyline:    step.Polyline.Points,
		})
	}
	data.TrafficLevel = ClassifyTraffic(data.Duration, data.DurationInTraffic)

	return data, nil
}

// DistanceMatrix fetches the traffic-aware duration for a single pair, departing now.
func (g *GoogleMaps) DistanceMatrix(ctx context.Context, origin, destination string) (*DistanceMatrixResult, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("distance matrix: %w", ErrMissingAPIKey)
	}

	params := url.Values{}
	params.Set("origins", origin)
	params.Set("destinations", destination)
	params.Set("mode", string(ModeDriving))
	params.Set("traffic_model", "best_guess")
	params.Set("departure_time", "now")
	params.Set("key", g.apiKey)

	var result gMatrixResult
	if err := getJSON(ctx, g.client, g.baseURL+"/distancematrix/json?"+params.Encode(), &result); err != nil {
		g.logger.Error("fetch distance matrix", zap.Error(err))
		return nil, fmt.Errorf("fetch distance matrix: %w", err)
	}
	if result.Status != "OK" {
		err := &UpstreamError{Provider: GoogleDistanceMatrix, Status: result.Status, Message: result.ErrorMessage}
		g.logger.Error("fetch distance matrix", zap.Error(err))
		return nil, err
	}
	if len(result.Rows) == 0 || len(result.Rows[0].Elements) == 0 {
		return nil, &UpstreamError{Provider: GoogleDistanceMatrix, Status: "ZERO_RESULTS", Message: "no matrix elements in response"}
	}

	el := result.Rows[0].Elements[0]
	if el.Status != "" && el.Status != "OK" {
		return nil, &UpstreamError{Provider: GoogleDistanceMatrix, Status: el.Status, Message: "element not routable"}
	}

	data := &DistanceMatrixResult{
		Distance: el.Distance.textValue(),
		Duration: el.Duration.textValue(),
	}
	inTraffic := el.DurationInTraffic.optional()
	data.TrafficLevel = ClassifyTraffic(data.Duration, inTraffic)
	if inTraffic != nil {
		data.DurationInTraffic = *inTraffic
	} else {
		data.DurationInTraffic = data.Duration
	}

	return data, nil
}

// Geocode resolves an address to its best-matching coordinates.
func (g *GoogleMaps) Geocode(ctx context.Context, address string) (*GeocodeResult, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("geocode: %w", ErrMissingAPIKey)
	}

	params := url.Values{}
	params.Set("address", address)
	if g.language != "" {
		params.Set("language", g.language)
	}
	params.Set("key", g.apiKey)

	var result gGeocodeResult
	if err := getJSON(ctx, g.client, g.baseURL+"/geocode/json?"+params.Encode(), &result); err != nil {
		g.logger.Error("fetch geocoding data", zap.Error(err))
		return nil, fmt.Errorf("fetch geocode %q: %w", address, err)
	}
	if result.Status != "OK" {
		err := &UpstreamError{Provider: GoogleGeocoding, Status: result.Status, Message: result.ErrorMessage}
		g.logger.Error("fetch geocoding data", zap.Error(err))
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, &UpstreamError{Provider: GoogleGeocoding, Status: "ZERO_RESULTS", Message: "no results for " + address}
	}

	best := result.Results[0]
	return &GeocodeResult{
		FormattedAddress: best.FormattedAddress,
		PlaceID:          best.PlaceID,
		Location:         Coordinates{Lat: best.Geometry.Location.Lat, Lng: best.Geometry.Location.Lng},
	}, nil
}

type gTextValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

func (v gTextValue) textValue() TextValue {
	return TextValue{Text: v.Text, Value: v.Value}
}

func (v *gTextValue) optional() *TextValue {
	if v == nil {
		return nil
	}
	tv := v.textValue()
	return &tv
}

type gPolyline struct {
	Points string `json:"points"`
}

type gDirectionsResult struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Routes       []gRoute `json:"routes"`
}

type gRoute struct {
	Legs             []gLeg    `json:"legs"`
	OverviewPolyline gPolyline `json:"overview_polyline"`
}

type gLeg struct {
	Distance          gTextValue  `json:"distance"`
	Duration          gTextValue  `json:"duration"`
	DurationInTraffic *gTextValue `json:"duration_in_traffic"`
	Steps             []gStep     `json:"steps"`
}

type gStep struct {
	HTMLInstructions string     `json:"html_instructions"`
	Distance         gTextValue `json:"distance"`
	Duration         gTextValue `json:"duration"`
	Polyline         gPolyline  `json:"polyline"`
}

type gMatrixResult struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Rows         []gMatrixRow `json:"rows"`
}

type gMatrixRow struct {
	Elements []gMatrixElement `json:"elements"`
}

type gMatrixElement struct {
	Status            string      `json:"status"`
	Distance          gTextValue  `json:"distance"`
	Duration          gTextValue  `json:"duration"`
	DurationInTraffic *gTextValue `json:"duration_in_traffic"`
}

type gGeocodeResult struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		PlaceID          string `json:"place_id"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}
