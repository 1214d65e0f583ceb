package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

const (
	UnitsImperial = "imperial"
	UnitsMetric   = "metric"
)

// OpenWeather fetches current conditions from OpenWeatherMap.
type OpenWeather struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	units    string
	language string
	logger   *zap.Logger
}

// NewOpenWeather creates an OpenWeatherMap client. Responses requested in
// metric units are converted so WeatherData is always °F and mph.
func NewOpenWeather(baseURL, apiKey, units, language string, timeout time.Duration, logger *zap.Logger) *OpenWeather {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	if units == "" {
		units = UnitsImperial
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenWeather{
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		units:    units,
		language: language,
		logger:   logger.Named("openweather"),
	}
}

// Current returns the weather at lat/lon.
func (o *OpenWeather) Current(ctx context.Context, lat, lon float64) (*WeatherData, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("weather: %w", ErrMissingAPIKey)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	params.Set("appid", o.apiKey)
	params.Set("units", o.units)
	if o.language != "" {
		params.Set("lang", o.language)
	}

	var result owmResult
	if err := getJSON(ctx, o.client, o.baseURL+"/weather?"+params.Encode(), &result); err != nil {
		o.logger.Error("fetch weather data", zap.Error(err))
		return nil, fmt.Errorf("fetch weather: %w", err)
	}
	if result.Cod != 200 {
		err := &UpstreamError{Provider: OpenWeatherMap, Status: strconv.Itoa(int(result.Cod)), Message: rawText(result.Message)}
		o.logger.Error("fetch weather data", zap.Error(err))
		return nil, err
	}
	if len(result.Weather) == 0 {
		return nil, &UpstreamError{Provider: OpenWeatherMap, Status: "200", Message: "no weather conditions in response"}
	}

	temp, feels, wind := result.Main.Temp, result.Main.FeelsLike, result.Wind.Speed
	if o.units == UnitsMetric {
		temp, feels = celsiusToFahrenheit(temp), celsiusToFahrenheit(feels)
		wind = wind * mpsToMph
	}

	visibility := float64(maxVisibility)
	if result.Visibility != nil {
		visibility = *result.Visibility
	}

	cond := result.Weather[0]
	data := &WeatherData{
		Temperature: temp,
		FeelsLike:   feels,
		Humidity:    result.Main.Humidity,
		WindSpeed:   wind,
		Description: cond.Description,
		Icon:        cond.Icon,
		Conditions:  cond.Main,
		Visibility:  visibility,
	}
	data.IsBikeFriendly = IsBikeFriendly(data.Temperature, data.Conditions, data.WindSpeed)

	return data, nil
}

var unfriendlyConditions = map[string]bool{
	"rain":         true,
	"snow":         true,
	"thunderstorm": true,
	"sleet":        true,
}

// IsBikeFriendly applies the riding-weather rule: temperature within
// [32, 95] °F, no precipitation category and wind at most 20 mph.
func IsBikeFriendly(tempF float64, conditions string, windMph float64) bool {
	if tempF < 32 || tempF > 95 {
		return false
	}
	if unfriendlyConditions[strings.ToLower(conditions)] {
		return false
	}
	if windMph > 20 {
		return false
	}
	return true
}

const mpsToMph = 2.2369362920544

// maxVisibility is what OpenWeatherMap reports for unlimited visibility; it
// stands in when the field is absent.
const maxVisibility = 10000

func celsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// owmCode accepts cod as either a JSON number or a numeric string;
// OpenWeatherMap uses both depending on the endpoint and error.
type owmCode int

func (c *owmCode) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*c = owmCode(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode cod: %w", err)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("decode cod %q: %w", s, err)
	}
	*c = owmCode(n)
	return nil
}

// rawText renders a message field that may be a string or a number.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

type owmResult struct {
	Cod     owmCode         `json:"cod"`
	Message json.RawMessage `json:"message"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Visibility *float64 `json:"visibility"`
}
