package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elonfeng/commutescore/pkg/rng"
	"go.uber.org/zap"
)

const DefaultMapboxBaseURL = "https://api.mapbox.com"

// Mapbox looks up bike infrastructure. No infrastructure dataset is
// integrated yet, so the cycling matrix is only probed for reachability and
// the returned data is always simulated.
type Mapbox struct {
	client  *http.Client
	baseURL string
	apiKey  string
	rand    rng.Source
	logger  *zap.Logger
}

// NewMapbox creates a Mapbox client. src drives the simulated data.
func NewMapbox(baseURL, apiKey string, timeout time.Duration, src rng.Source, logger *zap.Logger) *Mapbox {
	if baseURL == "" {
		baseURL = DefaultMapboxBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if src == nil {
		src = rng.NewTimeSeeded()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapbox{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		rand:    src,
		logger:  logger.Named("mapbox"),
	}
}

// Infrastructure never fails: any upstream problem is logged and replaced
// with simulated data so bike scoring can always complete.
func (m *Mapbox) Infrastructure(ctx context.Context, lat, lon float64) *InfrastructureData {
	if err := m.probe(ctx, lat, lon); err != nil {
		m.logger.Warn("bike infrastructure unavailable, using simulated data",
			zap.Float64("lat", lat), zap.Float64("lon", lon), zap.Error(err))
	}
	return SimulatedInfrastructure(m.rand)
}

func (m *Mapbox) probe(ctx context.Context, lat, lon float64) error {
	if m.apiKey == "" {
		return fmt.Errorf("bike infrastructure: %w", ErrMissingAPIKey)
	}

	point := fmt.Sprintf("%f,%f", lon, lat)
	reqURL := fmt.Sprintf("%s/directions-matrix/v1/mapbox/cycling/%s;%s?access_token=%s",
		m.baseURL, point, point, url.QueryEscape(m.apiKey))

	var result mbMatrixResult
	if err := getJSON(ctx, m.client, reqURL, &result); err != nil {
		return fmt.Errorf("fetch cycling matrix: %w", err)
	}
	if result.Code != "Ok" {
		return &UpstreamError{Provider: MapboxCycling, Status: result.Code, Message: result.Message}
	}
	return nil
}

// SimulatedInfrastructure draws plausible infrastructure data: lanes half the
// time, paths 30%, friendly roads 70%, safety in [5,10) and infrastructure in [3,10).
func SimulatedInfrastructure(src rng.Source) *InfrastructureData {
	return &InfrastructureData{
		BikeLanes:           rng.Above(src, 0.5),
		BikePaths:           rng.Above(src, 0.7),
		BikeFriendlyRoads:   rng.Above(src, 0.3),
		SafetyScore:         rng.Between(src, 5, 10),
		InfrastructureScore: rng.Between(src, 3, 10),
		Simulated:           true,
	}
}

type mbMatrixResult struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
