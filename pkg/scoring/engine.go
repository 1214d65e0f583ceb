// Package scoring turns normalized provider data into traffic and bike
// scores on a 1-10 scale.
package scoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/commutescore/pkg/provider"
	"github.com/elonfeng/commutescore/pkg/rng"
)

// Kind is the score type.
type Kind string

const (
	KindTraffic Kind = "traffic"
	KindBike    Kind = "bike"
)

// Status tells whether a score was derived from provider data or substituted.
type Status string

const (
	StatusLive     Status = "live"
	StatusFallback Status = "fallback"
)

// Details carries the provider data a live score was derived from.
type Details struct {
	Origin         *provider.GeocodeResult        `json:"origin,omitempty"`
	Destination    *provider.GeocodeResult        `json:"destination,omitempty"`
	Midpoint       *provider.Coordinates          `json:"midpoint,omitempty"`
	Route          *provider.RouteData            `json:"route,omitempty"`
	DistanceMatrix *provider.DistanceMatrixResult `json:"distance_matrix,omitempty"`
	Weather        *provider.WeatherData          `json:"weather,omitempty"`
	Infrastructure *provider.InfrastructureData   `json:"infrastructure,omitempty"`
}

// ScoreResult is one computed score. Details is nil exactly when Status is
// StatusFallback, in which case Cause holds the error that triggered it.
type ScoreResult struct {
	Kind    Kind               `json:"kind"`
	Score   float64            `json:"score"`
	Status  Status             `json:"status"`
	Factors map[Factor]float64 `json:"factors"`
	Details *Details           `json:"details"`
	Cause   string             `json:"cause,omitempty"`
}

func (r ScoreResult) IsFallback() bool {
	return r.Status == StatusFallback
}

// band is the range a fallback score is drawn from, plus the fixed factor
// values reported with it.
type band struct {
	lo, hi  float64
	factors map[Factor]float64
}

var fallbackBands = map[Kind]band{
	KindTraffic: {lo: 6, hi: 9, factors: map[Factor]float64{
		FactorDistance:        7,
		FactorTimeOfDay:       6,
		FactorWeather:         8,
		FactorRouteComplexity: 7,
		FactorTrafficLevel:    6,
	}},
	KindBike: {lo: 5, hi: 9, factors: map[Factor]float64{
		FactorDistance:       6,
		FactorInfrastructure: 5,
		FactorTerrain:        7,
		FactorSafety:         6,
		FactorWeather:        8,
	}},
}

// FallbackRange returns the half-open interval fallback scores of kind are drawn from.
func FallbackRange(kind Kind) (lo, hi float64) {
	b := fallbackBands[kind]
	return b.lo, b.hi
}

// Engine computes scores from a router, a weather source and an
// infrastructure source.
type Engine struct {
	router         provider.Router
	weather        provider.WeatherSource
	infrastructure provider.InfrastructureSource
	trafficWeights Weights
	bikeWeights    Weights
	now            func() time.Time
	rand           rng.Source
	logger         *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithWeights overrides the default weightings. Both maps are copied.
func WithWeights(traffic, bike Weights) Option {
	return func(e *Engine) {
		if traffic != nil {
			e.trafficWeights = traffic.Clone()
		}
		if bike != nil {
			e.bikeWeights = bike.Clone()
		}
	}
}

// WithClock sets the clock used for the time-of-day factor.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand sets the random source used for fallback scores.
func WithRand(src rng.Source) Option {
	return func(e *Engine) { e.rand = src }
}

// NewEngine creates a scoring engine.
func NewEngine(router provider.Router, weather provider.WeatherSource, infra provider.InfrastructureSource, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		router:         router,
		weather:        weather,
		infrastructure: infra,
		trafficWeights: DefaultTrafficWeights(),
		bikeWeights:    DefaultBikeWeights(),
		now:            time.Now,
		logger:         logger.Named("scoring"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rand == nil {
		e.rand = rng.NewTimeSeeded()
	}
	return e
}

// TrafficWeights returns a copy of the traffic weighting in use.
func (e *Engine) TrafficWeights() Weights { return e.trafficWeights.Clone() }

// BikeWeights returns a copy of the bike weighting in use.
func (e *Engine) BikeWeights() Weights { return e.bikeWeights.Clone() }

// TrafficScore rates driving from origin to destination. It never fails:
// any fetch error yields a fallback result.
func (e *Engine) TrafficScore(ctx context.Context, origin, destination string) ScoreResult {
	details, err := e.fetchTraffic(ctx, origin, destination)
	if err != nil {
		return e.fallback(KindTraffic, err)
	}

	level := details.Route.TrafficLevel
	if level == provider.TrafficNormal && details.DistanceMatrix != nil {
		level = details.DistanceMatrix.TrafficLevel
	}

	factors := map[Factor]float64{
		FactorDistance:        DistanceScore(MetersToMiles(details.Route.Distance.Value)),
		FactorTimeOfDay:       TimeOfDayScore(e.now()),
		FactorWeather:         WeatherScore(*details.Weather),
		FactorRouteComplexity: RouteComplexityScore(details.Route.Steps),
		FactorTrafficLevel:    TrafficLevelScore(level),
	}

	return ScoreResult{
		Kind:    KindTraffic,
		Score:   Combine(factors, e.trafficWeights),
		Status:  StatusLive,
		Factors: factors,
		Details: details,
	}
}

// BikeScore rates cycling from origin to destination. It never fails:
// any fetch error yields a fallback result.
func (e *Engine) BikeScore(ctx context.Context, origin, destination string) ScoreResult {
	details, err := e.fetchBike(ctx, origin, destination)
	if err != nil {
		return e.fallback(KindBike, err)
	}

	factors := map[Factor]float64{
		FactorDistance:       BikeDistanceScore(MetersToMiles(details.Route.Distance.Value)),
		FactorInfrastructure: InfrastructureScore(*details.Infrastructure),
		FactorTerrain:        TerrainScore(details.Route.Steps),
		FactorSafety:         BikeSafetyScore(*details.Infrastructure, details.Route.Steps),
		FactorWeather:        BikeWeatherScore(*details.Weather),
	}

	return ScoreResult{
		Kind:    KindBike,
		Score:   Combine(factors, e.bikeWeights),
		Status:  StatusLive,
		Factors: factors,
		Details: details,
	}
}

// fetchTraffic runs the driving route, the distance matrix and the
// geocode-then-weather chain in parallel.
func (e *Engine) fetchTraffic(ctx context.Context, origin, destination string) (*Details, error) {
	d := &Details{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		route, err := e.router.Route(gctx, origin, destination, provider.ModeDriving)
		if err != nil {
			return fmt.Errorf("driving route: %w", err)
		}
		d.Route = route
		return nil
	})
	g.Go(func() error {
		matrix, err := e.router.DistanceMatrix(gctx, origin, destination)
		if err != nil {
			return fmt.Errorf("distance matrix: %w", err)
		}
		d.DistanceMatrix = matrix
		return nil
	})
	g.Go(func() error {
		mid, err := e.locate(gctx, origin, destination, d)
		if err != nil {
			return err
		}
		weather, err := e.weather.Current(gctx, mid.Lat, mid.Lng)
		if err != nil {
			return fmt.Errorf("weather: %w", err)
		}
		d.Weather = weather
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// fetchBike runs the cycling route in parallel with the geocode chain,
// which then fetches infrastructure and weather at the midpoint.
func (e *Engine) fetchBike(ctx context.Context, origin, destination string) (*Details, error) {
	d := &Details{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		route, err := e.router.Route(gctx, origin, destination, provider.ModeBicycling)
		if err != nil {
			return fmt.Errorf("cycling route: %w", err)
		}
		d.Route = route
		return nil
	})
	g.Go(func() error {
		mid, err := e.locate(gctx, origin, destination, d)
		if err != nil {
			return err
		}

		inner, ictx := errgroup.WithContext(gctx)
		inner.Go(func() error {
			d.Infrastructure = e.infrastructure.Infrastructure(ictx, mid.Lat, mid.Lng)
			return nil
		})
		inner.Go(func() error {
			weather, err := e.weather.Current(ictx, mid.Lat, mid.Lng)
			if err != nil {
				return fmt.Errorf("weather: %w", err)
			}
			d.Weather = weather
			return nil
		})
		return inner.Wait()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// locate geocodes both addresses in parallel, records them on d and returns
// their midpoint.
func (e *Engine) locate(ctx context.Context, origin, destination string, d *Details) (provider.Coordinates, error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res, err := e.router.Geocode(gctx, origin)
		if err != nil {
			return fmt.Errorf("geocode origin: %w", err)
		}
		d.Origin = res
		return nil
	})
	g.Go(func() error {
		res, err := e.router.Geocode(gctx, destination)
		if err != nil {
			return fmt.Errorf("geocode destination: %w", err)
		}
		d.Destination = res
		return nil
	})

	if err := g.Wait(); err != nil {
		return provider.Coordinates{}, err
	}

	mid := Midpoint(d.Origin.Location, d.Destination.Location)
	d.Midpoint = &mid
	return mid, nil
}

func (e *Engine) fallback(kind Kind, cause error) ScoreResult {
	b := fallbackBands[kind]
	score := rng.Between(e.rand, b.lo, b.hi)

	e.logger.Warn("score unavailable, using fallback",
		zap.String("kind", string(kind)),
		zap.Float64("score", score),
		zap.Error(cause))

	factors := make(map[Factor]float64, len(b.factors))
	for f, v := range b.factors {
		factors[f] = v
	}

	return ScoreResult{
		Kind:    kind,
		Score:   score,
		Status:  StatusFallback,
		Factors: factors,
		Cause:   cause.Error(),
	}
}
