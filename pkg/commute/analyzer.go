// Package commute runs both scores for an address pair and assembles the
// report shown to users.
package commute

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/commutescore/pkg/provider"
	"github.com/elonfeng/commutescore/pkg/scoring"
)

var ErrMissingAddress = errors.New("please enter both starting and destination addresses")

// ValidateAddresses requires both addresses to be non-blank.
func ValidateAddresses(origin, destination string) error {
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return ErrMissingAddress
	}
	return nil
}

// Scorer computes the two scores. *scoring.Engine implements it.
type Scorer interface {
	TrafficScore(ctx context.Context, origin, destination string) scoring.ScoreResult
	BikeScore(ctx context.Context, origin, destination string) scoring.ScoreResult
}

// Analysis is the full report for one origin/destination pair.
type Analysis struct {
	ID                 string              `json:"id"`
	Origin             string              `json:"origin"`
	Destination        string              `json:"destination"`
	Traffic            scoring.ScoreResult `json:"traffic"`
	Bike               scoring.ScoreResult `json:"bike"`
	TrafficLabel       string              `json:"traffic_label"`
	BikeLabel          string              `json:"bike_label"`
	TrafficDescription string              `json:"traffic_description"`
	BikeDescription    string              `json:"bike_description"`
	Recommendation     string              `json:"recommendation"`
	TrafficFactors     []FactorInfo        `json:"traffic_factors"`
	BikeFactors        []FactorInfo        `json:"bike_factors"`
	RouteSummary       string              `json:"route_summary,omitempty"`
	WeatherSummary     string              `json:"weather_summary,omitempty"`
	Warnings           []string            `json:"warnings,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// Analyzer produces Analyses.
type Analyzer struct {
	scorer Scorer
	keys   Keys
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyzer creates an Analyzer. keys only affects data-source tags and warnings.
func NewAnalyzer(scorer Scorer, keys Keys, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		scorer: scorer,
		keys:   keys,
		logger: logger.Named("commute"),
		now:    time.Now,
	}
}

func (a *Analyzer) Keys() Keys { return a.keys }

func (a *Analyzer) Warnings() []string { return a.keys.Warnings() }

// Analyze validates the addresses and runs traffic and bike scoring concurrently.
// The only error is ErrMissingAddress; provider failures surface as fallback scores.
func (a *Analyzer) Analyze(ctx context.Context, origin, destination string) (*Analysis, error) {
	if err := ValidateAddresses(origin, destination); err != nil {
		return nil, err
	}
	origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)

	var (
		traffic, bike scoring.ScoreResult
		g             errgroup.Group
	)
	g.Go(func() error {
		traffic = a.scorer.TrafficScore(ctx, origin, destination)
		return nil
	})
	g.Go(func() error {
		bike = a.scorer.BikeScore(ctx, origin, destination)
		return nil
	})
	_ = g.Wait()

	an := &Analysis{
		ID:                 uuid.NewString(),
		Origin:             origin,
		Destination:        destination,
		Traffic:            traffic,
		Bike:               bike,
		TrafficLabel:       Label(traffic.Score),
		BikeLabel:          Label(bike.Score),
		TrafficDescription: Description(traffic.Score, scoring.KindTraffic),
		BikeDescription:    Description(bike.Score, scoring.KindBike),
		Recommendation:     Recommend(traffic, bike),
		TrafficFactors:     Breakdown(traffic, a.keys),
		BikeFactors:        Breakdown(bike, a.keys),
		RouteSummary:       RouteSummary(traffic),
		WeatherSummary:     WeatherSummary(traffic),
		Warnings:           a.keys.Warnings(),
		CreatedAt:          a.now().UTC(),
	}

	a.logger.Info("commute analyzed",
		zap.String("id", an.ID),
		zap.Float64("traffic", traffic.Score),
		zap.String("traffic_status", string(traffic.Status)),
		zap.Float64("bike", bike.Score),
		zap.String("bike_status", string(bike.Status)))
	if an.RouteSummary != "" {
		a.logger.Debug(an.RouteSummary, zap.String("id", an.ID))
	}
	if an.WeatherSummary != "" {
		a.logger.Debug(an.WeatherSummary, zap.String("id", an.ID))
	}

	return an, nil
}

// routeOf returns the live route behind r, if any.
func routeOf(r scoring.ScoreResult) *provider.RouteData {
	if r.Details == nil {
		return nil
	}
	return r.Details.Route
}
