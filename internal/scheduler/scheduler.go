// Package scheduler re-analyzes a commute on an interval and alerts when
// the advice changes.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/elonfeng/commutescore/pkg/alert"
	"github.com/elonfeng/commutescore/pkg/commute"
)

// Analyzer is satisfied by *commute.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, origin, destination string) (*commute.Analysis, error)
}

// Scheduler watches one origin/destination pair.
type Scheduler struct {
	analyzer      Analyzer
	alertMgr      *alert.Manager
	origin        string
	destination   string
	interval      time.Duration
	bikeThreshold float64
	logger        *zap.Logger

	last *commute.Analysis
}

// New creates a scheduler. A non-positive interval means 15 minutes and a
// zero threshold means 7.
func New(
	analyzer Analyzer,
	alertMgr *alert.Manager,
	origin, destination string,
	interval time.Duration,
	bikeThreshold float64,
	logger *zap.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if bikeThreshold == 0 {
		bikeThreshold = 7
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if alertMgr == nil {
		alertMgr = alert.NewManager(nil, logger)
	}
	return &Scheduler{
		analyzer:      analyzer,
		alertMgr:      alertMgr,
		origin:        origin,
		destination:   destination,
		interval:      interval,
		bikeThreshold: bikeThreshold,
		logger:        logger.Named("scheduler"),
	}
}

// Run checks immediately, then on every tick. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := commute.ValidateAddresses(s.origin, s.destination); err != nil {
		return err
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("watch started",
		zap.String("origin", s.origin),
		zap.String("destination", s.destination),
		zap.Duration("interval", s.interval),
		zap.Float64("bike_threshold", s.bikeThreshold))

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("watch stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.Check(ctx); err != nil {
		s.logger.Error("watch check failed", zap.Error(err))
	}
}

// Check runs one analysis and broadcasts a notification when something
// worth telling the user changed since the previous check.
func (s *Scheduler) Check(ctx context.Context) (*commute.Analysis, error) {
	an, err := s.analyzer.Analyze(ctx, s.origin, s.destination)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	prev := s.last
	s.last = an

	reasons := Reasons(prev, an, s.bikeThreshold)
	s.logger.Debug("watch checked",
		zap.Float64("traffic", an.Traffic.Score),
		zap.Float64("bike", an.Bike.Score),
		zap.Strings("reasons", reasons))
	if len(reasons) == 0 || !s.alertMgr.HasNotifiers() {
		return an, nil
	}

	n := alert.FromAnalysis(an, strings.Join(reasons, "; "))
	if err := s.alertMgr.Broadcast(ctx, n); err != nil {
		return an, fmt.Errorf("broadcast: %w", err)
	}
	s.logger.Info("alert sent", zap.String("id", an.ID), zap.String("reason", n.Reason))
	return an, nil
}

// Reasons lists why cur deserves an alert given the previous analysis.
// The first analysis alerts only when biking already clears the threshold.
func Reasons(prev, cur *commute.Analysis, threshold float64) []string {
	bike := cur.Bike.Score
	if prev == nil {
		if bike >= threshold {
			return []string{fmt.Sprintf("bike score %.1f is at or above %.1f", bike, threshold)}
		}
		return nil
	}

	var out []string
	if prev.Recommendation != cur.Recommendation {
		out = append(out, "recommendation changed")
	}
	switch was := prev.Bike.Score; {
	case was < threshold && bike >= threshold:
		out = append(out, fmt.Sprintf("bike score rose to %.1f (threshold %.1f)", bike, threshold))
	case was >= threshold && bike < threshold:
		out = append(out, fmt.Sprintf("bike score fell to %.1f (threshold %.1f)", bike, threshold))
	}
	return out
}
