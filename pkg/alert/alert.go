// Package alert delivers commute reports to chat and webhook destinations.
package alert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/elonfeng/commutescore/pkg/commute"
)

// Notification is the data sent to alert destinations.
type Notification struct {
	AnalysisID     string    `json:"analysis_id"`
	Title          string    `json:"title"`
	Reason         string    `json:"reason"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	TrafficScore   float64   `json:"traffic_score"`
	TrafficLabel   string    `json:"traffic_label"`
	BikeScore      float64   `json:"bike_score"`
	BikeLabel      string    `json:"bike_label"`
	Recommendation string    `json:"recommendation"`
	Simulated      bool      `json:"simulated"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromAnalysis builds a notification for an analysis; reason says why it is being sent.
func FromAnalysis(an *commute.Analysis, reason string) *Notification {
	return &Notification{
		AnalysisID:     an.ID,
		Title:          fmt.Sprintf("%s → %s", an.Origin, an.Destination),
		Reason:         reason,
		Origin:         an.Origin,
		Destination:    an.Destination,
		TrafficScore:   an.Traffic.Score,
		TrafficLabel:   an.TrafficLabel,
		BikeScore:      an.Bike.Score,
		BikeLabel:      an.BikeLabel,
		Recommendation: an.Recommendation,
		Simulated:      an.Traffic.IsFallback() || an.Bike.IsFallback() || len(an.Warnings) > 0,
		CreatedAt:      an.CreatedAt,
	}
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
	logger    *zap.Logger
}

func NewManager(notifiers []Notifier, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{notifiers: notifiers, logger: logger.Named("alert")}
}

func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends n to every notifier. A failing notifier does not stop
// the others; all failures are joined into the returned error.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			m.logger.Warn("alert delivery failed", zap.String("notifier", notifier.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		m.logger.Debug("alert delivered", zap.String("notifier", notifier.Name()), zap.String("analysis_id", n.AnalysisID))
	}
	return errors.Join(errs...)
}

const sendTimeout = 10 * time.Second

// post sends a JSON body and treats any non-2xx response as an error.
func post(ctx context.Context, client *http.Client, name, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s status %d", name, resp.StatusCode)
	}
	return nil
}
