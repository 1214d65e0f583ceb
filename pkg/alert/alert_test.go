package alert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elonfeng/commutescore/pkg/commute"
	"github.com/elonfeng/commutescore/pkg/scoring"
)

func sampleNotification() *Notification {
	return &Notification{
		AnalysisID:     "a1",
		Title:          "Home → Work",
		Reason:         "recommendation changed",
		TrafficScore:   4.2,
		TrafficLabel:   "Fair",
		BikeScore:      8.1,
		BikeLabel:      "Excellent",
		Recommendation: "Consider biking!",
		CreatedAt:      time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
	}
}

type capture struct {
	header http.Header
	body   []byte
}

func captureServer(t *testing.T, status int) (*httptest.Server, *capture) {
	t.Helper()
	c := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		c.header = r.Header.Clone()
		c.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, c
}

func TestFromAnalysis(t *testing.T) {
	an := &commute.Analysis{
		ID:             "id-1",
		Origin:         "Home",
		Destination:    "Work",
		Traffic:        scoring.ScoreResult{Score: 6.5, Status: scoring.StatusLive},
		Bike:           scoring.ScoreResult{Score: 7.5, Status: scoring.StatusFallback},
		TrafficLabel:   "Good",
		BikeLabel:      "Good",
		Recommendation: "Mixed conditions.",
	}

	n := FromAnalysis(an, "bike score crossed 7.0")
	assert.Equal(t, "id-1", n.AnalysisID)
	assert.Equal(t, "Home → Work", n.Title)
	assert.Equal(t, 6.5, n.TrafficScore)
	assert.Equal(t, 7.5, n.BikeScore)
	assert.Equal(t, "bike score crossed 7.0", n.Reason)
	assert.True(t, n.Simulated)
}

func TestSlackSend(t *testing.T) {
	srv, c := captureServer(t, http.StatusOK)

	require.NoError(t, NewSlack(srv.URL).Send(context.Background(), sampleNotification()))

	assert.Equal(t, "application/json", c.header.Get("Content-Type"))
	var payload struct {
		Blocks []map[string]any `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal(c.body, &payload))
	require.Len(t, payload.Blocks, 4)
	assert.Equal(t, "header", payload.Blocks[0]["type"])
	assert.Equal(t, "context", payload.Blocks[3]["type"])
	assert.Contains(t, string(c.body), "*Bike:* 8.1 (Excellent)")
}

func TestSlackSendError(t *testing.T) {
	srv, _ := captureServer(t, http.StatusForbidden)
	err := NewSlack(srv.URL).Send(context.Background(), sampleNotification())
	assert.ErrorContains(t, err, "slack webhook status 403")
}

func TestDiscordSend(t *testing.T) {
	srv, c := captureServer(t, http.StatusNoContent)

	require.NoError(t, NewDiscord(srv.URL).Send(context.Background(), sampleNotification()))

	var payload struct {
		Embeds []struct {
			Title     string `json:"title"`
			Color     int    `json:"color"`
			Timestamp string `json:"timestamp"`
			Footer    struct {
				Text string `json:"text"`
			} `json:"footer"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(c.body, &payload))
	require.Len(t, payload.Embeds, 1)
	assert.Equal(t, "🚦 Home → Work", payload.Embeds[0].Title)
	assert.Equal(t, colorGood, payload.Embeds[0].Color)
	assert.Equal(t, "2026-10-14T08:00:00Z", payload.Embeds[0].Timestamp)
	assert.Equal(t, "recommendation changed", payload.Embeds[0].Footer.Text)
}

func TestEmbedColor(t *testing.T) {
	assert.Equal(t, colorGood, embedColor(&Notification{TrafficScore: 7, BikeScore: 2}))
	assert.Equal(t, colorFair, embedColor(&Notification{TrafficScore: 4, BikeScore: 5}))
	assert.Equal(t, colorPoor, embedColor(&Notification{TrafficScore: 3, BikeScore: 1}))
}

func TestWebhookSignsBody(t *testing.T) {
	srv, c := captureServer(t, http.StatusAccepted)

	require.NoError(t, NewWebhook(srv.URL, "s3cret").Send(context.Background(), sampleNotification()))

	assert.Equal(t, "commutescore/1.0", c.header.Get("User-Agent"))
	assert.Equal(t, "sha256="+Sign("s3cret", c.body), c.header.Get("X-Signature-256"))

	var got Notification
	require.NoError(t, json.Unmarshal(c.body, &got))
	assert.Equal(t, "a1", got.AnalysisID)
	assert.Equal(t, 8.1, got.BikeScore)
}

func TestWebhookWithoutSecret(t *testing.T) {
	srv, c := captureServer(t, http.StatusOK)
	require.NoError(t, NewWebhook(srv.URL, "").Send(context.Background(), sampleNotification()))
	assert.Empty(t, c.header.Get("X-Signature-256"))
}

type failing struct{ name string }

func (f failing) Name() string { return f.name }
func (f failing) Send(context.Context, *Notification) error {
	return errors.New("unreachable")
}

type recording struct{ got []*Notification }

func (r *recording) Name() string { return "recording" }
func (r *recording) Send(_ context.Context, n *Notification) error {
	r.got = append(r.got, n)
	return nil
}

func TestManagerBroadcast(t *testing.T) {
	rec := &recording{}
	m := NewManager([]Notifier{failing{"a"}, rec, failing{"b"}}, zap.NewNop())
	require.True(t, m.HasNotifiers())

	err := m.Broadcast(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: unreachable")
	assert.Contains(t, err.Error(), "b: unreachable")
	assert.Len(t, rec.got, 1, "healthy notifiers still receive the alert")

	assert.False(t, NewManager(nil, nil).HasNotifiers())
	assert.NoError(t, NewManager(nil, nil).Broadcast(context.Background(), sampleNotification()))
}
