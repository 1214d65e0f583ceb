package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: sendTimeout},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

// Embed colors keyed by the better of the two scores.
const (
	colorGood = 0x2ECC71
	colorFair = 0xF1C40F
	colorPoor = 0xE74C3C
)

func embedColor(n *Notification) int {
	best := max(n.TrafficScore, n.BikeScore)
	switch {
	case best >= 7:
		return colorGood
	case best >= 4:
		return colorFair
	default:
		return colorPoor
	}
}

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	ts := n.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	embed := map[string]any{
		"title":       "🚦 " + n.Title,
		"description": n.Recommendation,
		"color":       embedColor(n),
		"timestamp":   ts.UTC().Format(time.RFC3339),
		"fields": []map[string]any{
			{"name": "Traffic", "value": fmt.Sprintf("%.1f (%s)", n.TrafficScore, n.TrafficLabel), "inline": true},
			{"name": "Bike", "value": fmt.Sprintf("%.1f (%s)", n.BikeScore, n.BikeLabel), "inline": true},
		},
	}
	if n.Reason != "" {
		embed["footer"] = map[string]any{"text": n.Reason}
	}

	body, err := json.Marshal(map[string]any{"embeds": []map[string]any{embed}})
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	return post(ctx, d.client, "discord webhook", d.webhookURL, body, nil)
}
