package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elonfeng/commutescore/internal/config"
	"github.com/elonfeng/commutescore/internal/logging"
	"github.com/elonfeng/commutescore/internal/scheduler"
	"github.com/elonfeng/commutescore/pkg/alert"
	"github.com/elonfeng/commutescore/pkg/commute"
	"github.com/elonfeng/commutescore/pkg/provider"
	"github.com/elonfeng/commutescore/pkg/rng"
	"github.com/elonfeng/commutescore/pkg/scoring"
	"github.com/elonfeng/commutescore/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// app holds the components every command shares.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	engine   *scoring.Engine
	analyzer *commute.Analyzer
}

func setup() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Keys().Warnings() {
		logger.Warn(w)
	}

	engine := buildEngine(cfg, logger)
	return &app{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		analyzer: commute.NewAnalyzer(engine, cfg.Keys(), logger),
	}, nil
}

func buildEngine(cfg *config.Config, logger *zap.Logger) *scoring.Engine {
	p := cfg.Providers
	timeout := p.ParseTimeout()

	var src rng.Source = rng.NewTimeSeeded()
	if p.Seed != 0 {
		src = rng.New(p.Seed)
	}

	google := provider.NewGoogleMaps(p.GoogleMaps.BaseURL, cfg.GoogleMapsKey(), p.GoogleMaps.Language, timeout, logger)
	weather := provider.NewOpenWeather(p.OpenWeather.BaseURL, cfg.OpenWeatherKey(), p.OpenWeather.Units, p.OpenWeather.Language, timeout, logger)
	mapbox := provider.NewMapbox(p.Mapbox.BaseURL, cfg.MapboxKey(), timeout, src, logger)

	return scoring.NewEngine(google, weather, mapbox, logger,
		scoring.WithWeights(cfg.Weights.TrafficWeights(), cfg.Weights.BikeWeights()),
		scoring.WithRand(src),
	)
}

func buildAlertManager(cfg *config.Config, logger *zap.Logger) *alert.Manager {
	var notifiers []alert.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewSlack(cfg.Alerts.Slack.WebhookURL))
	}
	if cfg.Alerts.Discord.Enabled && cfg.Alerts.Discord.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewDiscord(cfg.Alerts.Discord.WebhookURL))
	}
	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Secret))
	}

	return alert.NewManager(notifiers, logger)
}

func runAnalyze(ctx context.Context, out io.Writer, from, to string, jsonOutput bool) error {
	if err := commute.ValidateAddresses(from, to); err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	an, err := a.analyzer.Analyze(ctx, from, to)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(an)
	}
	return printAnalysis(out, an)
}

func printAnalysis(out io.Writer, an *commute.Analysis) error {
	fmt.Fprintf(out, "%s → %s\n\n", an.Origin, an.Destination)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tSCORE\tLABEL\tDATA\tSUMMARY")
	fmt.Fprintf(w, "traffic\t%.1f\t%s\t%s\t%s\n", an.Traffic.Score, an.TrafficLabel, an.Traffic.Status, an.TrafficDescription)
	fmt.Fprintf(w, "bike\t%.1f\t%s\t%s\t%s\n", an.Bike.Score, an.BikeLabel, an.Bike.Status, an.BikeDescription)
	if err := w.Flush(); err != nil {
		return err
	}

	for _, section := range []struct {
		title string
		rows  []commute.FactorInfo
	}{
		{"Traffic factors", an.TrafficFactors},
		{"Bike factors", an.BikeFactors},
	} {
		fmt.Fprintf(out, "\n%s\n", section.title)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FACTOR\tSCORE\tLABEL\tSOURCE\tDESCRIPTION")
		for _, f := range section.rows {
			fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\t%s\n", f.Name, f.Score, f.Label, f.Source, f.Description)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\n%s\n", an.Recommendation)
	if an.RouteSummary != "" {
		fmt.Fprintln(out, an.RouteSummary)
	}
	if an.WeatherSummary != "" {
		fmt.Fprintln(out, an.WeatherSummary)
	}
	for _, warn := range an.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warn)
	}
	return nil
}

func runServe(port int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	if port == 0 {
		port = a.cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(a.analyzer, a.engine, port, a.cfg.Server.ParseShutdownTimeout(), a.logger)
	return srv.ListenAndServe(ctx)
}

func (a *app) newScheduler(from, to string, interval time.Duration, bikeThreshold float64) *scheduler.Scheduler {
	w := a.cfg.Watch
	if from == "" {
		from = w.Origin
	}
	if to == "" {
		to = w.Destination
	}
	if interval == 0 {
		interval = w.ParseInterval()
	}
	if bikeThreshold == 0 {
		bikeThreshold = w.BikeThreshold
	}
	alertMgr := buildAlertManager(a.cfg, a.logger)
	if !alertMgr.HasNotifiers() {
		a.logger.Warn("no alert destinations configured, changes will only be logged")
	}
	return scheduler.New(a.analyzer, alertMgr, from, to, interval, bikeThreshold, a.logger)
}

// checkWatchFlags rejects flag values the config validation would also reject.
// Zero means "use the config value".
func checkWatchFlags(interval time.Duration, bikeThreshold float64) error {
	if interval < 0 {
		return fmt.Errorf("--interval must be positive, got %s", interval)
	}
	if bikeThreshold != 0 && (bikeThreshold < scoring.MinScore || bikeThreshold > scoring.MaxScore) {
		return fmt.Errorf("--bike-threshold %v outside [1,10]", bikeThreshold)
	}
	return nil
}

func runWatch(from, to string, interval time.Duration, bikeThreshold float64) error {
	if err := checkWatchFlags(interval, bikeThreshold); err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = a.newScheduler(from, to, interval, bikeThreshold).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runDaemon(port int) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	if port == 0 {
		port = a.cfg.Server.Port
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(a.analyzer, a.engine, port, a.cfg.Server.ParseShutdownTimeout(), a.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(ctx) })
	if a.cfg.Watch.Origin != "" && a.cfg.Watch.Destination != "" {
		sched := a.newScheduler("", "", 0, 0)
		g.Go(func() error {
			if err := sched.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	} else {
		a.logger.Info("watch.origin/watch.destination not set, running server only")
	}
	return g.Wait()
}

func runKeys(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	keys := cfg.Keys()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tDATA")
	fmt.Fprintf(w, "Google Maps\t%s\n", mode(keys.GoogleMaps))
	fmt.Fprintf(w, "OpenWeather\t%s\n", mode(keys.OpenWeather))
	fmt.Fprintf(w, "Mapbox\t%s\n", mode(keys.Mapbox))
	if err := w.Flush(); err != nil {
		return err
	}
	for _, warn := range keys.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", warn)
	}
	return nil
}

func mode(live bool) commute.DataSource {
	if live {
		return commute.SourceReal
	}
	return commute.SourceSimulated
}

func runWeights(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	traffic, bike := cfg.Weights.TrafficWeights(), cfg.Weights.BikeWeights()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODE\tFACTOR\tWEIGHT")
	for _, f := range scoring.TrafficFactors {
		fmt.Fprintf(w, "traffic\t%s\t%.2f\n", f, traffic[f])
	}
	for _, f := range scoring.BikeFactors {
		fmt.Fprintf(w, "bike\t%s\t%.2f\n", f, bike[f])
	}
	return w.Flush()
}
