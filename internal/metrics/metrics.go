package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Collector struct {
	reg *prometheus.Registry

	ActivePlaybacks prometheus.Gauge

	PlaybacksStarted   prometheus.Counter
	PlaybacksFinished  *prometheus.CounterVec // outcome label: completed|superseded
	StepsPlayed        *prometheus.CounterVec // maneuver label
	FramesRendered     prometheus.Counter
	MarkerErrors       prometheus.Counter
	DirectionsRequests *prometheus.CounterVec // status label: ok|error

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	FrameDuration   prometheus.Histogram
	PublishDuration prometheus.Histogram

	FrameRate          prometheus.Gauge
	DurationMultiplier prometheus.Gauge
}

func NewCollector(frameRate, durationMultiplier float64) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActivePlaybacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "navigation_active_playbacks",
			Help: "Number of playback loops currently running.",
		}),
		PlaybacksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navigation_playbacks_started_total",
			Help: "Total playbacks started.",
		}),
		PlaybacksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navigation_playbacks_finished_total",
			Help: "Total playbacks finished, by outcome.",
		}, []string{"outcome"}),
		StepsPlayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navigation_steps_played_total",
			Help: "Total route steps played, by maneuver type.",
		}, []string{"maneuver"}),
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navigation_frames_total",
			Help: "Total frames driven by playback loops.",
		}),
		MarkerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navigation_marker_errors_total",
			Help: "Total marker placement or removal failures.",
		}),
		DirectionsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navigation_directions_requests_total",
			Help: "Total directions requests, by status.",
		}, []string{"status"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navigation_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navigation_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "navigation_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "navigation_frame_duration_seconds",
			Help:    "Duration of frame computations.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "navigation_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		FrameRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "navigation_frame_rate",
			Help: "Configured frames per second.",
		}),
		DurationMultiplier: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "navigation_duration_multiplier",
			Help: "Configured animation duration multiplier.",
		}),
	}

	// Register
	reg.MustRegister(
		c.ActivePlaybacks,
		c.PlaybacksStarted, c.PlaybacksFinished, c.StepsPlayed, c.FramesRendered,
		c.MarkerErrors, c.DirectionsRequests,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.FrameDuration, c.PublishDuration,
		c.FrameRate, c.DurationMultiplier,
	)

	c.FrameRate.Set(frameRate)
	c.DurationMultiplier.Set(durationMultiplier)

	return c
}

// PlaybackStarted, PlaybackFinished, StepPlayed and FrameObserve let the
// collector observe a player directly.

func (c *Collector) PlaybackStarted() {
	c.PlaybacksStarted.Inc()
	c.ActivePlaybacks.Inc()
}

func (c *Collector) PlaybackFinished(superseded bool) {
	c.ActivePlaybacks.Dec()
	outcome := "completed"
	if superseded {
		outcome = "superseded"
	}
	c.PlaybacksFinished.WithLabelValues(outcome).Inc()
}

func (c *Collector) StepPlayed(maneuverType string) {
	c.StepsPlayed.WithLabelValues(maneuverType).Inc()
}

func (c *Collector) FrameObserve(d time.Duration) {
	c.FramesRendered.Inc()
	c.FrameDuration.Observe(d.Seconds())
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	log.Info("metrics listening", zap.String("addr", addr))
	return srv
}

func (c *Collector) DirectionsRequest(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	c.DirectionsRequests.WithLabelValues(status).Inc()
}

func (c *Collector) MarkerError() { c.MarkerErrors.Inc() }
