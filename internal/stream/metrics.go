package stream

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus collectors for the capture loop.
type Metrics struct {
	FramesCaptured prometheus.Counter
	CaptureErrors  prometheus.Counter
	LastCapture    prometheus.Gauge
	Running        prometheus.Gauge
}

// NewMetrics creates the capture metrics and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesCaptured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamcap",
			Name:      "frames_captured_total",
			Help:      "Total frames written to disk.",
		}),
		CaptureErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "streamcap",
			Name:      "capture_errors_total",
			Help:      "Frame reads or writes that aborted the capture loop.",
		}),
		LastCapture: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "streamcap",
			Name:      "last_capture_timestamp_seconds",
			Help:      "Unix time of the most recent saved frame.",
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "streamcap",
			Name:      "capture_running",
			Help:      "1 while the capture loop is active.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.FramesCaptured,
			m.CaptureErrors,
			m.LastCapture,
			m.Running,
		)
	}

	return m
}

// StartMetricsServer serves /metrics and /healthz on addr in the background.
func StartMetricsServer(addr string, gatherer prometheus.Gatherer, logger *zap.SugaredLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Infow("Metrics server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("Metrics server error", "error", err)
		}
	}()

	return srv
}
