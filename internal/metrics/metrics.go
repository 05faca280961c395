package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Camera flight metrics
	FlightsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoglobe",
		Subsystem: "flight",
		Name:      "started_total",
		Help:      "Flights started, by plan kind",
	}, []string{"kind"})

	FlightsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geoglobe",
		Subsystem: "flight",
		Name:      "dropped_total",
		Help:      "Flight requests dropped because another flight was in progress",
	})

	FlightsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geoglobe",
		Subsystem: "flight",
		Name:      "completed_total",
		Help:      "Flights that reached their final target",
	})

	FlightFrames = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geoglobe",
		Subsystem: "flight",
		Name:      "frames",
		Help:      "Frames needed to complete a flight",
		Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
	})

	FramesStepped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geoglobe",
		Subsystem: "camera",
		Name:      "frames_total",
		Help:      "Camera frames produced by animation or direct moves",
	})

	// Tessellation metrics
	TessellatedTriangles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geoglobe",
		Subsystem: "tessellate",
		Name:      "triangles_total",
		Help:      "Triangles produced by the tessellator",
	})

	TessellationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geoglobe",
		Subsystem: "tessellate",
		Name:      "errors_total",
		Help:      "Features rejected by the tessellator",
	})

	OverlayBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geoglobe",
		Subsystem: "overlay",
		Name:      "build_duration_seconds",
		Help:      "Time to build the overlays of one layer",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})
)

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
