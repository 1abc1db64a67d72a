package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/neox5/redisbox/internal/exporter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// metricsHandler runs one scrape per request and encodes the result in the
// format negotiated from the Accept header.
func metricsHandler(source exporter.Snapshotter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		families, err := source.Collect(r.Context())
		if err != nil {
			slog.Error("scrape failed", "error", err)
			http.Error(w, "scrape failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		format := expfmt.NegotiateIncludingOpenMetrics(r.Header)
		w.Header().Set("Content-Type", string(format))

		enc := expfmt.NewEncoder(w, format)
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				slog.Error("failed to encode metric family", "name", mf.GetName(), "error", err)
				return
			}
		}

		if closer, ok := enc.(expfmt.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Error("failed to close encoder", "error", err)
			}
		}
	})
}

// instrumentScrapes records the duration of every scrape request.
func instrumentScrapes(reg prometheus.Registerer, next http.Handler) http.Handler {
	scrapeDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "redisbox_scrape_duration_seconds",
		Help:    "Duration of scrape requests in seconds",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(scrapeDuration)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			scrapeDuration.Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(w, r)
	})
}
