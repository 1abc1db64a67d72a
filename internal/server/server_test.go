package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neox5/redisbox/internal/exporter"
	"github.com/neox5/redisbox/internal/metric"
	"github.com/neox5/redisbox/internal/store"
	"github.com/stretchr/testify/require"
)

const reply = "# Clients\r\nconnected_clients:5\r\n# Replication\r\nrole:master\r\n" +
	"# Keyspace\r\ndb0:keys=10,expires=2,avg_ttl=0\r\ndb1:keys=3,expires=0,avg_ttl=100\r\n"

type stubSource struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubSource) Info(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	return s.reply, s.err
}

func newTestServer(t *testing.T, source *stubSource, internalPath string) http.Handler {
	t.Helper()

	metrics, err := metric.New("redis")
	require.NoError(t, err)

	srv := New(Options{
		Addr:                "127.0.0.1:0",
		MetricsPath:         "/metrics",
		InternalMetricsPath: internalPath,
	}, exporter.New(source, metrics))

	return srv.Handler()
}

func get(t *testing.T, handler http.Handler, path, accept string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzDoesNotScrape(t *testing.T) {
	t.Parallel()

	source := &stubSource{reply: reply}
	handler := newTestServer(t, source, "")

	rec := get(t, handler, "/healthz", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, rec.Body.Len())
	require.Zero(t, source.calls)
}

func TestMetricsText(t *testing.T) {
	t.Parallel()

	source := &stubSource{reply: reply}
	handler := newTestServer(t, source, "")

	rec := get(t, handler, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"), rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	for _, want := range []string{
		"# HELP redis_connected_clients Total connections connect to redis",
		"# TYPE redis_connected_clients gauge",
		"redis_connected_clients 5\n",
		"redis_dbsize 13\n",
		"redis_avg_ttl 100\n",
		"redis_role_master 1\n",
		"redis_node_status 1\n",
		"# HELP redis_db_keys Total number of keys by DB",
		`redis_db_keys{db="db0"} 10`,
		`redis_db_keys_expiring{db="db0"} 2`,
	} {
		require.Contains(t, body, want)
	}

	require.Equal(t, 1, source.calls)
}

func TestMetricsOpenMetrics(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &stubSource{reply: reply}, "")

	rec := get(t, handler, "/metrics", "application/openmetrics-text; version=1.0.0")

	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/openmetrics-text"))
	require.True(t, strings.HasSuffix(rec.Body.String(), "# EOF\n"), "openmetrics body must end with # EOF:\n%s", rec.Body.String())
}

func TestMetricsUnreachable(t *testing.T) {
	t.Parallel()

	source := &stubSource{err: fmt.Errorf("%w: dial tcp: connection refused", store.ErrConnection)}
	handler := newTestServer(t, source, "")

	rec := get(t, handler, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "redis_node_status 0\n")
	require.NotContains(t, body, "redis_connected_clients")
	require.NotContains(t, body, "redis_db_keys")
}

func TestMetricsCommandError(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &stubSource{err: errors.New("LOADING Redis is loading the dataset in memory")}, "")

	rec := get(t, handler, "/metrics", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestInternalMetrics(t *testing.T) {
	t.Parallel()

	handler := newTestServer(t, &stubSource{reply: reply}, "/internal/metrics")

	require.Equal(t, http.StatusOK, get(t, handler, "/metrics", "").Code)

	rec := get(t, handler, "/internal/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, want := range []string{
		`promhttp_metric_handler_requests_total{code="200"} 1`,
		"redisbox_scrape_duration_seconds_count 1",
		"go_goroutines",
	} {
		require.Contains(t, body, want)
	}

	require.NotContains(t, body, "redis_node_status", "internal metrics must not include node metrics")
}

func TestStartBindsListenAddress(t *testing.T) {
	t.Parallel()

	metrics, err := metric.New("redis")
	require.NoError(t, err)

	srv := New(Options{Addr: "127.0.0.1:0", MetricsPath: "/metrics"}, exporter.New(&stubSource{reply: reply}, metrics))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStartReportsBindFailure(t *testing.T) {
	t.Parallel()

	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	metrics, err := metric.New("redis")
	require.NoError(t, err)

	srv := New(Options{Addr: taken.Addr().String(), MetricsPath: "/metrics"}, exporter.New(&stubSource{reply: reply}, metrics))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = srv.Start(ctx)
	require.Error(t, err)
	require.ErrorContains(t, err, "address already in use")
}
