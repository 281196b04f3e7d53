package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerCounters(t *testing.T) {
	h := New()

	h.IncLinesRead()
	h.IncLinesRead()
	h.IncLinesRead()
	h.IncSkipped("no_structural_match")
	h.IncDispatched(0)
	h.IncDispatched(1)
	h.IncDispatched(1)
	h.ObserveFlush(1, 2, 5*time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(h.LinesRead))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.LinesSkipped.WithLabelValues("no_structural_match")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.RecordsDispatched.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.BatchesFlushed.WithLabelValues("1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.RowsFlushed.WithLabelValues("1")))
	assert.Equal(t, 1, testutil.CollectAndCount(h.FlushDuration))
}

func TestNilHandler(t *testing.T) {
	var h *Handler
	h.IncLinesRead()
	h.IncSkipped("x")
	h.IncDispatched(0)
	h.ObserveFlush(0, 1, time.Second)
	assert.NoError(t, h.Push(context.Background(), "http://unused", "job"))
}

func TestHTTPHandler(t *testing.T) {
	h := New()
	h.IncLinesRead()

	srv := httptest.NewServer(h.HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "logload_lines_read_total 1")
}

func TestPush(t *testing.T) {
	var gotPath, gotBody string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	h := New()
	h.IncSkipped("bad_timestamp")
	require.NoError(t, h.Push(context.Background(), gw.URL, ""))

	assert.True(t, strings.HasSuffix(gotPath, "/job/logload"), "path %q", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestServerRoutes(t *testing.T) {
	h := New()
	h.IncLinesRead()
	srv := NewServer("127.0.0.1:0", h, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "logload_lines_read_total 1")

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
