package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveBackendRequest("list_products", "success", 20*time.Millisecond)
	m.ObserveBackendRequest("list_products", "success", 10*time.Millisecond)
	m.ObserveBackendRequest("place_order", "http_error", time.Millisecond)
	m.ObserveOperation("create_product", "rejected")
	m.ObserveHTTPRequest(http.MethodGet, http.StatusOK)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("list_products", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("place_order", "http_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create_product", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.backendDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveOperation("load_inventory", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `storefront_operations_total{operation="load_inventory",result="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
