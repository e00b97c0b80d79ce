package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	BlobsTotal.Set(3)
	BlobPutTotal.Inc()
	HTTPRequestsTotal.WithLabelValues("/v1/healthz", "2xx").Inc()

	req := httptest.NewRequest("GET", "/v1/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "csync_blobs_total 3")
	assert.Contains(t, body, "csync_blob_put_total")
	assert.Contains(t, body, `csync_http_requests_total{route="/v1/healthz",status="2xx"}`)
}
