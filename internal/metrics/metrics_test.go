package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/dpdpa/widget-public/:widgetId", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dpdpa/widget-public/w1", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/dpdpa/widget-public/:widgetId", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "consently_http_requests_total")
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.ConsentRecords.WithLabelValues("partial").Inc()
	m.PreferenceUpserts.WithLabelValues("failed").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsentRecords.WithLabelValues("partial")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PreferenceUpserts.WithLabelValues("failed")))
}

func TestRegisterDBStats(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := New()
	m.RegisterDBStats(db, "consent")

	count, err := testutil.GatherAndCount(m.Registry(), "go_sql_open_connections")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
