package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEngagement(t *testing.T) {
	before := testutil.ToFloat64(engagementOps.WithLabelValues("follow", "followed"))

	RecordEngagement("follow", "followed")

	assert.Equal(t, before+1, testutil.ToFloat64(engagementOps.WithLabelValues("follow", "followed")))
}

func TestGinMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/posts/like/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(Handler()))

	for _, id := range []string{"a", "b"} {
		req, _ := http.NewRequest(http.MethodPost, "/api/posts/like/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
		req, _ = http.NewRequest(http.MethodGet, "/api/posts/like/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/posts/like/:id", "200")))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `path="/api/posts/like/:id"`)
}
