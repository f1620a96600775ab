package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/internal/core/telemetry"
	"todolist/internal/core/token"
	ct "todolist/pkg/context"
	"todolist/pkg/logger"
)

func newIssuer(t *testing.T) *token.Issuer {
	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:       "access",
		AccessTTL:          time.Minute,
		RefreshSecret:      "refresh",
		RefreshTTL:         time.Hour,
		VerificationSecret: "verification",
		VerificationTTL:    time.Hour,
	})
	require.NoError(t, err)

	return issuer
}

func TestCurrentMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string

	router := gin.New()
	router.Use(CurrentMiddleware())
	router.GET("/", func(c *gin.Context) {
		current, ok := ct.FromContext(c.Request.Context())
		require.True(t, ok)
		assert.Same(t, current, GetCurrent(c))
		seen = current.RequestID()
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rr.Header().Get(RequestIDHeader))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "req-123", seen)
}

func TestJwtMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	issuer := newIssuer(t)

	router := gin.New()
	router.Use(CurrentMiddleware())
	router.Use(JwtMiddleware(issuer))
	router.GET("/", func(c *gin.Context) {
		assert.Equal(t, UserID(c), GetCurrent(c).UserID())
		c.String(http.StatusOK, UserID(c))
	})

	access, err := issuer.IssueAccessToken("user-1")
	require.NoError(t, err)

	refresh, err := issuer.IssueRefreshToken("user-1")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid bearer", "Bearer " + access, http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer " + access, http.StatusOK, "user-1"},
		{"missing header", "", http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
		{"wrong scheme", "Basic " + access, http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
		{"empty token", "Bearer ", http.StatusUnauthorized, `"code":"UNAUTHORIZED"`},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, `"code":"INVALID_TOKEN"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.body)
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewAppMetrics(registry)

	router := gin.New()
	router.Use(MetricsMiddleware(metrics))
	router.GET("/todos/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/todos/42", nil))

	families, err := registry.Gather()
	require.NoError(t, err)

	found := false

	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}

		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}

			if labels["path"] == "/todos/:id" && labels["status"] == "418" {
				found = true
			}
		}
	}

	assert.True(t, found)
}

func TestLoggingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(LoggingMiddleware(logger.NewNopLogger()))
	router.GET("/", func(c *gin.Context) {
		c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?page=1", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
