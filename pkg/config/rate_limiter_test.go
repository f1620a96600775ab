package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"todolist/internal/core/model/response"
	"todolist/internal/core/telemetry"
)

func newTestLimiter() *RateLimiter {
	metrics := telemetry.NewAppMetrics(prometheus.NewRegistry())
	return NewRateLimiter(zap.NewNop(), metrics, GetDefaultConfig().RateLimitConfigs)
}

func newLimitedRouter(rl *RateLimiter, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if userID != "" {
		router.Use(func(c *gin.Context) {
			c.Set("x-user-id", userID)
			c.Next()
		})
	}

	router.Use(rl.RateLimitMiddleware())

	return router
}

func TestNewRateLimiter(t *testing.T) {
	RegisterTestingT(t)
	rl := newTestLimiter()

	Expect(rl).ToNot(BeNil())
	Expect(rl.cache).ToNot(BeNil())
	Expect(rl.config).To(HaveKey("default"))
	Expect(rl.prefixes).To(HaveKey("/api/todos"))
	Expect(rl.metrics).ToNot(BeNil())
}

func TestRateLimitMiddleware_AllowedRequests(t *testing.T) {
	RegisterTestingT(t)
	router := newLimitedRouter(newTestLimiter(), "")

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(200))
		Expect(w.Header().Get("X-RateLimit-Limit")).To(Equal("60"))
		Expect(w.Header().Get("X-RateLimit-Remaining")).To(Equal(strconv.Itoa(59 - i)))
	}
}

func TestRateLimitMiddleware_LoginLimitReturnsEnvelope(t *testing.T) {
	RegisterTestingT(t)
	router := newLimitedRouter(newTestLimiter(), "")

	router.POST("/api/users/login", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	var last *httptest.ResponseRecorder

	for i := 0; i < 11; i++ {
		last = httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/users/login", strings.NewReader(`{}`))
		router.ServeHTTP(last, req)

		if i < 10 {
			Expect(last.Code).To(Equal(200))
		}
	}

	Expect(last.Code).To(Equal(http.StatusTooManyRequests))
	Expect(last.Header().Get("Retry-After")).ToNot(BeEmpty())

	var body response.Envelope
	Expect(json.Unmarshal(last.Body.Bytes(), &body)).To(Succeed())
	Expect(body.Success).To(BeFalse())
	Expect(body.StatusCode).To(Equal(http.StatusTooManyRequests))
	Expect(body.Code).To(Equal(CodeRateLimited))
}

func TestRateLimitMiddleware_PrefixFallbackIsPerUser(t *testing.T) {
	RegisterTestingT(t)
	rl := newTestLimiter()

	router := newLimitedRouter(rl, "123")
	router.GET("/api/todos/get-todo/:todoId", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/todos/get-todo/abc", nil)
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(200))
		Expect(w.Header().Get("X-RateLimit-Limit")).To(Equal("100"))
		Expect(w.Header().Get("X-RateLimit-Remaining")).To(Equal(strconv.Itoa(99 - i)))
	}

	Expect(rl.cache.ItemCount()).To(Equal(1))

	for key := range rl.cache.Items() {
		Expect(key).To(ContainSubstring("user_123"))
		Expect(key).To(ContainSubstring("/api/todos/get-todo/:todoId"))
	}
}

func TestRateLimitMiddleware_WindowReset(t *testing.T) {
	RegisterTestingT(t)
	rl := newTestLimiter()
	rl.SetConfig("GET /short", RateLimitEndpointConfig{
		Requests: 2,
		Window:   50 * time.Millisecond,
		KeyFunc:  ClientIP,
	})

	router := newLimitedRouter(rl, "")
	router.GET("/short", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	codes := func() int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/short", nil)
		router.ServeHTTP(w, req)
		return w.Code
	}

	Expect(codes()).To(Equal(200))
	Expect(codes()).To(Equal(200))
	Expect(codes()).To(Equal(http.StatusTooManyRequests))

	time.Sleep(100 * time.Millisecond)

	Expect(codes()).To(Equal(200))
}

func TestRateLimiterGetStats(t *testing.T) {
	RegisterTestingT(t)
	rl := newTestLimiter()

	stats := rl.GetStats()

	Expect(stats["active_entries"]).To(Equal(0))
	Expect(stats["configs"]).To(Equal(len(rl.config)))
	Expect(stats["prefixes"]).To(Equal(2))
}

func TestClientIP(t *testing.T) {
	RegisterTestingT(t)
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/", nil)
	c.Request.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")

	Expect(ClientIP(c)).To(Equal("10.0.0.1"))

	c.Request.Header.Del("X-Forwarded-For")
	c.Request.Header.Set("X-Real-IP", "10.0.0.9")

	Expect(ClientIP(c)).To(Equal("10.0.0.9"))
}

func TestRateLimitMiddleware_NoDoubleCounting(t *testing.T) {
	RegisterTestingT(t)
	router := newLimitedRouter(newTestLimiter(), "123")

	callCount := 0
	var callCountMutex sync.Mutex
	router.POST("/api/todos/create-todo", func(c *gin.Context) {
		callCountMutex.Lock()
		callCount++
		callCountMutex.Unlock()
		c.JSON(201, gin.H{"status": "created"})
	})

	numRequests := 10
	results := make([]int, numRequests)
	var wg sync.WaitGroup

	for i := 0; i < numRequests; i++ {
		index := i
		wg.Go(func() {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/todos/create-todo", strings.NewReader(`{"title":"test"}`))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			remaining, _ := strconv.Atoi(w.Header().Get("X-RateLimit-Remaining"))
			results[index] = remaining
		})
	}

	wg.Wait()

	Expect(callCount).To(Equal(numRequests))

	expectedRemaining := []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
	sort.Ints(results)

	Expect(results).To(Equal(expectedRemaining))
}
