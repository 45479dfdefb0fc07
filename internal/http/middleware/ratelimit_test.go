package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func TestKeyFuncs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var byIP, byRoute string
	r.POST("/calendars/:id", func(c *gin.Context) {
		byIP = KeyByIP()(c)
		byRoute = KeyByRouteAndIP()(c)
	})
	req := httptest.NewRequest(http.MethodPost, "/calendars/5", nil)
	req.RemoteAddr = net.JoinHostPort("203.0.113.9", "12345")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if byIP != "ip:203.0.113.9" {
		t.Fatalf("KeyByIP = %q", byIP)
	}
	if byRoute != "POST /calendars/:id|ip:203.0.113.9" {
		t.Fatalf("KeyByRouteAndIP = %q", byRoute)
	}
}

func TestRateLimiter_VisitorReuseAndGC(t *testing.T) {
	rl := NewRateLimiter(2.0, 0, KeyByIP())
	if rl.burst != 1 {
		t.Fatalf("burst coercion failed, got %d", rl.burst)
	}
	lim := rl.getVisitor("k1")
	if rl.getVisitor("k1") != lim {
		t.Fatalf("expected limiter reuse")
	}

	rl.ttl = time.Nanosecond
	rl.visitors["old"] = &visitor{limiter: rate.NewLimiter(1, 1), lastSeen: time.Now().Add(-time.Hour)}
	rl.cleanupN = 4999
	_ = rl.getVisitor("new")
	if _, ok := rl.visitors["old"]; ok {
		t.Fatalf("idle visitor should have been evicted")
	}
	if rl.cleanupN != 0 {
		t.Fatalf("cleanup counter not reset")
	}
}

func TestRateLimiter_Handler_429AndBypass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(PerMinute(1), 1, KeyByIP())

	r := gin.New()
	r.Use(RequestID())
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Replay") == "1" {
			c.Set(ctxKeyIdemReplay, true)
		}
		c.Next()
	})
	r.Use(rl.Handler())
	r.POST("/calendars", func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(replay bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/calendars", nil)
		req.RemoteAddr = "198.51.100.1:1000"
		if replay {
			req.Header.Set("X-Replay", "1")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := send(false); w.Code != http.StatusCreated {
		t.Fatalf("first request = %d", w.Code)
	}
	w := send(false)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d; want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "too_many_requests" || body["request_id"] == "" {
		t.Fatalf("body = %v", body)
	}
	if w := send(true); w.Code != http.StatusCreated {
		t.Fatalf("replay should bypass limiter, got %d", w.Code)
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	cases := map[rate.Limit]int{0: 60, 10: 1, 0.5: 2, rate.Limit(PerMinute(6)): 10}
	for rps, want := range cases {
		if got := retryAfterSeconds(rps); got != want {
			t.Errorf("retryAfterSeconds(%v) = %d; want %d", rps, got, want)
		}
	}
}
