package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func lastLogLine(t *testing.T, out string) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("bad log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestRedactingLogger_QueryAndHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/checkout/verify", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet,
		"/checkout/verify?session_id=cs_test_secret&calendar_id=12&note=a.b@example.com", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, leak := range []string{"cs_test_secret", "Bearer secret", "v1=abc", "shhh", "a.b@example.com", "123e4567-e89b", "555-123-4567"} {
		if strings.Contains(out, leak) {
			t.Fatalf("log leaked %q:\n%s", leak, out)
		}
	}

	m := lastLogLine(t, out)
	if m["level"] != "info" || m["path"] != "/checkout/verify" {
		t.Fatalf("unexpected log fields: %v", m)
	}
	q, _ := m["query"].(string)
	if !strings.Contains(q, "calendar_id=12") || !strings.Contains(q, "session_id=[REDACTED]") {
		t.Fatalf("query = %q", q)
	}
}

func TestRedactingLogger_LevelsByStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(http.ErrBodyNotAllowed)
		c.Status(http.StatusOK)
	})

	cases := map[string]string{"/bad": "warn", "/boom": "error", "/err": "error", "/nope": "warn"}
	for path, want := range cases {
		buf.Reset()
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
		if got := lastLogLine(t, buf.String())["level"]; got != want {
			t.Fatalf("%s level = %v; want %s", path, got, want)
		}
	}
}

func TestRedactQuery_Unparsable(t *testing.T) {
	got := redactQuery("a=%zz&mail=x@y.io", lowerSet(nil, nil))
	if strings.Contains(got, "x@y.io") {
		t.Fatalf("unparsable query should still be scrubbed: %q", got)
	}
}
