package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-scheduler-backend/internal/domain"
)

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header(requestIDHeader, "rid-resp")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}, MaskQueryParams: []string{"ssn"}}))
	r.GET("/appointments/:id", asPrincipal(domain.Principal{ID: 8, Role: domain.RoleDoctor}), func(c *gin.Context) {
		LoggerFrom(c).Info().Msg("inside")
		c.String(http.StatusOK, "ok")
	})

	q := "email=ada%40example.com&phone=555-123-4567&ref=123e4567-e89b-12d3-a456-426614174000&ssn=078051120&password=hunter2"
	req := httptest.NewRequest(http.MethodGet, "/appointments/3?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set(requestIDHeader, "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/appointments/:id"`,
		`"request_id":"rid-resp"`,
		`"user_id":"8"`,
		`"role":"doctor"`,
		`[REDACTED:email]`,
		`[REDACTED:phone]`,
		`[REDACTED:id]`,
		`ssn=[REDACTED]`,
		`password=[REDACTED]`,
		`"Authorization":"[REDACTED]"`,
		`"Cookie":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Custom":"email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`,
		`"message":"inside"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %s in logs:\n%s", want, logs)
		}
	}
	for _, leak := range []string{"ada@example.com", "hunter2", "078051120", "topsecret", "Bearer secret"} {
		if strings.Contains(logs, leak) {
			t.Fatalf("leaked %q:\n%s", leak, logs)
		}
	}
}

func TestRedactingLogger_WarnAndErrorLevels_RequestIDFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for path, rid := range map[string]string{"/warn": "rid-warn", "/error": "rid-err"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(requestIDHeader, rid)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	logs := buf.String()
	if !strings.Contains(logs, `"level":"warn"`) || !strings.Contains(logs, `"request_id":"rid-warn"`) {
		t.Fatalf("warn log missing or without request_id fallback: %s", logs)
	}
	if !strings.Contains(logs, `"level":"error"`) || !strings.Contains(logs, `"request_id":"rid-err"`) {
		t.Fatalf("error log missing or without request_id fallback: %s", logs)
	}
}

func TestScrubQuery(t *testing.T) {
	masked := lowerSet([]string{"token"}, nil)
	if got := scrubQuery("", masked); got != "" {
		t.Fatalf("empty query = %q", got)
	}
	if got := scrubQuery("TOKEN=abc&status=completed", masked); got != "TOKEN=[REDACTED]&status=completed" {
		t.Fatalf("scrubQuery = %q", got)
	}
	// Malformed escapes fall back to plain-text scrubbing.
	if got := scrubQuery("q=%zz&mail=x@y.io", masked); !strings.Contains(got, "[REDACTED:email]") {
		t.Fatalf("fallback scrub = %q", got)
	}
}
