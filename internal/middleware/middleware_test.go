package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestContextMiddleware(), Recovery())
	r.GET("/", h)
	return r
}

func TestRequestContextGeneratesID(t *testing.T) {
	var seen *RequestContext
	r := newRouter(func(c *gin.Context) {
		rc, ok := FromContext(c.Request.Context())
		if !ok {
			t.Error("request context missing from request ctx")
		}
		seen = rc
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("X-Request-ID header not set")
	}
	if seen == nil || seen.RequestID != id {
		t.Errorf("context id = %v, header id = %q", seen, id)
	}
}

func TestRequestContextReusesIncomingID(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		if got := Get(c).RequestID; got != "abc-123" {
			t.Errorf("RequestID = %q", got)
		}
		if v, _ := c.Get(RequestIDKey); v != "abc-123" {
			t.Errorf("gin key = %v", v)
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("header = %q", got)
	}
}

func TestRecoveryReturnsJSON500(t *testing.T) {
	r := newRouter(func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body["error"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestLogFieldsWithoutContext(t *testing.T) {
	fields := LogFields(context.Background())
	if fields == nil || len(fields) != 0 {
		t.Errorf("LogFields = %v, want empty map", fields)
	}
}
