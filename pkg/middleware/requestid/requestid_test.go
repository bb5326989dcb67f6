package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func newRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seen string
	router := gin.New()
	router.Use(Middleware())
	router.GET("/", func(c *gin.Context) {
		seen = FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router, &seen
}

func TestMiddlewareGeneratesID(t *testing.T) {
	router, seen := newRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	id := w.Header().Get(Header)
	if id == "" {
		t.Fatal("expected generated request ID in response header")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected valid UUID, got %q: %v", id, err)
	}
	if *seen != id {
		t.Errorf("context ID %q does not match header %q", *seen, id)
	}
}

func TestMiddlewarePreservesIncomingID(t *testing.T) {
	router, seen := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(Header, "client-supplied-id")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get(Header) != "client-supplied-id" {
		t.Errorf("expected incoming ID preserved, got %q", w.Header().Get(Header))
	}
	if *seen != "client-supplied-id" {
		t.Errorf("expected context ID propagated, got %q", *seen)
	}
}

func TestFromContextMissing(t *testing.T) {
	if got := FromContext(context.Background()); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := FromContext(nil); got != "" {
		t.Errorf("expected empty string for nil context, got %q", got)
	}
}
