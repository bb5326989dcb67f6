package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/extlabs/ext/pkg/observability/logger"
)

func newFileLogger(t *testing.T) (logger.Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "access.log")
	log, err := logger.NewZapLogger(logger.Config{
		Level:  logger.DebugLevel,
		Format: logger.JSONFormat,
		File:   path,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return log, path
}

func TestMiddlewareLogsRequestFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, path := newFileLogger(t)

	router := gin.New()
	router.Use(Middleware(log))
	router.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items?page=2", nil))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"request completed", `"method":"GET"`, `"path":"/items"`, `"status":200`, `"query_string":"page=2"`} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %s in log output, got %s", want, content)
		}
	}
}

func TestMiddlewareLogsServerErrorsAtErrorLevel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, path := newFileLogger(t)

	router := gin.New()
	router.Use(Middleware(log))
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, `"level":"error"`) {
		t.Errorf("expected error-level entry, got %s", content)
	}
	if !strings.Contains(content, "request failed") {
		t.Errorf("expected failure message, got %s", content)
	}
}

func TestMiddlewareSkipsExcludedPrefixes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, path := newFileLogger(t)

	router := gin.New()
	router.Use(WithConfig(log, Config{ExcludedPathPrefixes: []string{"/health"}}))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "/health") {
		t.Errorf("excluded path must not be logged, got %s", string(data))
	}
}
