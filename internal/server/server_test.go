package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/repcount/internal/metrics"
)

func TestServer_Health(t *testing.T) {
	health := func(t *testing.T, s *Server) map[string]any {
		t.Helper()
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		return response
	}

	t.Run("reports model and session count", func(t *testing.T) {
		s, env := newTestServer(t, true)

		response := health(t, s)
		assert.Equal(t, "ok", response["status"])
		assert.Contains(t, response, "uptime")
		assert.Equal(t, true, response["model_loaded"])
		assert.Equal(t, float64(1), response["sessions"], "default session always exists")

		env.sessions.Create()
		assert.Equal(t, float64(2), health(t, s)["sessions"])
	})

	t.Run("fallback classifier reports no model", func(t *testing.T) {
		s, _ := newTestServer(t, false)
		assert.Equal(t, false, health(t, s)["model_loaded"])
	})

	t.Run("omits exercise fields without an analyzer", func(t *testing.T) {
		response := health(t, New(Config{}))
		assert.Equal(t, "ok", response["status"])
		assert.NotContains(t, response, "model_loaded")
		assert.NotContains(t, response, "sessions")
	})

	t.Run("only allows GET method", func(t *testing.T) {
		s, _ := newTestServer(t, true)
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(method, "/api/health", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/nonexistent", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_ExerciseRoutesNeedAnalyzer(t *testing.T) {
	bare := New(Config{Metrics: metrics.NewTestManager()})
	wired, _ := newTestServer(t, true)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/exercise/analyze"},
		{http.MethodPost, "/api/exercise/reset"},
		{http.MethodGet, "/api/exercise/stats"},
		{http.MethodPost, "/api/exercise/sessions"},
		{http.MethodGet, "/api/exercise/stream"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			bare.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)

			rec = httptest.NewRecorder()
			wired.ServeHTTP(rec, httptest.NewRequest(route.method, route.path, nil))
			assert.NotEqual(t, http.StatusNotFound, rec.Code, "route registered once an analyzer is configured")
		})
	}
}

func TestServer_StaticFiles(t *testing.T) {
	// Create a temporary directory with a static file
	tmpDir := t.TempDir()

	// Create a test HTML file
	testContent := "<html><body>Hello, World!</body></html>"
	if err := os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte(testContent), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Create a CSS file for testing direct file access
	cssContent := "body { color: red; }"
	if err := os.WriteFile(filepath.Join(tmpDir, "style.css"), []byte(cssContent), 0644); err != nil {
		t.Fatalf("failed to create test CSS file: %v", err)
	}

	s := New(Config{StaticDir: tmpDir})

	t.Run("serves index.html at root path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != testContent {
			t.Errorf("expected body %q, got %q", testContent, rec.Body.String())
		}
	})

	t.Run("serves static files from configured directory", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/style.css", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		if rec.Body.String() != cssContent {
			t.Errorf("expected body %q, got %q", cssContent, rec.Body.String())
		}
	})

	t.Run("returns 404 for non-existent static files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nonexistent.html", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestServer_NoStaticDir(t *testing.T) {
	s := New(Config{})

	t.Run("root path returns 404 when no static dir configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.NewTestManager()
	s := New(Config{Metrics: m})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	s.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `route="/api/health"`), rec.Body.String())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterRequests.WithLabelValues("/api/health", http.MethodGet, "200")))
}

func TestPanicRecovery(t *testing.T) {
	m := metrics.NewTestManager()

	handler := PanicRecovery(m)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("YOLO")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterHandleRequestPanic))
}
