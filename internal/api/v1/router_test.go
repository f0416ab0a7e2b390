package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	adminauth "service-request-form/internal/admin/auth"
	"service-request-form/internal/ui"
)

type stubLogger struct {
	entries []string
}

func (s *stubLogger) Printf(format string, args ...any) {
	s.entries = append(s.entries, format)
}

func TestNewRouterServesConfigAndRoot(t *testing.T) {
	logger := &stubLogger{}
	runtime := RuntimeInfo{
		Name:         "app",
		Addr:         "127.0.0.1",
		Port:         ":1234",
		ReadTimeout:  "1s",
		Services:     []string{"payroll"},
		MaxFileBytes: 1024,
	}
	router := NewRouter(Options{Logger: logger, RuntimeInfo: runtime})

	t.Run("root", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if rr.Body.String() != "UI assets not configured" {
			t.Fatalf("unexpected body %q", rr.Body.String())
		}
	})

	t.Run("config", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/server/config", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var decoded RuntimeInfo
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !reflect.DeepEqual(decoded, runtime) {
			t.Fatalf("expected %v, got %v", runtime, decoded)
		}
	})

	t.Run("healthz", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
			t.Fatalf("unexpected healthz response %d %q", rr.Code, rr.Body.String())
		}
	})

	if len(logger.entries) == 0 {
		t.Fatalf("expected logger to record requests")
	}
}

func TestRespondJSONSetsContentType(t *testing.T) {
	rr := httptest.NewRecorder()
	respondJSON(rr, map[string]string{"key": "value"})
	if rr.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type: %s", rr.Header().Get("Content-Type"))
	}
}

func TestNewRouterWithoutLogger(t *testing.T) {
	router := NewRouter(Options{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestNewRouterServesEmbeddedUI(t *testing.T) {
	router := NewRouter(Options{UI: ui.Handler()})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `id="serviceForm"`) {
		t.Fatalf("expected form page, got %q", rr.Body.String())
	}
}

func TestNewRouterMountsMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	router := NewRouter(Options{Metrics: metrics})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Body.String() != "# metrics" {
		t.Fatalf("expected metrics handler, got %q", rr.Body.String())
	}
}

func TestNewRouterAdminLoginAndRequests(t *testing.T) {
	mgr := adminauth.NewManager(adminauth.Config{Email: "admin@example.com", Password: "secret"})
	store, _ := newStores(t)
	router := NewRouter(Options{AdminAuth: mgr, AdminStore: store})

	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "secret"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected login 200, got %d", rr.Code)
	}
	var login map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/requests", nil)
	req.Header.Set("Authorization", "Bearer "+login["token"])
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected admin list 200, got %d (%s)", rr.Code, rr.Body.String())
	}
}
