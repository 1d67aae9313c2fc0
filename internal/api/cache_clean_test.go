package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"telegram-catalog/internal/api"
	"telegram-catalog/internal/models"
)

func TestCacheClean(t *testing.T) {
	s := newServer(t)
	admin := s.bearer(s.admin1)
	const path = "/api/admin-user/cache-clean"

	setEndpoint := func(url string) {
		t.Helper()
		w := s.do(http.MethodPost, "/api/configs", admin, map[string]string{
			"path": api.CacheCleanEndpointPath, "name": "Cache clean endpoint", "value": url,
		})
		expect(t, w, http.StatusCreated)
	}

	var gotMethod, gotAuth string
	runtime := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/busy" {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"busy"}`))
			return
		}
		w.Write([]byte(`{"cleared":true}`))
	}))
	defer runtime.Close()

	t.Run("not configured", func(t *testing.T) {
		w := s.do(http.MethodPost, path, admin, nil)
		expect(t, w, http.StatusBadRequest)
		var resp map[string]string
		decode(t, w, &resp)
		if resp["error"] != "Cache clean endpoint not configured" {
			t.Fatalf("body = %v", resp)
		}
	})

	t.Run("success", func(t *testing.T) {
		setEndpoint(runtime.URL + "/cache")
		w := s.do(http.MethodPost, path, admin, nil)
		expect(t, w, http.StatusOK)
		if gotMethod != http.MethodDelete || gotAuth != "Bearer "+shop1Key {
			t.Fatalf("runtime saw %s %q", gotMethod, gotAuth)
		}
		var resp struct {
			Message    string                 `json:"message"`
			StatusCode int                    `json:"status_code"`
			Response   map[string]interface{} `json:"response"`
		}
		decode(t, w, &resp)
		if resp.Message != "Cache cleaned successfully" || resp.StatusCode != 200 || resp.Response["cleared"] != true {
			t.Fatalf("body = %+v", resp)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		setEndpoint(runtime.URL + "/busy")
		w := s.do(http.MethodPost, path, admin, nil)
		expect(t, w, http.StatusServiceUnavailable)
		var resp struct {
			Error    string            `json:"error"`
			Response map[string]string `json:"response"`
		}
		decode(t, w, &resp)
		if resp.Error != "Failed to clean cache" || resp.Response["error"] != "busy" {
			t.Fatalf("body = %+v", resp)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		closed := httptest.NewServer(http.NotFoundHandler())
		url := closed.URL
		closed.Close()

		setEndpoint(url)
		w := s.do(http.MethodPost, path, admin, nil)
		expect(t, w, http.StatusInternalServerError)
	})

	t.Run("bot missing", func(t *testing.T) {
		orphan := models.AdminUser{AdminName: "orphan", PasswordHash: "x", BotIdentifier: "ghost"}
		s.create(&orphan, &models.Config{BotIdentifier: "ghost", Path: api.CacheCleanEndpointPath, Name: "x", Value: runtime.URL})
		expect(t, s.do(http.MethodPost, path, s.bearer(orphan), nil), http.StatusNotFound)
	})

	expect(t, s.do(http.MethodPost, path, "", nil), http.StatusUnauthorized)
}
