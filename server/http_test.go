package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/arcadelab/gamerec/config"
	"github.com/arcadelab/gamerec/core"
	"github.com/arcadelab/gamerec/service"
	"github.com/arcadelab/gamerec/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := store.NewMemoryStore()
	s.Insert("steam_genre",
		core.Document{"AppID": 101, "genre": map[string]float64{"action": 1}},
		core.Document{"AppID": 102, "genre": map[string]float64{"strategy": 1}},
		core.Document{"AppID": 103, "genre": map[string]float64{"action": 0.6, "shooter": 1}},
	)
	s.Insert("game_feedback", core.Document{
		"UserID": 42, "StationID": 7,
		"rating": []any{
			map[string]any{"AppID": 101, "RatingType": "positive"},
		},
	})

	cfg := config.Default()
	logger := log.New(io.Discard)
	srv := New(service.New(s), cfg, logger)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp.StatusCode, body
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	status, body := getJSON(t, ts.URL+"/healthz")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("status=%d body=%v", status, body)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	ts := newTestServer(t)
	status, body := getJSON(t, ts.URL+"/api/v1/recommendations/42/7?n=2")
	if status != http.StatusOK {
		t.Fatalf("status=%d body=%v", status, body)
	}
	recs, ok := body["recommendations"].([]any)
	if !ok || len(recs) == 0 {
		t.Fatalf("recommendations = %v, want non-empty list", body["recommendations"])
	}
	if int(body["count"].(float64)) != len(recs) {
		t.Errorf("count = %v does not match list length %d", body["count"], len(recs))
	}
}

func TestRecommendEndpoint_ErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"non-numeric user id", "/api/v1/recommendations/abc/7", http.StatusBadRequest, "INVALID_INPUT"},
		{"non-numeric n", "/api/v1/recommendations/42/7?n=lots", http.StatusBadRequest, "INVALID_INPUT"},
		{"n out of range", "/api/v1/recommendations/42/7?n=999", http.StatusBadRequest, "INVALID_INPUT"},
		{"no ratings for key", "/api/v1/recommendations/5/5", http.StatusNotFound, "NO_RATINGS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := getJSON(t, ts.URL+tt.path)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %v)", status, tt.wantStatus, body)
			}
			if body["error"] != tt.wantCode {
				t.Errorf("error = %v, want %s", body["error"], tt.wantCode)
			}
		})
	}
}

func TestRefreshEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/v1/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("POST refresh: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "refreshed" {
		t.Errorf("body = %v", body)
	}
}

func TestDebugConfigEndpoint_Sanitized(t *testing.T) {
	ts := newTestServer(t)
	status, body := getJSON(t, ts.URL+"/api/v1/debug/config")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if _, leaked := body["mongo_uri"]; leaked {
		t.Error("connection string must not be echoed back")
	}
	if body["database"] != "gamehive" {
		t.Errorf("database = %v", body["database"])
	}
}
