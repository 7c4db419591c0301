package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeDetector struct {
	game  string
	games []string
}

func (d *fakeDetector) Detect(_ context.Context, _ string) string { return d.game }
func (d *fakeDetector) Games() []string                           { return d.games }

func TestGameList(t *testing.T) {
	srv := newTestServer(t, Deps{Detector: &fakeDetector{games: []string{"dark_souls_3", "elden_ring", "minecraft"}}})

	req := httptest.NewRequest(http.MethodGet, "/api/games", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/games = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Games []string `json:"games"`
		Total int      `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
}

func TestGameDetect(t *testing.T) {
	tests := []struct {
		name         string
		detected     string
		wantDetected bool
	}{
		{"game found", "elden_ring", true},
		{"nothing found", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Deps{Detector: &fakeDetector{game: tt.detected}})

			body, _ := json.Marshal(DetectRequest{Message: "stuck on margit"})
			req := httptest.NewRequest(http.MethodPost, "/api/games/detect", bytes.NewReader(body))
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("POST detect = %d, want %d", w.Code, http.StatusOK)
			}

			var resp struct {
				Game     string `json:"game"`
				Detected bool   `json:"detected"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Game != tt.detected || resp.Detected != tt.wantDetected {
				t.Errorf("detect = %+v, want game %q detected %v", resp, tt.detected, tt.wantDetected)
			}
		})
	}
}
