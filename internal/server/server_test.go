package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/clearform/internal/analyze"
	"github.com/ayusman/clearform/internal/evaluation"
	"github.com/ayusman/clearform/internal/feedback"
	"github.com/ayusman/clearform/internal/metrics"
	"github.com/ayusman/clearform/internal/refine"
	"github.com/ayusman/clearform/internal/rules"
	"github.com/ayusman/clearform/internal/scoring"
	"github.com/ayusman/clearform/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fg, err := feedback.NewGenerator()
	if err != nil {
		t.Fatalf("feedback.NewGenerator() error = %v", err)
	}
	analyzer := analyze.New(
		metrics.NewEngine(),
		evaluation.New(scoring.NewRegistry(), fg),
		refine.NewSafe(nil, time.Second),
	)

	return New(Config{Store: st, Analyzer: analyzer})
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
	if _, ok := body["uptime"]; !ok {
		t.Error("response missing uptime")
	}
	// No config seeded yet: an empty deployment is visible here.
	if n, ok := body["actions"].(float64); !ok || n != 0 {
		t.Errorf("actions = %v, want 0", body["actions"])
	}
}

func TestHealthReportsInstalledActions(t *testing.T) {
	s := newTestServer(t)

	if err := s.config.Store.Configs().Create(&store.StoredConfig{
		ID:     "cfg-1",
		Config: rules.ForehandClear(),
	}); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if n, ok := body["actions"].(float64); !ok || n != 1 {
		t.Errorf("actions = %v, want 1", body["actions"])
	}
}

func TestHealthMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/health", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a static dir", w.Code)
	}
}

func TestWatchConcurrentPublish(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	waitForClients(t, s.watch, 1)

	// Evaluation requests publish from their own goroutines; every event
	// must arrive intact.
	const events = 20
	var wg sync.WaitGroup
	for i := 0; i < events; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.watch.Publish(map[string]int{"n": n})
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool, events)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < events; i++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %d error = %v", i, err)
		}
		var event struct {
			Evaluation struct {
				N int `json:"n"`
			} `json:"evaluation"`
		}
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("invalid event JSON: %v", err)
		}
		seen[event.Evaluation.N] = true
	}
	if len(seen) != events {
		t.Errorf("distinct events = %d, want %d", len(seen), events)
	}
}

func waitForClients(t *testing.T, w *WatchHandler, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		w.mu.RLock()
		n := len(w.clients)
		w.mu.RUnlock()
		if n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("watch clients = %d, want %d", n, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWatchBroadcast(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/watch"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial error = %v", err)
	}
	defer conn.Close()

	waitForClients(t, s.watch, 1)

	s.watch.Publish(map[string]string{"action_name": "forehand_clear"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read error = %v", err)
	}

	var event struct {
		Evaluation map[string]string `json:"evaluation"`
		Timestamp  int64             `json:"timestamp"`
	}
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("invalid event JSON: %v", err)
	}
	if event.Evaluation["action_name"] != "forehand_clear" {
		t.Errorf("event = %+v", event)
	}
	if event.Timestamp == 0 {
		t.Error("event missing timestamp")
	}
}
