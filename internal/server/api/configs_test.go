package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/clearform/internal/analyze"
	"github.com/ayusman/clearform/internal/evaluation"
	"github.com/ayusman/clearform/internal/feedback"
	"github.com/ayusman/clearform/internal/metrics"
	"github.com/ayusman/clearform/internal/refine"
	"github.com/ayusman/clearform/internal/scoring"
	"github.com/ayusman/clearform/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestAnalyzer(t *testing.T) *analyze.Analyzer {
	t.Helper()
	fg, err := feedback.NewGenerator()
	if err != nil {
		t.Fatalf("feedback.NewGenerator() error = %v", err)
	}
	return analyze.New(
		metrics.NewEngine(),
		evaluation.New(scoring.NewRegistry(), fg),
		refine.NewSafe(nil, time.Second),
	)
}

const validConfigJSON = `{
	"action_name": "forehand_clear",
	"language": "en",
	"enable_scoring": true,
	"stages": [
		{
			"name": "power",
			"weight": 1.0,
			"measurements": [
				{
					"key": "impact_arm_extension",
					"measurement_type": "angle",
					"keypoints": ["right_shoulder", "right_elbow", "right_wrist"],
					"unit": "deg",
					"target": 165,
					"tolerance": 10,
					"weight": 1.0
				}
			]
		}
	]
}`

func createConfig(t *testing.T, h *ConfigHandler, body string) configResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/configs", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp configResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid create response: %v", err)
	}
	return resp
}

func TestConfigCRUD(t *testing.T) {
	h := NewConfigHandler(newTestStore(t))

	created := createConfig(t, h, validConfigJSON)
	if created.ID == "" {
		t.Fatal("created config has no id")
	}
	if created.Config.ActionName != "forehand_clear" {
		t.Errorf("action = %q", created.Config.ActionName)
	}
	if len(created.Warnings) != 0 {
		t.Errorf("warnings = %v, want none for a clean config", created.Warnings)
	}

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/configs/"+created.ID, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp configResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if resp.ID != created.ID {
			t.Errorf("id = %q", resp.ID)
		}
	})

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/configs", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var resp listConfigsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if len(resp.Configs) != 1 {
			t.Errorf("configs = %d, want 1", len(resp.Configs))
		}
	})

	t.Run("update", func(t *testing.T) {
		updated := strings.Replace(validConfigJSON, `"language": "en"`, `"language": "zh"`, 1)
		req := httptest.NewRequest(http.MethodPut, "/api/configs/"+created.ID, strings.NewReader(updated))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}
		var resp configResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid response: %v", err)
		}
		if resp.Config.Language != "zh" {
			t.Errorf("language = %q, want zh", resp.Config.Language)
		}
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/configs/"+created.ID, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("status = %d", w.Code)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/configs/"+created.ID, nil)
		w = httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("status after delete = %d, want 404", w.Code)
		}
	})
}

func TestConfigCreateInvalidJSON(t *testing.T) {
	h := NewConfigHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodPost, "/api/configs", strings.NewReader("{broken"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestConfigCreateReturnsWarnings(t *testing.T) {
	h := NewConfigHandler(newTestStore(t))

	// A negative tolerance is stored anyway, but flagged.
	body := strings.Replace(validConfigJSON, `"tolerance": 10`, `"tolerance": -1`, 1)
	created := createConfig(t, h, body)
	if len(created.Warnings) == 0 {
		t.Error("want validator warnings on a misweighted config")
	}
}

func TestConfigGetMissing(t *testing.T) {
	h := NewConfigHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/configs/no-such-id", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestConfigMethodNotAllowed(t *testing.T) {
	h := NewConfigHandler(newTestStore(t))

	req := httptest.NewRequest(http.MethodPatch, "/api/configs", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
