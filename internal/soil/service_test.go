package soil_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/db"
	"github.com/oscar066/kiduka-cli/internal/model"
	"github.com/oscar066/kiduka-cli/internal/soil"
	"github.com/oscar066/kiduka-cli/internal/store"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kiduka.db")
	sqldb, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return sqldb
}

func newService(t *testing.T, sqldb *sql.DB, handler http.Handler) *soil.Service {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client := &api.Client{
		BaseURL:    ts.URL,
		HTTPClient: ts.Client(),
		Tokens:     store.DBTokens{DB: sqldb},
	}
	return &soil.Service{DB: sqldb, Client: client}
}

func validSample() model.SoilSample {
	return model.SoilSample{
		Texture:       "Loamy",
		PH:            6.4,
		Nitrogen:      42,
		Phosphorus:    18,
		Potassium:     120,
		OrganicMatter: 3.2,
		Calcium:       900,
		Magnesium:     110,
		Copper:        1.1,
		Iron:          40,
		Zinc:          2.4,
		Latitude:      -1.2921,
		Longitude:     36.8219,
	}
}

func TestAnalyzeMapsRequestAndResponse(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		// Exact backend field names.
		for _, key := range []string{"simplified_texture", "ph", "n", "p", "k", "o", "ca", "mg", "cu", "fe", "zn", "latitude", "longitude"} {
			if _, present := body[key]; !present {
				t.Errorf("missing request field %q", key)
			}
		}
		if body["simplified_texture"] != "Loamy" {
			t.Errorf("unexpected texture %v", body["simplified_texture"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "soil_fertility_status": "MODERATELY_HEALTHY",
  "soil_fertility_confidence": 0.91,
  "fertilizer_recommendation": "NPK 17:17:17",
  "fertilizer_confidence": 0.84,
  "nearest_agrovets": [
    {"name": "Mavuno Agrovet", "latitude": -1.29, "longitude": 36.82,
     "products": ["NPK 17:17:17", "DAP"], "prices": [2300, 2800], "distance_km": 3.1}
  ],
  "prediction_id": "pred-42",
  "timestamp": "2026-08-01T10:00:00Z"
}`))
	})

	svc := newService(t, sqldb, mux)
	result, err := svc.Analyze(context.Background(), validSample())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.FertilityStatus != "MODERATELY_HEALTHY" || result.FertilityConfidence != 0.91 {
		t.Fatalf("unexpected fertility mapping: %+v", result)
	}
	if len(result.NearbyAgrovets) != 1 || result.NearbyAgrovets[0].Name != "Mavuno Agrovet" {
		t.Fatalf("unexpected agrovets: %+v", result.NearbyAgrovets)
	}
	if len(result.NearbyAgrovets[0].Products) != 2 || len(result.NearbyAgrovets[0].Prices) != 2 {
		t.Fatalf("expected parallel product/price arrays: %+v", result.NearbyAgrovets[0])
	}

	cached, ok, err := store.CachedAnalysis(sqldb, "pred-42")
	if err != nil || !ok {
		t.Fatalf("expected result cached: ok=%v err=%v", ok, err)
	}
	if cached.FertilizerRecommendation != "NPK 17:17:17" {
		t.Fatalf("unexpected cached result: %+v", cached)
	}
}

func TestAnalyzeValidationNeverReachesNetwork(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	called := false
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { called = true })

	svc := newService(t, sqldb, mux)
	sample := validSample()
	sample.PH = 15
	sample.Texture = ""

	_, err := svc.Analyze(context.Background(), sample)
	var vErr *soil.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(vErr.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %v", vErr.Fields)
	}
	if called {
		t.Fatalf("validation failure must not reach the network")
	}
}

func TestAnalyzeHonorsConfiguredTimeout(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	svc := newService(t, sqldb, mux)
	svc.AnalyzeTimeout = 50 * time.Millisecond
	_, err := svc.Analyze(context.Background(), validSample())
	if !api.IsTimeout(err) {
		t.Fatalf("expected configured deadline to time the request out, got %v", err)
	}
}

func TestBackendRejectionKeepsDraft(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"sample outside model range"}`))
	})

	svc := newService(t, sqldb, mux)
	if _, err := svc.SaveDraft(draftFromSample(validSample())); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	_, err := svc.AnalyzeDraft(context.Background())
	if err == nil {
		t.Fatalf("expected backend rejection")
	}
	apiErr, ok := api.AsAPIError(err)
	if !ok || apiErr.Status != 422 || apiErr.Message != "sample outside model range" {
		t.Fatalf("expected normalized 422 with server detail, got %v", err)
	}
	if _, ok, _ := store.Draft(sqldb); !ok {
		t.Fatalf("draft must survive a rejected submission")
	}
}

func TestAnalyzeDraftClearsSlotOnSuccess(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"soil_fertility_status":"HEALTHY","soil_fertility_confidence":0.95,"fertilizer_recommendation":"None needed","fertilizer_confidence":0.9,"nearest_agrovets":[],"prediction_id":"pred-1","timestamp":"2026-08-01T10:00:00Z"}`))
	})

	svc := newService(t, sqldb, mux)
	if _, err := svc.SaveDraft(draftFromSample(validSample())); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	result, err := svc.AnalyzeDraft(context.Background())
	if err != nil {
		t.Fatalf("analyze draft: %v", err)
	}
	if result.FertilityStatus != "HEALTHY" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, ok, _ := store.Draft(sqldb); ok {
		t.Fatalf("draft must be cleared after a successful submission")
	}
}

func TestAnalyzeDraftRequiresCompleteDraft(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	svc := newService(t, sqldb, http.NewServeMux())
	texture := "Loamy"
	if _, err := svc.SaveDraft(model.SoilDraft{Texture: &texture}); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if _, err := svc.AnalyzeDraft(context.Background()); err == nil {
		t.Fatalf("expected incomplete draft to be rejected")
	}
}

func TestHistoryMapsRenamedFields(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /predictions", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("size") != "5" || q.Get("sort_by") != "created_at" || q.Get("sort_order") != "asc" {
			t.Errorf("unexpected query: %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "predictions": [
    {"id": "pred-7", "fertility_prediction": "POOR", "fertility_confidence": 0.7,
     "fertilizer_recommendation": "Compost", "fertilizer_confidence": 0.66,
     "agrovets": [], "created_at": "2026-07-01T08:00:00Z"},
    {"id": "pred-8", "agrovets": [], "created_at": "2026-07-02T08:00:00Z"}
  ],
  "total": 12, "page": 2, "size": 5, "pages": 3
}`))
	})

	svc := newService(t, sqldb, mux)
	page, err := svc.History(context.Background(), 2, 5, "", "asc")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if page.Total != 12 || page.Page != 2 || page.Size != 5 || page.TotalPages != 3 {
		t.Fatalf("unexpected page envelope: %+v", page)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	first := page.Items[0]
	if first.FertilityStatus != "POOR" || first.PredictionID != "pred-7" || first.Timestamp != "2026-07-01T08:00:00Z" {
		t.Fatalf("history rename mapping broken: %+v", first)
	}
	// Backend rows with missing optional fields get display fallbacks.
	second := page.Items[1]
	if second.FertilityStatus != "Unknown" || second.FertilizerRecommendation != "No recommendation" {
		t.Fatalf("expected fallbacks for sparse row: %+v", second)
	}
}

func TestHistoryRejectsInvalidSortOrder(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	svc := newService(t, sqldb, http.NewServeMux())
	if _, err := svc.History(context.Background(), 1, 10, "created_at", "sideways"); err == nil {
		t.Fatalf("expected invalid sort order to be rejected")
	}
}

func TestByIDCachesResult(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /predictions/pred-9", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pred-9","fertility_prediction":"HEALTHY","fertility_confidence":0.9,"fertilizer_recommendation":"None","fertilizer_confidence":0.88,"agrovets":[],"created_at":"2026-07-03T08:00:00Z"}`))
	})

	svc := newService(t, sqldb, mux)
	result, err := svc.ByID(context.Background(), "pred-9")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if result.PredictionID != "pred-9" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if _, ok, _ := store.CachedAnalysis(sqldb, "pred-9"); !ok {
		t.Fatalf("expected fetched analysis cached")
	}
}

func TestDeleteDropsCachedCopy(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /predictions/pred-9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if err := store.CacheAnalysis(sqldb, model.AnalysisResult{PredictionID: "pred-9", FertilityStatus: "HEALTHY"}); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	svc := newService(t, sqldb, mux)
	if err := svc.Delete(context.Background(), "pred-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.CachedAnalysis(sqldb, "pred-9"); ok {
		t.Fatalf("expected cached copy removed after delete")
	}
}

func TestSaveDraftOverlaysExistingSlot(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	svc := newService(t, sqldb, http.NewServeMux())

	texture := "Clay"
	ph := 5.9
	if _, err := svc.SaveDraft(model.SoilDraft{Texture: &texture, PH: &ph}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	nitrogen := 30.0
	merged, err := svc.SaveDraft(model.SoilDraft{Nitrogen: &nitrogen})
	if err != nil {
		t.Fatalf("overlay save: %v", err)
	}
	if merged.Texture == nil || *merged.Texture != "Clay" {
		t.Fatalf("expected texture preserved across overlay, got %+v", merged.Texture)
	}
	if merged.Nitrogen == nil || *merged.Nitrogen != 30 {
		t.Fatalf("expected nitrogen set by overlay, got %+v", merged.Nitrogen)
	}
}

func draftFromSample(s model.SoilSample) model.SoilDraft {
	return model.SoilDraft{
		Texture:       &s.Texture,
		PH:            &s.PH,
		Nitrogen:      &s.Nitrogen,
		Phosphorus:    &s.Phosphorus,
		Potassium:     &s.Potassium,
		OrganicMatter: &s.OrganicMatter,
		Calcium:       &s.Calcium,
		Magnesium:     &s.Magnesium,
		Copper:        &s.Copper,
		Iron:          &s.Iron,
		Zinc:          &s.Zinc,
		Latitude:      &s.Latitude,
		Longitude:     &s.Longitude,
	}
}
