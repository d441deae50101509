package store_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/oscar066/kiduka-cli/internal/db"
	"github.com/oscar066/kiduka-cli/internal/model"
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

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	if _, ok, err := store.Token(sqldb); err != nil || ok {
		t.Fatalf("expected no token initially, got ok=%v err=%v", ok, err)
	}
	if err := store.SaveToken(sqldb, "tok-1"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := store.SaveToken(sqldb, "tok-2"); err != nil {
		t.Fatalf("overwrite token: %v", err)
	}
	token, ok, err := store.Token(sqldb)
	if err != nil || !ok {
		t.Fatalf("read token: ok=%v err=%v", ok, err)
	}
	if token != "tok-2" {
		t.Fatalf("expected last written token, got %q", token)
	}
	if err := store.DeleteToken(sqldb); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if _, ok, _ := store.Token(sqldb); ok {
		t.Fatalf("expected token gone after delete")
	}
}

func TestSaveTokenRejectsEmpty(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	if err := store.SaveToken(sqldb, ""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestUserCacheSupersededWholesale(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	first := model.User{ID: "u1", Username: "amina", Email: "amina@example.com", FullName: "Amina W", IsActive: true, CreatedAt: "2026-01-01T00:00:00Z"}
	if err := store.SaveUser(sqldb, first); err != nil {
		t.Fatalf("save user: %v", err)
	}
	second := model.User{ID: "u1", Username: "amina", Email: "amina@kiduka.app", IsActive: true, IsVerified: true, CreatedAt: "2026-01-01T00:00:00Z"}
	if err := store.SaveUser(sqldb, second); err != nil {
		t.Fatalf("replace user: %v", err)
	}

	got, ok, err := store.CachedUser(sqldb)
	if err != nil || !ok {
		t.Fatalf("read cached user: ok=%v err=%v", ok, err)
	}
	if got.Email != "amina@kiduka.app" || !got.IsVerified {
		t.Fatalf("expected replacement to win: %+v", got)
	}
	if got.FullName != "" {
		t.Fatalf("expected full name cleared by wholesale replacement, got %q", got.FullName)
	}
}

func TestClearSessionIdempotent(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	if err := store.SaveToken(sqldb, "tok"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := store.SaveUser(sqldb, model.User{ID: "u1", Username: "a", Email: "a@b.c", CreatedAt: "now"}); err != nil {
		t.Fatalf("save user: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := store.ClearSession(sqldb); err != nil {
			t.Fatalf("clear session run %d: %v", i+1, err)
		}
	}
	if _, ok, _ := store.Token(sqldb); ok {
		t.Fatalf("expected no token after clear")
	}
	if _, ok, _ := store.CachedUser(sqldb); ok {
		t.Fatalf("expected no cached user after clear")
	}
}

func TestDraftRoundTripAndClear(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	texture := "loamy"
	ph := 6.4
	nitrogen := 22.0
	draft := model.SoilDraft{Texture: &texture, PH: &ph, Nitrogen: &nitrogen}
	if err := store.SaveDraft(sqldb, draft); err != nil {
		t.Fatalf("save draft: %v", err)
	}

	got, ok, err := store.Draft(sqldb)
	if err != nil || !ok {
		t.Fatalf("read draft: ok=%v err=%v", ok, err)
	}
	if got.Texture == nil || *got.Texture != "loamy" {
		t.Fatalf("expected texture to round-trip, got %+v", got.Texture)
	}
	if got.PH == nil || *got.PH != 6.4 {
		t.Fatalf("expected ph to round-trip, got %+v", got.PH)
	}
	if got.Phosphorus != nil {
		t.Fatalf("expected unset field to stay absent")
	}
	if got.Complete() {
		t.Fatalf("partial draft must not report complete")
	}

	if err := store.ClearDraft(sqldb); err != nil {
		t.Fatalf("clear draft: %v", err)
	}
	if _, ok, _ := store.Draft(sqldb); ok {
		t.Fatalf("expected draft absent after clear")
	}
	// Clearing an already empty slot is fine.
	if err := store.ClearDraft(sqldb); err != nil {
		t.Fatalf("second clear draft: %v", err)
	}
}

func TestAnalysisCacheRoundTrip(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	result := model.AnalysisResult{
		FertilityStatus:          "MODERATE",
		FertilityConfidence:      0.87,
		FertilizerRecommendation: "NPK 17:17:17",
		FertilizerConfidence:     0.79,
		PredictionID:             "pred-1",
		Timestamp:                "2026-08-01T10:00:00Z",
		NearbyAgrovets: []model.Agrovet{
			{Name: "Mavuno Agrovet", Products: []string{"NPK 17:17:17"}, Prices: []float64{2300}, DistanceKm: 3.1},
		},
	}
	if err := store.CacheAnalysis(sqldb, result); err != nil {
		t.Fatalf("cache analysis: %v", err)
	}

	got, ok, err := store.CachedAnalysis(sqldb, "pred-1")
	if err != nil || !ok {
		t.Fatalf("read cached analysis: ok=%v err=%v", ok, err)
	}
	if got.FertilityStatus != "MODERATE" || len(got.NearbyAgrovets) != 1 {
		t.Fatalf("unexpected cached analysis: %+v", got)
	}

	all, err := store.CachedAnalyses(sqldb, 10)
	if err != nil {
		t.Fatalf("list cached analyses: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 cached analysis, got %d", len(all))
	}

	if err := store.DeleteCachedAnalysis(sqldb, "pred-1"); err != nil {
		t.Fatalf("delete cached analysis: %v", err)
	}
	if _, ok, _ := store.CachedAnalysis(sqldb, "pred-1"); ok {
		t.Fatalf("expected cached analysis gone after delete")
	}
}

func TestCacheAnalysisWithoutIDIsNoop(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	if err := store.CacheAnalysis(sqldb, model.AnalysisResult{FertilityStatus: "HEALTHY"}); err != nil {
		t.Fatalf("cache without id: %v", err)
	}
	all, err := store.CachedAnalyses(sqldb, 10)
	if err != nil {
		t.Fatalf("list cached analyses: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected nothing cached without a prediction id")
	}
}

func TestOnboardingFlag(t *testing.T) {
	t.Parallel()
	sqldb := newTestDB(t)
	defer sqldb.Close()

	seen, err := store.OnboardingSeen(sqldb)
	if err != nil {
		t.Fatalf("read onboarding flag: %v", err)
	}
	if seen {
		t.Fatalf("expected onboarding unseen initially")
	}
	if err := store.SetOnboardingSeen(sqldb); err != nil {
		t.Fatalf("set onboarding flag: %v", err)
	}
	seen, err = store.OnboardingSeen(sqldb)
	if err != nil || !seen {
		t.Fatalf("expected onboarding seen, got seen=%v err=%v", seen, err)
	}
}
