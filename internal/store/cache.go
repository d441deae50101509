package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oscar066/kiduka-cli/internal/model"
)

// Fetched analyses are cached locally so past results stay readable
// offline. The backend remains the owner of record; this is display cache
// only and a cached row is superseded wholesale on re-fetch.

func CacheAnalysis(db *sql.DB, result model.AnalysisResult) error {
	if result.PredictionID == "" {
		// Results without an id (backend omitted prediction_id) cannot be
		// re-fetched, so there is nothing meaningful to key the cache on.
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal analysis %s: %w", result.PredictionID, err)
	}
	_, err = db.Exec(`
INSERT INTO analysis_cache(prediction_id, payload_json, fetched_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(prediction_id) DO UPDATE SET payload_json=excluded.payload_json, fetched_at=excluded.fetched_at
`, result.PredictionID, string(payload))
	if err != nil {
		return fmt.Errorf("cache analysis %s: %w", result.PredictionID, err)
	}
	return nil
}

func CachedAnalysis(db *sql.DB, predictionID string) (*model.AnalysisResult, bool, error) {
	var payload string
	err := db.QueryRow(`SELECT payload_json FROM analysis_cache WHERE prediction_id = ?`, predictionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached analysis %s: %w", predictionID, err)
	}
	var result model.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, false, fmt.Errorf("decode cached analysis %s: %w", predictionID, err)
	}
	return &result, true, nil
}

func CachedAnalyses(db *sql.DB, limit int) ([]model.AnalysisResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`SELECT payload_json FROM analysis_cache ORDER BY fetched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list cached analyses: %w", err)
	}
	defer rows.Close()

	results := make([]model.AnalysisResult, 0)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan cached analysis: %w", err)
		}
		var result model.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("decode cached analysis: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached analyses: %w", err)
	}
	return results, nil
}

func DeleteCachedAnalysis(db *sql.DB, predictionID string) error {
	if _, err := db.Exec(`DELETE FROM analysis_cache WHERE prediction_id = ?`, predictionID); err != nil {
		return fmt.Errorf("delete cached analysis %s: %w", predictionID, err)
	}
	return nil
}
