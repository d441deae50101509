package soil

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/oscar066/kiduka-cli/internal/api"
	"github.com/oscar066/kiduka-cli/internal/model"
	"github.com/oscar066/kiduka-cli/internal/store"
)

// ValidationError carries the per-field messages of a sample that was
// rejected before any request went out.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid soil sample: " + strings.Join(e.Fields, "; ")
}

type Service struct {
	DB     *sql.DB
	Client *api.Client
	Logger zerolog.Logger
	// AnalyzeTimeout overrides the default prediction deadline when set.
	AnalyzeTimeout time.Duration
}

// Analyze submits a sample for prediction. The prediction endpoint runs a
// model server-side, so it gets a longer deadline than ordinary requests.
func (s *Service) Analyze(ctx context.Context, sample model.SoilSample) (model.AnalysisResult, error) {
	if fields := Validate(sample); len(fields) > 0 {
		return model.AnalysisResult{}, &ValidationError{Fields: fields}
	}

	timeout := s.AnalyzeTimeout
	if timeout <= 0 {
		timeout = api.AnalyzeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp predictResponse
	if err := s.Client.Post(ctx, "/predict", mapSampleToRequest(sample), &resp, true); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("analyze soil: %w", err)
	}

	result := mapPredictResponse(resp)
	if err := store.CacheAnalysis(s.DB, result); err != nil {
		s.Logger.Warn().Err(err).Msg("failed to cache analysis result")
	}
	return result, nil
}

// AnalyzeDraft submits the stored draft. The draft slot is cleared only
// after the submission succeeds; a rejected or failed submission keeps it.
func (s *Service) AnalyzeDraft(ctx context.Context) (model.AnalysisResult, error) {
	draft, ok, err := store.Draft(s.DB)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	if !ok {
		return model.AnalysisResult{}, fmt.Errorf("no saved draft")
	}
	if !draft.Complete() {
		return model.AnalysisResult{}, fmt.Errorf("draft is incomplete; fill every field before submitting")
	}

	result, err := s.Analyze(ctx, draft.Sample())
	if err != nil {
		return model.AnalysisResult{}, err
	}
	if err := store.ClearDraft(s.DB); err != nil {
		s.Logger.Warn().Err(err).Msg("failed to clear draft after successful submission")
	}
	return result, nil
}

func (s *Service) History(ctx context.Context, page, size int, sortBy, sortOrder string) (model.HistoryPage, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder = strings.ToLower(strings.TrimSpace(sortOrder))
	switch sortOrder {
	case "":
		sortOrder = "desc"
	case "asc", "desc":
	default:
		return model.HistoryPage{}, fmt.Errorf("invalid sort order %q (expected asc or desc)", sortOrder)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	query.Set("sort_by", sortBy)
	query.Set("sort_order", sortOrder)

	var resp historyResponse
	if err := s.Client.Get(ctx, "/predictions?"+query.Encode(), &resp, true); err != nil {
		return model.HistoryPage{}, fmt.Errorf("fetch analysis history: %w", err)
	}

	items := make([]model.AnalysisResult, 0, len(resp.Predictions))
	for _, item := range resp.Predictions {
		items = append(items, mapHistoryItem(item))
	}
	return model.HistoryPage{
		Items:      items,
		Total:      resp.Total,
		Page:       resp.Page,
		Size:       resp.Size,
		TotalPages: resp.Pages,
	}, nil
}

func (s *Service) ByID(ctx context.Context, id string) (model.AnalysisResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.AnalysisResult{}, fmt.Errorf("prediction id is required")
	}
	var resp historyItem
	if err := s.Client.Get(ctx, "/predictions/"+url.PathEscape(id), &resp, true); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("fetch analysis %s: %w", id, err)
	}
	result := mapHistoryItem(resp)
	if err := store.CacheAnalysis(s.DB, result); err != nil {
		s.Logger.Warn().Err(err).Msg("failed to cache fetched analysis")
	}
	return result, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("prediction id is required")
	}
	if err := s.Client.Delete(ctx, "/predictions/"+url.PathEscape(id), nil, true); err != nil {
		return fmt.Errorf("delete analysis %s: %w", id, err)
	}
	if err := store.DeleteCachedAnalysis(s.DB, id); err != nil {
		s.Logger.Warn().Err(err).Msg("failed to drop cached copy of deleted analysis")
	}
	return nil
}

// SaveDraft overlays the given fields onto the stored draft and writes the
// whole slot back. Single slot, last writer wins.
func (s *Service) SaveDraft(overlay model.SoilDraft) (model.SoilDraft, error) {
	current, _, err := store.Draft(s.DB)
	if err != nil {
		return model.SoilDraft{}, err
	}
	merged := mergeDraft(current, overlay)
	if err := store.SaveDraft(s.DB, merged); err != nil {
		return model.SoilDraft{}, err
	}
	return merged, nil
}

func (s *Service) Draft() (model.SoilDraft, bool, error) {
	return store.Draft(s.DB)
}

func (s *Service) ClearDraft() error {
	return store.ClearDraft(s.DB)
}

func mergeDraft(base, overlay model.SoilDraft) model.SoilDraft {
	if overlay.Texture != nil {
		base.Texture = overlay.Texture
	}
	if overlay.PH != nil {
		base.PH = overlay.PH
	}
	if overlay.Nitrogen != nil {
		base.Nitrogen = overlay.Nitrogen
	}
	if overlay.Phosphorus != nil {
		base.Phosphorus = overlay.Phosphorus
	}
	if overlay.Potassium != nil {
		base.Potassium = overlay.Potassium
	}
	if overlay.OrganicMatter != nil {
		base.OrganicMatter = overlay.OrganicMatter
	}
	if overlay.Calcium != nil {
		base.Calcium = overlay.Calcium
	}
	if overlay.Magnesium != nil {
		base.Magnesium = overlay.Magnesium
	}
	if overlay.Copper != nil {
		base.Copper = overlay.Copper
	}
	if overlay.Iron != nil {
		base.Iron = overlay.Iron
	}
	if overlay.Zinc != nil {
		base.Zinc = overlay.Zinc
	}
	if overlay.Latitude != nil {
		base.Latitude = overlay.Latitude
	}
	if overlay.Longitude != nil {
		base.Longitude = overlay.Longitude
	}
	return base
}
