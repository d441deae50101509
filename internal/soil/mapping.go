package soil

import "github.com/oscar066/kiduka-cli/internal/model"

// Wire shapes match the backend schema exactly. The backend renames fields
// between the prediction response (soil_fertility_status) and the history
// rows (fertility_prediction); one mapping function per endpoint keeps that
// drift out of the internal model.

type predictRequest struct {
	SimplifiedTexture string  `json:"simplified_texture"`
	PH                float64 `json:"ph"`
	N                 float64 `json:"n"`
	P                 float64 `json:"p"`
	K                 float64 `json:"k"`
	O                 float64 `json:"o"`
	Ca                float64 `json:"ca"`
	Mg                float64 `json:"mg"`
	Cu                float64 `json:"cu"`
	Fe                float64 `json:"fe"`
	Zn                float64 `json:"zn"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
}

type agrovetInfo struct {
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Products   []string  `json:"products"`
	Prices     []float64 `json:"prices"`
	DistanceKm float64   `json:"distance_km"`
	Address    string    `json:"address,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	Rating     float64   `json:"rating,omitempty"`
}

type structuredResponse struct {
	Explanation struct {
		Summary             string `json:"summary"`
		FertilityAnalysis   string `json:"fertility_analysis"`
		NutrientAnalysis    string `json:"nutrient_analysis"`
		PHAnalysis          string `json:"ph_analysis"`
		SoilTextureAnalysis string `json:"soil_texture_analysis"`
		OverallAssessment   string `json:"overall_assessment"`
	} `json:"explanation"`
	Recommendations []struct {
		Category  string `json:"category"`
		Priority  string `json:"priority"`
		Action    string `json:"action"`
		Reasoning string `json:"reasoning"`
		Timeframe string `json:"timeframe"`
	} `json:"recommendations"`
	FertilizerJustification string `json:"fertilizer_justification"`
	ConfidenceAssessment    string `json:"confidence_assessment"`
	LongTermStrategy        string `json:"long_term_strategy"`
}

type predictResponse struct {
	SoilFertilityStatus      string              `json:"soil_fertility_status"`
	SoilFertilityConfidence  float64             `json:"soil_fertility_confidence"`
	FertilizerRecommendation string              `json:"fertilizer_recommendation"`
	FertilizerConfidence     float64             `json:"fertilizer_confidence"`
	NearestAgrovets          []agrovetInfo       `json:"nearest_agrovets"`
	StructuredResponse       *structuredResponse `json:"structured_response"`
	PredictionID             string              `json:"prediction_id"`
	Timestamp                string              `json:"timestamp"`
}

type historyItem struct {
	ID                       string              `json:"id"`
	FertilityPrediction      string              `json:"fertility_prediction"`
	FertilityConfidence      float64             `json:"fertility_confidence"`
	FertilizerRecommendation string              `json:"fertilizer_recommendation"`
	FertilizerConfidence     float64             `json:"fertilizer_confidence"`
	StructuredResponse       *structuredResponse `json:"structured_response"`
	Agrovets                 []agrovetInfo       `json:"agrovets"`
	CreatedAt                string              `json:"created_at"`
}

type historyResponse struct {
	Predictions []historyItem `json:"predictions"`
	Total       int           `json:"total"`
	Page        int           `json:"page"`
	Size        int           `json:"size"`
	Pages       int           `json:"pages"`
}

func mapSampleToRequest(s model.SoilSample) predictRequest {
	return predictRequest{
		SimplifiedTexture: s.Texture,
		PH:                s.PH,
		N:                 s.Nitrogen,
		P:                 s.Phosphorus,
		K:                 s.Potassium,
		O:                 s.OrganicMatter,
		Ca:                s.Calcium,
		Mg:                s.Magnesium,
		Cu:                s.Copper,
		Fe:                s.Iron,
		Zn:                s.Zinc,
		Latitude:          s.Latitude,
		Longitude:         s.Longitude,
	}
}

func mapAgrovets(in []agrovetInfo) []model.Agrovet {
	out := make([]model.Agrovet, 0, len(in))
	for _, a := range in {
		products := a.Products
		if products == nil {
			products = []string{}
		}
		prices := a.Prices
		if prices == nil {
			prices = []float64{}
		}
		out = append(out, model.Agrovet{
			Name:       a.Name,
			Latitude:   a.Latitude,
			Longitude:  a.Longitude,
			Products:   products,
			Prices:     prices,
			DistanceKm: a.DistanceKm,
			Address:    a.Address,
			Phone:      a.Phone,
			Email:      a.Email,
			Rating:     a.Rating,
		})
	}
	return out
}

func mapAdvice(in *structuredResponse) *model.StructuredAdvice {
	if in == nil {
		return nil
	}
	advice := &model.StructuredAdvice{
		Explanation: model.Explanation{
			Summary:             in.Explanation.Summary,
			FertilityAnalysis:   in.Explanation.FertilityAnalysis,
			NutrientAnalysis:    in.Explanation.NutrientAnalysis,
			PHAnalysis:          in.Explanation.PHAnalysis,
			SoilTextureAnalysis: in.Explanation.SoilTextureAnalysis,
			OverallAssessment:   in.Explanation.OverallAssessment,
		},
		FertilizerJustification: in.FertilizerJustification,
		ConfidenceAssessment:    in.ConfidenceAssessment,
		LongTermStrategy:        in.LongTermStrategy,
	}
	for _, r := range in.Recommendations {
		advice.Recommendations = append(advice.Recommendations, model.Recommendation{
			Category:  r.Category,
			Priority:  r.Priority,
			Action:    r.Action,
			Reasoning: r.Reasoning,
			Timeframe: r.Timeframe,
		})
	}
	return advice
}

func mapPredictResponse(in predictResponse) model.AnalysisResult {
	return model.AnalysisResult{
		FertilityStatus:          in.SoilFertilityStatus,
		FertilityConfidence:      in.SoilFertilityConfidence,
		FertilizerRecommendation: in.FertilizerRecommendation,
		FertilizerConfidence:     in.FertilizerConfidence,
		NearbyAgrovets:           mapAgrovets(in.NearestAgrovets),
		Advice:                   mapAdvice(in.StructuredResponse),
		PredictionID:             in.PredictionID,
		Timestamp:                in.Timestamp,
	}
}

func mapHistoryItem(in historyItem) model.AnalysisResult {
	status := in.FertilityPrediction
	if status == "" {
		status = "Unknown"
	}
	recommendation := in.FertilizerRecommendation
	if recommendation == "" {
		recommendation = "No recommendation"
	}
	return model.AnalysisResult{
		FertilityStatus:          status,
		FertilityConfidence:      in.FertilityConfidence,
		FertilizerRecommendation: recommendation,
		FertilizerConfidence:     in.FertilizerConfidence,
		NearbyAgrovets:           mapAgrovets(in.Agrovets),
		Advice:                   mapAdvice(in.StructuredResponse),
		PredictionID:             in.ID,
		Timestamp:                in.CreatedAt,
	}
}
