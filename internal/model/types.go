package model

import "time"

type User struct {
	ID         string
	Username   string
	Email      string
	FullName   string
	IsActive   bool
	IsVerified bool
	CreatedAt  string
}

type Session struct {
	Token string
	User  *User
}

func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// SoilSample is a fully populated measurement ready for submission.
type SoilSample struct {
	Texture       string
	PH            float64
	Nitrogen      float64
	Phosphorus    float64
	Potassium     float64
	OrganicMatter float64
	Calcium       float64
	Magnesium     float64
	Copper        float64
	Iron          float64
	Zinc          float64
	Latitude      float64
	Longitude     float64
}

// SoilDraft is the single locally persisted draft. Every field is optional
// so partially filled forms survive restarts.
type SoilDraft struct {
	Texture       *string
	PH            *float64
	Nitrogen      *float64
	Phosphorus    *float64
	Potassium     *float64
	OrganicMatter *float64
	Calcium       *float64
	Magnesium     *float64
	Copper        *float64
	Iron          *float64
	Zinc          *float64
	Latitude      *float64
	Longitude     *float64
	UpdatedAt     time.Time
}

// Complete reports whether every field required by the backend is present.
func (d SoilDraft) Complete() bool {
	return d.Texture != nil && d.PH != nil && d.Nitrogen != nil && d.Phosphorus != nil &&
		d.Potassium != nil && d.OrganicMatter != nil && d.Calcium != nil && d.Magnesium != nil &&
		d.Copper != nil && d.Iron != nil && d.Zinc != nil && d.Latitude != nil && d.Longitude != nil
}

// Sample converts a complete draft into a submittable sample. Callers must
// check Complete first; missing fields come through as zero values.
func (d SoilDraft) Sample() SoilSample {
	s := SoilSample{}
	if d.Texture != nil {
		s.Texture = *d.Texture
	}
	if d.PH != nil {
		s.PH = *d.PH
	}
	if d.Nitrogen != nil {
		s.Nitrogen = *d.Nitrogen
	}
	if d.Phosphorus != nil {
		s.Phosphorus = *d.Phosphorus
	}
	if d.Potassium != nil {
		s.Potassium = *d.Potassium
	}
	if d.OrganicMatter != nil {
		s.OrganicMatter = *d.OrganicMatter
	}
	if d.Calcium != nil {
		s.Calcium = *d.Calcium
	}
	if d.Magnesium != nil {
		s.Magnesium = *d.Magnesium
	}
	if d.Copper != nil {
		s.Copper = *d.Copper
	}
	if d.Iron != nil {
		s.Iron = *d.Iron
	}
	if d.Zinc != nil {
		s.Zinc = *d.Zinc
	}
	if d.Latitude != nil {
		s.Latitude = *d.Latitude
	}
	if d.Longitude != nil {
		s.Longitude = *d.Longitude
	}
	return s
}

type Agrovet struct {
	Name       string
	Latitude   float64
	Longitude  float64
	Products   []string
	Prices     []float64
	DistanceKm float64
	Address    string
	Phone      string
	Email      string
	Rating     float64
}

type Recommendation struct {
	Category  string
	Priority  string
	Action    string
	Reasoning string
	Timeframe string
}

type Explanation struct {
	Summary             string
	FertilityAnalysis   string
	NutrientAnalysis    string
	PHAnalysis          string
	SoilTextureAnalysis string
	OverallAssessment   string
}

// StructuredAdvice is the optional long-form explanation the backend
// attaches to a prediction.
type StructuredAdvice struct {
	Explanation             Explanation
	Recommendations         []Recommendation
	FertilizerJustification string
	ConfidenceAssessment    string
	LongTermStrategy        string
}

// AnalysisResult is produced entirely by the backend and treated as
// read-only on this side.
type AnalysisResult struct {
	FertilityStatus          string
	FertilityConfidence      float64
	FertilizerRecommendation string
	FertilizerConfidence     float64
	NearbyAgrovets           []Agrovet
	Advice                   *StructuredAdvice
	PredictionID             string
	Timestamp                string
}

type HistoryPage struct {
	Items      []AnalysisResult
	Total      int
	Page       int
	Size       int
	TotalPages int
}
