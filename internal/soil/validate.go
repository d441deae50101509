package soil

import (
	"fmt"
	"strings"

	"github.com/oscar066/kiduka-cli/internal/model"
)

// Textures the backend model was trained on.
var Textures = []string{
	"Sandy",
	"Loamy",
	"Clay",
	"Silt",
	"Sandy Loam",
	"Clay Loam",
	"Silty Clay",
	"Sandy Clay",
}

type bound struct {
	name string
	min  float64
	max  float64
	unit string
}

// Validate applies the same range checks the mobile form screens enforced.
// Failures are per-field messages and never reach the network; the backend
// still re-validates.
func Validate(s model.SoilSample) []string {
	var errs []string

	if strings.TrimSpace(s.Texture) == "" {
		errs = append(errs, "soil texture is required")
	} else if !validTexture(s.Texture) {
		errs = append(errs, fmt.Sprintf("unknown soil texture %q (expected one of: %s)", s.Texture, strings.Join(Textures, ", ")))
	}

	checks := []struct {
		value float64
		bound bound
	}{
		{s.PH, bound{"ph", 0, 14, ""}},
		{s.Nitrogen, bound{"nitrogen", 0, 1000, " mg/kg"}},
		{s.Phosphorus, bound{"phosphorus", 0, 500, " mg/kg"}},
		{s.Potassium, bound{"potassium", 0, 2000, " mg/kg"}},
		{s.OrganicMatter, bound{"organic matter", 0, 100, "%"}},
		{s.Calcium, bound{"calcium", 0, 10000, " mg/kg"}},
		{s.Magnesium, bound{"magnesium", 0, 1000, " mg/kg"}},
		{s.Copper, bound{"copper", 0, 50, " mg/kg"}},
		{s.Iron, bound{"iron", 0, 500, " mg/kg"}},
		{s.Zinc, bound{"zinc", 0, 100, " mg/kg"}},
		{s.Latitude, bound{"latitude", -90, 90, ""}},
		{s.Longitude, bound{"longitude", -180, 180, ""}},
	}
	for _, c := range checks {
		if c.value < c.bound.min || c.value > c.bound.max {
			errs = append(errs, fmt.Sprintf("%s must be between %g and %g%s", c.bound.name, c.bound.min, c.bound.max, c.bound.unit))
		}
	}
	return errs
}

func validTexture(texture string) bool {
	for _, t := range Textures {
		if strings.EqualFold(t, strings.TrimSpace(texture)) {
			return true
		}
	}
	return false
}
