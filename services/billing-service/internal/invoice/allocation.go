// Package invoice computes the derived parts of a drafted invoice: the
// solar/grid allocation summary, decimal line amounts and the compliance
// disclosure.
package invoice

import (
	"math"

	"github.com/nexzo/platform/gomicro/apperror"
)

// MaxKwh bounds a single usage reading
const MaxKwh = 1e12

// Usage is the metered energy for a billing period
type Usage struct {
	SolarKwh float64 `json:"solarKwh"`
	GridKwh  float64 `json:"gridKwh"`
}

// Allocation splits usage between solar and grid. When TotalKwh > 0 the
// percentages always sum to exactly 100.
type Allocation struct {
	TotalKwh     float64 `json:"totalKwh"`
	SolarKwh     float64 `json:"solarKwh"`
	GridKwh      float64 `json:"gridKwh"`
	SolarPercent float64 `json:"solarPercent"`
	GridPercent  float64 `json:"gridPercent"`
}

// Allocate builds the allocation summary. kWh values are rounded to 3
// decimals and percentages to 2; GridPercent is derived from SolarPercent.
// Readings must be finite and within [0, MaxKwh].
func Allocate(u Usage) (Allocation, error) {
	if !validReading(u.SolarKwh) || !validReading(u.GridKwh) {
		return Allocation{}, apperror.BadRequest("Invalid usage reading")
	}

	total := u.SolarKwh + u.GridKwh
	if total == 0 {
		return Allocation{}, nil
	}

	solarPercent := round(u.SolarKwh/total*100, 2)
	return Allocation{
		TotalKwh:     round(total, 3),
		SolarKwh:     round(u.SolarKwh, 3),
		GridKwh:      round(u.GridKwh, 3),
		SolarPercent: solarPercent,
		GridPercent:  round(100-solarPercent, 2),
	}, nil
}

func validReading(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= MaxKwh
}

func round(v float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Round(v*factor) / factor
}
