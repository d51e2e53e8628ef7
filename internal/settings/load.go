package settings

import "github.com/emclab/station-booking/internal/model"

// Band is a day's booking-load classification, used by the calendar UI to
// heat-map days.
type Band string

const (
	BandNone     Band = "none"
	BandLow      Band = "low"
	BandMedium   Band = "medium"
	BandHigh     Band = "high"
	BandOverflow Band = "overflow"
)

// Classify maps a day's reservation count onto a load band using the
// configured thresholds.  An empty day is none; counts up to the low
// threshold are low; the high threshold itself is the high band and
// anything above it overflows.  Everything in between is medium — the
// medium threshold does not bound the band, it steps the display intensity
// inside it (see Intensity).
func Classify(count int, ls model.LoadSetting) Band {
	switch {
	case count == 0:
		return BandNone
	case count <= ls.LowLoad:
		return BandLow
	case count < ls.HighLoad:
		return BandMedium
	case count == ls.HighLoad:
		return BandHigh
	default:
		return BandOverflow
	}
}

// Intensity maps a count to a display opacity in [0, 0.8], mirroring the
// calendar's colour ramp: two tenths per reservation through every band,
// capped at the overflow opacity.
func Intensity(count int, _ model.LoadSetting) float64 {
	if count == 0 {
		return 0
	}
	v := float64(count*2) / 10
	if v > 0.8 {
		v = 0.8
	}
	return v
}
