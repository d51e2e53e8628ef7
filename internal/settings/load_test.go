package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emclab/station-booking/internal/model"
)

var thresholds = model.LoadSetting{LowLoad: 3, MediumLoad: 6, HighLoad: 10}

func TestClassify(t *testing.T) {
	cases := []struct {
		count int
		want  Band
	}{
		{0, BandNone},
		{1, BandLow},
		{3, BandLow},
		{4, BandMedium},
		{7, BandMedium},
		{9, BandMedium},
		{10, BandHigh},
		{11, BandOverflow},
		{25, BandOverflow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.count, thresholds), "count=%d", tc.count)
	}
}

func TestIntensity(t *testing.T) {
	assert.Zero(t, Intensity(0, thresholds))
	assert.InDelta(t, 0.2, Intensity(1, thresholds), 1e-9)
	assert.InDelta(t, 0.4, Intensity(2, thresholds), 1e-9)
	assert.InDelta(t, 0.8, Intensity(4, thresholds), 1e-9)
	// From four reservations on the ramp is pinned at the cap.
	assert.InDelta(t, 0.8, Intensity(7, thresholds), 1e-9)
	assert.InDelta(t, 0.8, Intensity(100, thresholds), 1e-9)
}
