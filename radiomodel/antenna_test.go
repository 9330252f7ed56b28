package radiomodel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/cellsim/cellsim/types"
)

func newTestAntenna(t *testing.T, orientation float64) *Antenna {
	a, err := NewAntenna(AntennaConfig{
		OrientationDeg:         orientation,
		HorizontalBeamwidthDeg: 60,
		VerticalBeamwidthDeg:   60,
		MaxGainDb:              0,
		FloorDb:                -30,
	})
	require.NoError(t, err)
	return a
}

func TestAntennaBoresightAndHalfPower(t *testing.T) {
	for _, orientation := range []float64{0, 120, 240} {
		a := newTestAntenna(t, orientation)
		assert.InDelta(t, 0.0, a.HorizontalGain(orientation), 1e-9)
		assert.InDelta(t, -3.0, a.HorizontalGain(orientation+30), 1e-9)
		assert.InDelta(t, -3.0, a.HorizontalGain(orientation-30), 1e-9)
	}
}

func TestAntennaSymmetricMonotonicBounded(t *testing.T) {
	a := newTestAntenna(t, 0)
	prev := a.HorizontalGain(0)
	for deg := 1.0; deg <= 180.0; deg += 1.0 {
		g := a.HorizontalGain(deg)
		assert.Equal(t, g, a.HorizontalGain(-deg), "symmetry at %v", deg)
		assert.LessOrEqual(t, g, prev, "monotonic at %v", deg)
		assert.GreaterOrEqual(t, g, -30.0)
		assert.False(t, math.IsInf(g, 0))
		prev = g
	}
	assert.Equal(t, -30.0, a.HorizontalGain(180))
}

func TestAntennaVerticalPattern(t *testing.T) {
	a := newTestAntenna(t, 0)
	assert.InDelta(t, -3.0, a.Gain(0, 30), 1e-9)
	assert.Less(t, a.Gain(0, 45), a.Gain(0, 10))
}

func TestAntennaOmni(t *testing.T) {
	a, err := NewAntenna(AntennaConfig{HorizontalBeamwidthDeg: 360, VerticalBeamwidthDeg: 360, MaxGainDb: 5, FloorDb: -20})
	require.NoError(t, err)
	assert.Equal(t, 5.0, a.HorizontalGain(179))
}

func TestAntennaConfigErrors(t *testing.T) {
	_, err := NewAntenna(AntennaConfig{HorizontalBeamwidthDeg: 0, VerticalBeamwidthDeg: 60, FloorDb: -30})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "horizontal_beamwidth")

	_, err = NewAntenna(AntennaConfig{HorizontalBeamwidthDeg: 60, VerticalBeamwidthDeg: 60, MaxGainDb: 0, FloorDb: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floor")
}

func TestNormalizeAngle(t *testing.T) {
	assert.Equal(t, 180.0, NormalizeAngle(-180))
	assert.Equal(t, -120.0, NormalizeAngle(240))
	assert.Equal(t, 0.0, NormalizeAngle(720))
	assert.Equal(t, 90.0, NormalizeAngle(-270))
}
