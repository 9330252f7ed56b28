package prng

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorsAreReproducible(t *testing.T) {
	g1 := NewGenerators(42)
	g2 := NewGenerators(42)
	assert.Equal(t, g1.NewShadowFadingSeed(), g2.NewShadowFadingSeed())
	assert.Equal(t, g1.NewMeasurementPhase(time.Second), g2.NewMeasurementPhase(time.Second))
}

func TestMeasurementPhaseRange(t *testing.T) {
	g := NewGenerators(1)
	for i := 0; i < 100; i++ {
		p := g.NewMeasurementPhase(200 * time.Millisecond)
		assert.True(t, p >= 0 && p < 200*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), g.NewMeasurementPhase(0))
}
