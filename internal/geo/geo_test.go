package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	// Connaught Place to India Gate, Delhi: roughly 2.2 km.
	d := DistanceKm(28.6315, 77.2167, 28.6129, 77.2295)
	assert.InDelta(t, 2.4, d, 0.4)
}

func TestDistanceKm_SamePoint(t *testing.T) {
	assert.Zero(t, DistanceKm(12.9716, 77.5946, 12.9716, 77.5946))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(12.9716, 77.5946, 13.0827, 80.2707)
	b := DistanceKm(13.0827, 80.2707, 12.9716, 77.5946)
	assert.InDelta(t, a, b, 1e-9)
}

func TestWithinRadius(t *testing.T) {
	// Bengaluru to Chennai is ~290 km.
	assert.False(t, WithinRadius(12.9716, 77.5946, 13.0827, 80.2707, 100))
	assert.True(t, WithinRadius(12.9716, 77.5946, 13.0827, 80.2707, 400))
}

func TestEstimateDeliveryMinutes(t *testing.T) {
	assert.Equal(t, 15, EstimateDeliveryMinutes(0, 15))
	assert.Equal(t, 24, EstimateDeliveryMinutes(2.8, 15))
}

func TestRoundKm(t *testing.T) {
	assert.Equal(t, 2.35, RoundKm(2.3456))
	assert.Equal(t, 0.0, RoundKm(0.0))
}
