// Package shaper holds the input shaping primitives applied between raw
// command sources (joysticks, planners) and velocity commands.
package shaper

import (
	"math"
	"time"
)

// ApplyDeadzone zeroes inputs below the deadzone and rescales the surviving
// range back onto [0, 1], preserving sign, so there is no step at the
// deadzone edge. Value and deadzone are fractions of full scale.
func ApplyDeadzone(value, deadzone float64) float64 {
	if deadzone <= 0 {
		return value
	}
	if math.Abs(value) < deadzone {
		return 0
	}
	return (value - math.Copysign(deadzone, value)) / (1 - deadzone)
}

// CubicResponse maps a normalized input in [-1, 1] across a cubic curve so
// small deflections produce proportionally smaller output than a linear map.
// Linearity in [0, 3] controls how close to linear the curve sits; the output
// is normalized so an input of 1 always maps to 1.
func CubicResponse(value, linearity float64) float64 {
	return (value*value*value + linearity*value) / (1 + linearity)
}

// SlewLimiter bounds the rate of change of a commanded value, protecting the
// drivetrain from instantaneous velocity jumps.
type SlewLimiter struct {
	maxRatePerSec float64
	previous      float64
	lastUpdate    time.Time
}

func NewSlewLimiter(maxRatePerSec float64) *SlewLimiter {
	return &SlewLimiter{
		maxRatePerSec: maxRatePerSec,
		lastUpdate:    time.Now(),
	}
}

// Update limits value against wall-clock time since the previous update.
func (s *SlewLimiter) Update(value float64) float64 {
	now := time.Now()
	dt := now.Sub(s.lastUpdate).Seconds()
	s.lastUpdate = now
	return s.Step(value, dt)
}

// Step limits value against an explicit time delta in seconds.
func (s *SlewLimiter) Step(value float64, dt float64) float64 {
	maxDelta := s.maxRatePerSec * dt
	delta := value - s.previous
	if delta > maxDelta {
		delta = maxDelta
	} else if delta < -maxDelta {
		delta = -maxDelta
	}
	s.previous += delta
	return s.previous
}

// Reset snaps the limiter to a value without rate limiting.
func (s *SlewLimiter) Reset(value float64) {
	s.previous = value
	s.lastUpdate = time.Now()
}
