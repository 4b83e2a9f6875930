// Package pwm adapts a command.DriverIFace backend into hal.Motor instances.
// PWM ESCs have no encoder, so position reads are an open-loop integration of
// the commanded velocity; dead reckoning on this backend is only as good as
// the velocity calibration.
package pwm

import (
	"sync"
	"time"

	"github.com/deekb/VRC-Template/internal/command"
	"github.com/deekb/VRC-Template/internal/hal"
)

const (
	MinOutput = -100.0
	MaxOutput = 100.0

	// DefaultDegPerSecAtFull is the assumed wheel rotation rate at a 100%
	// command, used for the open-loop position estimate. 200 rpm.
	DefaultDegPerSecAtFull = 1200.0
)

// Motor drives one named channel of a PWM backend.
type Motor struct {
	mu sync.Mutex

	driver  command.DriverIFace
	channel string

	degPerSecAtFull float64

	velocity    float64
	spinning    bool
	stopMode    hal.StopMode
	positionDeg float64
	lastChange  time.Time
}

func NewMotor(driver command.DriverIFace, channel string, degPerSecAtFull float64) *Motor {
	if degPerSecAtFull <= 0 {
		degPerSecAtFull = DefaultDegPerSecAtFull
	}
	return &Motor{
		driver:          driver,
		channel:         channel,
		degPerSecAtFull: degPerSecAtFull,
		lastChange:      time.Now(),
	}
}

func (m *Motor) SetVelocity(value float64, unit hal.VelocityUnit) error {
	m.mu.Lock()
	m.integrate(time.Now())
	m.velocity = value
	spinning := m.spinning
	m.mu.Unlock()

	if !spinning {
		return nil
	}
	return m.apply(value)
}

func (m *Motor) Velocity(unit hal.VelocityUnit) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.spinning {
		return 0
	}
	return m.velocity
}

func (m *Motor) Spin(direction hal.SpinDirection) error {
	m.mu.Lock()
	m.integrate(time.Now())
	m.spinning = true
	value := m.velocity
	if direction == hal.Reverse {
		value = -value
		m.velocity = value
	}
	m.mu.Unlock()
	return m.apply(value)
}

func (m *Motor) Stop() error {
	m.mu.Lock()
	m.integrate(time.Now())
	m.spinning = false
	m.velocity = 0
	m.mu.Unlock()
	return m.apply(0)
}

func (m *Motor) Position(unit hal.RotationUnit) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.integrate(time.Now())
	return m.positionDeg
}

// SetStopping is recorded but has no effect: a centered ESC always coasts.
func (m *Motor) SetStopping(mode hal.StopMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopMode = mode
	return nil
}

// integrate folds the time spent at the current velocity into the open-loop
// position estimate. Caller holds the lock.
func (m *Motor) integrate(now time.Time) {
	dt := now.Sub(m.lastChange).Seconds()
	m.lastChange = now
	if !m.spinning {
		return
	}
	m.positionDeg += m.velocity / 100 * m.degPerSecAtFull * dt
}

func (m *Motor) apply(value float64) error {
	return m.driver.Set(command.DriveCommand{
		Name:  m.channel,
		Value: value,
		Min:   MinOutput,
		Max:   MaxOutput,
	})
}
