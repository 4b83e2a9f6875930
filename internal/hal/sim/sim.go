// Package sim provides simulated hardware backing the hal interfaces, used by
// package tests and for dry-running autonomous routines off the robot.
package sim

import (
	"sync"

	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/models"
)

const (
	DefaultStepSec             = 0.005
	DefaultMMPerSecPerPercent  = 10.0
	DefaultDegPerSecPerPercent = 3.0
	DefaultWheelCircumference  = 314.159265
)

// ChassisConfig sets the physical response of the simulated drivetrain.
type ChassisConfig struct {
	// StepSec is the virtual time advanced per heading read.
	StepSec float64
	// MMPerSecPerPercent converts a percent velocity command to ground speed.
	MMPerSecPerPercent float64
	// DegPerSecPerPercent converts a per-side velocity differential to a
	// rotation rate.
	DegPerSecPerPercent float64
	// DriftDegPerSec is a constant heading disturbance, for exercising the
	// in-motion correction.
	DriftDegPerSec float64
	// WheelCircumferenceMM converts ground travel back to encoder degrees.
	WheelCircumferenceMM float64
}

func DefaultChassisConfig() ChassisConfig {
	return ChassisConfig{
		StepSec:              DefaultStepSec,
		MMPerSecPerPercent:   DefaultMMPerSecPerPercent,
		DegPerSecPerPercent:  DefaultDegPerSecPerPercent,
		WheelCircumferenceMM: DefaultWheelCircumference,
	}
}

// Chassis simulates a tank drivetrain with one motor per side and an inertial
// sensor. Virtual time advances one fixed step every time the heading is
// read, which makes polling control loops deterministic: each loop iteration
// reads the heading exactly once.
type Chassis struct {
	mu  sync.Mutex
	cfg ChassisConfig

	left  *Motor
	right *Motor

	heading       float64
	totalRotation float64
	elapsedSec    float64
}

func NewChassis(cfg ChassisConfig) *Chassis {
	return &Chassis{
		cfg:   cfg,
		left:  NewMotor(),
		right: NewMotor(),
	}
}

func (c *Chassis) Left() hal.Motor  { return c.left }
func (c *Chassis) Right() hal.Motor { return c.right }

// Heading returns the simulated heading after advancing the world one step.
func (c *Chassis) Heading(unit hal.RotationUnit) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step()
	return c.heading
}

func (c *Chassis) SetHeading(value float64, unit hal.RotationUnit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heading = models.NormalizeHeading(value)
	return nil
}

// TotalRotation reports the accumulated magnitude of rotation in degrees,
// regardless of direction. A shortest-path turn from 10 to 350 accumulates
// about 20, the long way round about 340.
func (c *Chassis) TotalRotation() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalRotation
}

// ElapsedSec reports accumulated virtual time.
func (c *Chassis) ElapsedSec() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedSec
}

func (c *Chassis) step() {
	dt := c.cfg.StepSec
	lv := c.left.effectiveVelocity()
	rv := c.right.effectiveVelocity()

	lmm := lv * c.cfg.MMPerSecPerPercent * dt
	rmm := rv * c.cfg.MMPerSecPerPercent * dt
	c.left.advance(lmm / c.cfg.WheelCircumferenceMM * 360)
	c.right.advance(rmm / c.cfg.WheelCircumferenceMM * 360)

	rate := (rv-lv)/2*c.cfg.DegPerSecPerPercent + c.cfg.DriftDegPerSec
	c.heading = models.NormalizeHeading(c.heading + rate*dt)
	c.totalRotation += abs(rate * dt)
	c.elapsedSec += dt
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Motor is a simulated drive motor with an ideal velocity response and an
// integrating encoder.
type Motor struct {
	mu       sync.Mutex
	velocity float64
	position float64
	spinning bool
	stopMode hal.StopMode
}

func NewMotor() *Motor {
	return &Motor{}
}

func (m *Motor) SetVelocity(value float64, unit hal.VelocityUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.velocity = value
	return nil
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
	defer m.mu.Unlock()
	m.spinning = true
	return nil
}

func (m *Motor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spinning = false
	m.velocity = 0
	return nil
}

func (m *Motor) Position(unit hal.RotationUnit) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Motor) SetStopping(mode hal.StopMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopMode = mode
	return nil
}

func (m *Motor) effectiveVelocity() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.spinning {
		return 0
	}
	return m.velocity
}

func (m *Motor) advance(deg float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position += deg
}

// LagMotor is a simulated motor with a first-order velocity response, for
// exercising the velocity regulator. The measured velocity relaxes toward the
// last command by Alpha on every read, one read per regulator tick.
type LagMotor struct {
	mu       sync.Mutex
	Alpha    float64
	command  float64
	measured float64
	spinning bool
	stopMode hal.StopMode
}

func NewLagMotor(alpha float64) *LagMotor {
	return &LagMotor{Alpha: alpha}
}

func (m *LagMotor) SetVelocity(value float64, unit hal.VelocityUnit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.command = value
	return nil
}

func (m *LagMotor) Velocity(unit hal.VelocityUnit) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.measured += (m.command - m.measured) * m.Alpha
	return m.measured
}

func (m *LagMotor) Spin(direction hal.SpinDirection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spinning = true
	return nil
}

func (m *LagMotor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spinning = false
	m.command = 0
	return nil
}

func (m *LagMotor) Position(unit hal.RotationUnit) float64 {
	return 0
}

func (m *LagMotor) SetStopping(mode hal.StopMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopMode = mode
	return nil
}

// Controller is a simulated joystick whose axis values are set by tests.
type Controller struct {
	mu   sync.Mutex
	axes map[int]float64
}

func NewController() *Controller {
	return &Controller{axes: make(map[int]float64)}
}

func (c *Controller) SetAxis(n int, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.axes[n] = value
}

func (c *Controller) Axis(n int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.axes[n]
}
