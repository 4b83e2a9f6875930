// Package hal defines the hardware capability contract the motion core is
// written against. Motors, inertial sensors and controllers are constructed
// and owned by the surrounding application; the core only holds references.
package hal

type VelocityUnit int

const (
	Percent VelocityUnit = iota
)

type RotationUnit int

const (
	Degrees RotationUnit = iota
)

type SpinDirection int

const (
	Forward SpinDirection = iota
	Reverse
)

type StopMode int

const (
	Coast StopMode = iota
	Brake
	Hold
)

func (m StopMode) String() string {
	switch m {
	case Coast:
		return "coast"
	case Brake:
		return "brake"
	case Hold:
		return "hold"
	default:
		return "unknown"
	}
}

// Motor is a single drive motor with a cumulative rotation readout.
type Motor interface {
	SetVelocity(value float64, unit VelocityUnit) error
	Velocity(unit VelocityUnit) float64
	Spin(direction SpinDirection) error
	Stop() error
	Position(unit RotationUnit) float64
	SetStopping(mode StopMode) error
}

// Inertial is a single-axis heading sensor. Heading is free-running degrees
// in [0, 360).
type Inertial interface {
	Heading(unit RotationUnit) float64
	SetHeading(value float64, unit RotationUnit) error
}

// Controller exposes joystick axes as percent values in roughly [-100, 100].
// Axis numbering follows the platform convention: 1 right-x, 2 right-y,
// 3 left-y, 4 left-x.
type Controller interface {
	Axis(n int) float64
}
