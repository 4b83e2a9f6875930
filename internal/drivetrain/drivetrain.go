// Package drivetrain is the closed-loop motion core for a differential-drive
// chassis: in-place turns to an absolute heading, distance-bounded straight
// legs with live heading correction, and a dead-reckoned pose estimate.
package drivetrain

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/models"
	"github.com/deekb/VRC-Template/internal/shaper"
	"github.com/deekb/VRC-Template/internal/telemetry"
)

const (
	ControlStyleTank   = "tank"
	ControlStyleArcade = "arcade"
)

// Config fixes the drivetrain geometry, gains and loop bounds. It is
// immutable after construction.
type Config struct {
	// HeadingTolerance is the close-enough band for turns, degrees.
	HeadingTolerance float64
	// TurnAggression converts heading error to turn velocity, percent per
	// degree.
	TurnAggression float64
	// CorrectionAggression converts heading error to a steering differential
	// while moving, percent per degree.
	CorrectionAggression float64
	// WheelRadiusMM sizes the wheels; circumference is derived from it.
	WheelRadiusMM float64
	// StallSpeed is the minimum commandable magnitude that still overcomes
	// static friction, percent.
	StallSpeed float64
	// SlowdownSlope is the percent of speed shed per millimeter of remaining
	// distance as a leg approaches its target.
	SlowdownSlope float64
	// DriverLinearity shapes the cubic response curve for driver control,
	// 0.0 to 3.0.
	DriverLinearity float64
	// DriverDeadzone is the fraction of joystick range treated as zero,
	// 0.0 to 1.0.
	DriverDeadzone float64
	// DriverSlewRate bounds how fast driver commands may change, percent per
	// second. Zero disables slew limiting.
	DriverSlewRate float64
	// ControlStyle selects the driver input mapping. Only tank is
	// implemented.
	ControlStyle string
	// Kinematics selects the physical drivetrain variant.
	Kinematics string
	// PollInterval spaces control-loop iterations. Zero polls as fast as the
	// caller allows.
	PollInterval time.Duration
	// SettleTime is the pause after a maneuver before re-measuring for
	// diagnostics.
	SettleTime time.Duration
	// ManeuverTimeout bounds every control loop; exceeding it stops the
	// motors and reports ErrConvergenceTimeout.
	ManeuverTimeout time.Duration
}

// Drivetrain composes the heading and motion controllers over a pair of motor
// groups and an inertial sensor, and owns the chassis pose. Motor groups and
// the sensor are owned by the surrounding application.
type Drivetrain struct {
	cfg Config
	kin Kinematics

	left     *hal.MotorGroup
	right    *hal.MotorGroup
	inertial hal.Inertial
	logger   telemetry.Logger

	circumferenceMM float64

	leftSlew  *shaper.SlewLimiter
	rightSlew *shaper.SlewLimiter

	mu   sync.Mutex
	pose models.Pose
}

// New builds a drivetrain from a validated config. The kinematics variant and
// control style are checked here so a bad config fails before any motion is
// attempted.
func New(cfg Config, left, right *hal.MotorGroup, inertial hal.Inertial, logger telemetry.Logger) (*Drivetrain, error) {
	kin, err := NewKinematics(cfg.Kinematics)
	if err != nil {
		return nil, err
	}
	if cfg.ControlStyle != ControlStyleTank && cfg.ControlStyle != ControlStyleArcade {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedControlStyle, cfg.ControlStyle)
	}
	if logger == nil {
		logger = telemetry.Discard()
	}
	d := &Drivetrain{
		cfg:             cfg,
		kin:             kin,
		left:            left,
		right:           right,
		inertial:        inertial,
		logger:          logger,
		circumferenceMM: cfg.WheelRadiusMM * 2 * math.Pi,
	}
	if cfg.DriverSlewRate > 0 {
		d.leftSlew = shaper.NewSlewLimiter(cfg.DriverSlewRate)
		d.rightSlew = shaper.NewSlewLimiter(cfg.DriverSlewRate)
	}
	return d, nil
}

// CurrentPose returns a copy of the dead-reckoned pose.
func (d *Drivetrain) CurrentPose() models.Pose {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pose
}

// SetPosition overrides the pose coordinates without touching the heading,
// typically after lining the chassis up on a known field position.
func (d *Drivetrain) SetPosition(x, y float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pose.X = x
	d.pose.Y = y
}

// SetHeading overrides the pose heading.
func (d *Drivetrain) SetHeading(heading float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pose.Heading = models.NormalizeHeading(heading)
}

// Reset stops the drivetrain, re-zeroes the inertial sensor and clears the
// pose.
func (d *Drivetrain) Reset() error {
	err := d.stopAll()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	err = d.inertial.SetHeading(0, hal.Degrees)
	if err != nil {
		return fmt.Errorf("reset: re-zero inertial: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pose = models.Pose{}
	return nil
}

// SetStopping forwards a stop mode to every drive motor.
func (d *Drivetrain) SetStopping(mode hal.StopMode) error {
	err := d.left.SetStopping(mode)
	if err != nil {
		return err
	}
	return d.right.SetStopping(mode)
}

// MoveWithController applies one sample of driver input: deadzone, then the
// cubic response curve, then the per-side tank mapping. Arcade style is not
// implemented and reports an error before any motor command.
func (d *Drivetrain) MoveWithController(controller hal.Controller) error {
	switch d.cfg.ControlStyle {
	case ControlStyleTank:
	case ControlStyleArcade:
		return fmt.Errorf("%w: arcade", ErrUnsupportedControlStyle)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedControlStyle, d.cfg.ControlStyle)
	}

	leftInput := shaper.ApplyDeadzone(controller.Axis(3)/100, d.cfg.DriverDeadzone)
	rightInput := shaper.ApplyDeadzone(controller.Axis(2)/100, d.cfg.DriverDeadzone)
	leftSpeed := shaper.CubicResponse(leftInput, d.cfg.DriverLinearity) * 100
	rightSpeed := shaper.CubicResponse(rightInput, d.cfg.DriverLinearity) * 100
	if d.leftSlew != nil {
		leftSpeed = d.leftSlew.Update(leftSpeed)
		rightSpeed = d.rightSlew.Update(rightSpeed)
	}

	err := d.spinAll()
	if err != nil {
		return err
	}
	err = d.left.SetVelocity(leftSpeed, hal.Percent)
	if err != nil {
		return err
	}
	return d.right.SetVelocity(rightSpeed, hal.Percent)
}

// headingDiffs returns both candidate turn magnitudes in [0, 360): the
// rotation closing (current - desired) and the one closing
// (desired - current).
func headingDiffs(current, desired float64) (leftDiff, rightDiff float64) {
	leftDiff = current - desired
	rightDiff = desired - current
	if leftDiff < 0 {
		leftDiff += 360
	}
	if rightDiff < 0 {
		rightDiff += 360
	}
	return leftDiff, rightDiff
}

// shortestTurn picks the smaller candidate. On an exact tie it defaults to
// the left rotation.
func shortestTurn(current, desired float64) (delta float64, dir TurnDirection) {
	leftDiff, rightDiff := headingDiffs(current, desired)
	if leftDiff < rightDiff {
		return leftDiff, TurnLeft
	}
	if rightDiff < leftDiff {
		return rightDiff, TurnRight
	}
	return leftDiff, TurnLeft
}

func (d *Drivetrain) spinAll() error {
	err := d.left.Spin(hal.Forward)
	if err != nil {
		return err
	}
	return d.right.Spin(hal.Forward)
}

func (d *Drivetrain) stopAll() error {
	err := d.left.Stop()
	if err != nil {
		return err
	}
	return d.right.Stop()
}

func (d *Drivetrain) setVelocities(left, right float64) error {
	err := d.left.SetVelocity(left, hal.Percent)
	if err != nil {
		return err
	}
	return d.right.SetVelocity(right, hal.Percent)
}

// sleepTick spaces loop iterations while staying responsive to cancellation.
func (d *Drivetrain) sleepTick(ctx context.Context) error {
	if d.cfg.PollInterval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.cfg.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// settle pauses for mechanical settling after a maneuver.
func (d *Drivetrain) settle(ctx context.Context) {
	if d.cfg.SettleTime <= 0 {
		return
	}
	timer := time.NewTimer(d.cfg.SettleTime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (d *Drivetrain) deadline() time.Time {
	if d.cfg.ManeuverTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d.cfg.ManeuverTimeout)
}

func expired(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}
