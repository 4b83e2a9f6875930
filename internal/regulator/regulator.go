// Package regulator wraps a single motor in an independent velocity
// regulation loop. The loop runs as its own task at a fixed period and is the
// only writer to the motor while active; direct velocity commands to a
// regulated motor are undefined by convention.
package regulator

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/deekb/VRC-Template/internal/hal"
)

const (
	DefaultKp     = 0.4
	DefaultKd     = 0.05
	DefaultPeriod = 10 * time.Millisecond
)

// Gains configures the regulation loop. Kp scales the velocity error, Kd
// scales the error derivative, Period is the loop tick.
type Gains struct {
	Kp     float64
	Kd     float64
	Period time.Duration
}

func DefaultGains() Gains {
	return Gains{
		Kp:     DefaultKp,
		Kd:     DefaultKd,
		Period: DefaultPeriod,
	}
}

// Regulator owns the control-loop state for one motor. It is a pass-through
// wrapper: Spin, Stop, Velocity and SetStopping forward to the underlying
// motor unmodified. SetVelocity only retargets the loop and has no effect on
// the motor until Start is running.
type Regulator struct {
	mu    sync.Mutex
	motor hal.Motor
	gains Gains

	target     float64
	measured   float64
	err        float64
	prevErr    float64
	derivative float64
	output     float64
	seeded     bool
	running    bool
}

// Attach binds a regulator to a motor. The loop does not start until Start is
// called.
func Attach(motor hal.Motor, gains Gains) *Regulator {
	if gains.Period <= 0 {
		gains.Period = DefaultPeriod
	}
	return &Regulator{
		motor: motor,
		gains: gains,
	}
}

// Start runs the regulation loop until ctx is cancelled. The motor is stopped
// before Start returns.
func (r *Regulator) Start(ctx context.Context) error {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
		err := r.motor.Stop()
		if err != nil {
			log.Printf("regulator: failed stopping motor: %s\n", err.Error())
		}
	}()

	ticker := time.NewTicker(r.gains.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := r.Tick()
			if err != nil {
				return err
			}
		}
	}
}

// Tick runs one regulation step: read the measured velocity, recompute
// error, derivative and output, and write the corrected command back to the
// motor. Regulation acts on magnitudes; the sign of the target is re-applied
// to the command, so a reversed target drives the motor in reverse. Exposed
// so tests can step the loop without real time.
func (r *Regulator) Tick() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sign := math.Copysign(1, r.target)
	r.measured = math.Abs(r.motor.Velocity(hal.Percent))
	r.err = math.Abs(r.target) - r.measured
	if !r.seeded {
		// First tick after attach: no history yet, so no derivative kick.
		// Retargets keep the history, so the derivative term sees target
		// changes the same way the error sees them.
		r.prevErr = r.err
		r.seeded = true
	}
	r.derivative = (r.err - r.prevErr) / r.gains.Period.Seconds()
	r.output = r.gains.Kp*r.err + r.gains.Kd*r.derivative
	r.prevErr = r.err

	return r.motor.SetVelocity((r.measured+r.output)*sign, hal.Percent)
}

// SetVelocity retargets the regulation loop. The sign of value selects the
// drive direction and rides through to the motor command.
func (r *Regulator) SetVelocity(value float64, unit hal.VelocityUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = value
	return nil
}

// Error reports the most recent velocity error.
func (r *Regulator) Error() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Output reports the most recent loop output.
func (r *Regulator) Output() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output
}

// Running reports whether the loop is active.
func (r *Regulator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Regulator) Spin(direction hal.SpinDirection) error {
	return r.motor.Spin(direction)
}

func (r *Regulator) Stop() error {
	return r.motor.Stop()
}

func (r *Regulator) Velocity(unit hal.VelocityUnit) float64 {
	return r.motor.Velocity(unit)
}

func (r *Regulator) Position(unit hal.RotationUnit) float64 {
	return r.motor.Position(unit)
}

func (r *Regulator) SetStopping(mode hal.StopMode) error {
	return r.motor.SetStopping(mode)
}
