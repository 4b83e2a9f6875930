package drivetrain

import (
	"context"
	"fmt"
	"math"

	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/models"
)

// MoveTowardsHeading drives the chassis along desired for distanceMM,
// correcting heading drift every iteration, then stops and folds the leg into
// the pose. Speed is a signed percent; its sign selects forward or reverse.
// Distance is measured from the averaged wheel rotation of both sides, so the
// leg ends on encoder travel, not elapsed time.
func (d *Drivetrain) MoveTowardsHeading(ctx context.Context, desired, speed, distanceMM float64) error {
	if speed == 0 {
		return fmt.Errorf("move towards heading: %w", ErrZeroSpeed)
	}
	if distanceMM <= 0 {
		return fmt.Errorf("move towards heading: %w", ErrInvalidDistance)
	}

	desired = models.NormalizeHeading(desired)
	directionSign := math.Copysign(1, speed)
	maxSpeed := math.Abs(speed)
	initialRotation := d.averagedRotation()

	err := d.setVelocities(0, 0)
	if err != nil {
		return fmt.Errorf("move towards heading: %w", err)
	}
	err = d.spinAll()
	if err != nil {
		return fmt.Errorf("move towards heading: %w", err)
	}

	deadline := d.deadline()
	for {
		if ctx.Err() != nil {
			d.stopAll()
			return fmt.Errorf("move towards heading: %w", ctx.Err())
		}
		if expired(deadline) {
			d.stopAll()
			return fmt.Errorf("move towards heading %.1f: %w", desired, ErrConvergenceTimeout)
		}

		traveled := d.distanceTraveled(initialRotation)
		if traveled > distanceMM {
			break
		}

		commanded := d.profileSpeed(distanceMM-traveled, maxSpeed) * directionSign
		current := models.NormalizeHeading(d.inertial.Heading(hal.Degrees))
		delta, dir := shortestTurn(current, desired)
		left, right := d.kin.DriveCommand(commanded, delta*d.cfg.CorrectionAggression, dir)
		err = d.setVelocities(left, right)
		if err != nil {
			d.stopAll()
			return fmt.Errorf("move towards heading: %w", err)
		}

		err = d.sleepTick(ctx)
		if err != nil {
			d.stopAll()
			return fmt.Errorf("move towards heading: %w", err)
		}
	}

	err = d.stopAll()
	if err != nil {
		return fmt.Errorf("move towards heading: %w", err)
	}

	// Fold the leg into the pose as a straight line along the commanded
	// heading. The small curvature of the corrected path is ignored; this is
	// a first-order approximation carried over deliberately.
	rad := models.DegToRad(desired)
	d.mu.Lock()
	d.pose.Heading = desired
	d.pose.X += math.Sin(rad) * distanceMM * directionSign
	d.pose.Y += math.Cos(rad) * distanceMM * directionSign
	d.mu.Unlock()

	d.settle(ctx)
	achieved := models.NormalizeHeading(d.inertial.Heading(hal.Degrees))
	finalErr, _ := shortestTurn(achieved, desired)
	finalTraveled := d.distanceTraveled(initialRotation)
	d.logger.Log(fmt.Sprintf("moved towards %.1f with heading accuracy of %.2f degrees and distance accuracy of %.2f mm",
		desired, finalErr, distanceMM-finalTraveled), "move_towards_heading")
	return nil
}

// MoveToPosition turns toward an absolute field coordinate and drives the
// straight-line distance to it. Heading 0 points along +y, so the bearing is
// atan2 of the x offset over the y offset.
func (d *Drivetrain) MoveToPosition(ctx context.Context, x, y, speed float64) error {
	d.mu.Lock()
	dx := x - d.pose.X
	dy := y - d.pose.Y
	d.mu.Unlock()

	bearing := models.NormalizeHeading(models.RadToDeg(math.Atan2(dx, dy)))
	distance := math.Hypot(dx, dy)

	err := d.TurnToHeading(ctx, bearing)
	if err != nil {
		return fmt.Errorf("move to position: %w", err)
	}
	return d.MoveTowardsHeading(ctx, bearing, speed, distance)
}

// profileSpeed ramps the commanded magnitude down as the leg approaches its
// target: saturated at maxSpeed far out, decaying linearly toward the stall
// speed near the end, never below it while still moving.
func (d *Drivetrain) profileSpeed(remainingMM, maxSpeed float64) float64 {
	magnitude := d.cfg.StallSpeed + d.cfg.SlowdownSlope*remainingMM
	if magnitude > maxSpeed {
		magnitude = maxSpeed
	}
	if magnitude < 0 {
		magnitude = 0
	}
	return magnitude
}

// averagedRotation reads the mean accumulated rotation of both sides. The two
// reads are sequential, not atomic; the loop damping absorbs the skew.
func (d *Drivetrain) averagedRotation() float64 {
	return (d.left.Position(hal.Degrees) + d.right.Position(hal.Degrees)) / 2
}

func (d *Drivetrain) distanceTraveled(initialRotation float64) float64 {
	return math.Abs((d.averagedRotation() - initialRotation) / 360 * d.circumferenceMM)
}
