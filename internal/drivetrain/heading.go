package drivetrain

import (
	"context"
	"fmt"

	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/models"
)

// TurnToHeading rotates the chassis in place until the angular difference to
// desired is within the configured tolerance, then stops, records the target
// as the current heading and logs the achieved error. The shorter rotation is
// re-selected every iteration, so the controller reverses itself if it
// overshoots. The motors are stopped before any error is returned.
func (d *Drivetrain) TurnToHeading(ctx context.Context, desired float64) error {
	desired = models.NormalizeHeading(desired)

	err := d.setVelocities(0, 0)
	if err != nil {
		return fmt.Errorf("turn to heading: %w", err)
	}
	err = d.spinAll()
	if err != nil {
		return fmt.Errorf("turn to heading: %w", err)
	}

	deadline := d.deadline()
	for {
		if ctx.Err() != nil {
			d.stopAll()
			return fmt.Errorf("turn to heading: %w", ctx.Err())
		}
		if expired(deadline) {
			d.stopAll()
			return fmt.Errorf("turn to heading %.1f: %w", desired, ErrConvergenceTimeout)
		}

		current := models.NormalizeHeading(d.inertial.Heading(hal.Degrees))
		delta, dir := shortestTurn(current, desired)
		if delta <= d.cfg.HeadingTolerance {
			break
		}

		left, right := d.kin.TurnCommand(delta*d.cfg.TurnAggression+d.cfg.StallSpeed, dir)
		err = d.setVelocities(left, right)
		if err != nil {
			d.stopAll()
			return fmt.Errorf("turn to heading: %w", err)
		}

		err = d.sleepTick(ctx)
		if err != nil {
			d.stopAll()
			return fmt.Errorf("turn to heading: %w", err)
		}
	}

	err = d.stopAll()
	if err != nil {
		return fmt.Errorf("turn to heading: %w", err)
	}

	d.mu.Lock()
	d.pose.Heading = desired
	d.mu.Unlock()

	// Settle, then re-measure once for diagnostics only; the loop is not
	// re-entered.
	d.settle(ctx)
	achieved := models.NormalizeHeading(d.inertial.Heading(hal.Degrees))
	finalErr, _ := shortestTurn(achieved, desired)
	d.logger.Log(fmt.Sprintf("turned to %.1f with accuracy of %.2f degrees", desired, finalErr), "turn_to_heading")
	return nil
}

// TurnRelative turns by a signed delta from the current pose heading.
func (d *Drivetrain) TurnRelative(ctx context.Context, delta float64) error {
	d.mu.Lock()
	target := d.pose.Heading + delta
	d.mu.Unlock()
	return d.TurnToHeading(ctx, target)
}
