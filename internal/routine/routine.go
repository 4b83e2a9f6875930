// Package routine runs declarative autonomous step lists against the
// drivetrain. Routines live in TOML files so they can be edited at the field
// without rebuilding.
package routine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/deekb/VRC-Template/internal/drivetrain"
)

const (
	ActionTurn         = "turn"
	ActionTurnRelative = "turn_relative"
	ActionMove         = "move"
	ActionMoveTo       = "move_to"
	ActionReset        = "reset"
	ActionPause        = "pause"
)

var ErrUnknownAction = errors.New("unknown routine action")

type Routine struct {
	Name  string `toml:"name"`
	Steps []Step `toml:"step"`
}

type Step struct {
	Action     string  `toml:"action"`
	Heading    float64 `toml:"heading"`
	Delta      float64 `toml:"delta"`
	Speed      float64 `toml:"speed"`
	DistanceMM float64 `toml:"distance_mm"`
	X          float64 `toml:"x"`
	Y          float64 `toml:"y"`
	PauseMs    int     `toml:"pause_ms"`
}

// Load reads and validates a routine file.
func Load(path string) (*Routine, error) {
	var r Routine
	_, err := toml.DecodeFile(path, &r)
	if err != nil {
		return nil, fmt.Errorf("failed loading routine %s: %w", path, err)
	}
	err = r.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid routine %s: %w", path, err)
	}
	return &r, nil
}

// Parse decodes a routine from TOML source.
func Parse(data string) (*Routine, error) {
	var r Routine
	_, err := toml.Decode(data, &r)
	if err != nil {
		return nil, fmt.Errorf("failed parsing routine: %w", err)
	}
	err = r.Validate()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate rejects steps with unknown actions before any motion is attempted.
func (r *Routine) Validate() error {
	for i := range r.Steps {
		switch r.Steps[i].Action {
		case ActionTurn, ActionTurnRelative, ActionMove, ActionMoveTo, ActionReset, ActionPause:
		default:
			return fmt.Errorf("%w: step %d action %q", ErrUnknownAction, i, r.Steps[i].Action)
		}
	}
	return nil
}

// Run executes the routine's steps in order, stopping at the first error.
func (r *Routine) Run(ctx context.Context, d *drivetrain.Drivetrain) error {
	log.Printf("running routine %q with %d steps\n", r.Name, len(r.Steps))
	for i := range r.Steps {
		step := r.Steps[i]
		err := runStep(ctx, d, step)
		if err != nil {
			return fmt.Errorf("routine %q step %d (%s): %w", r.Name, i, step.Action, err)
		}
	}
	return nil
}

func runStep(ctx context.Context, d *drivetrain.Drivetrain, step Step) error {
	switch step.Action {
	case ActionTurn:
		return d.TurnToHeading(ctx, step.Heading)
	case ActionTurnRelative:
		return d.TurnRelative(ctx, step.Delta)
	case ActionMove:
		return d.MoveTowardsHeading(ctx, step.Heading, step.Speed, step.DistanceMM)
	case ActionMoveTo:
		return d.MoveToPosition(ctx, step.X, step.Y, step.Speed)
	case ActionReset:
		return d.Reset()
	case ActionPause:
		timer := time.NewTimer(time.Duration(step.PauseMs) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, step.Action)
	}
}
