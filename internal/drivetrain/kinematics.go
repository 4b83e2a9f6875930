package drivetrain

import (
	"fmt"
	"log"
)

const (
	KinematicsTank   = "tank"
	KinematicsXDrive = "xdrive"
)

// TurnDirection selects which of the two candidate rotations closes the
// heading error fastest.
type TurnDirection int

const (
	// TurnLeft closes the (current - desired) difference.
	TurnLeft TurnDirection = iota
	// TurnRight closes the (desired - current) difference.
	TurnRight
)

// Kinematics maps a speed and a heading correction onto per-side velocity
// commands for one physical drivetrain arrangement. The controllers call the
// strategy instead of branching on a type tag.
type Kinematics interface {
	// TurnCommand produces the per-side commands for an in-place rotation at
	// the given magnitude.
	TurnCommand(magnitude float64, dir TurnDirection) (left, right float64)
	// DriveCommand produces the per-side commands for straight travel at
	// speed with a steering correction layered on top.
	DriveCommand(speed, correction float64, dir TurnDirection) (left, right float64)
	Name() string
}

// NewKinematics builds the strategy for a configured variant name.
func NewKinematics(variant string) (Kinematics, error) {
	switch variant {
	case KinematicsTank:
		return tankKinematics{}, nil
	case KinematicsXDrive:
		log.Println("warning: xdrive kinematics are untested")
		return xDriveKinematics{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKinematics, variant)
	}
}

// tankKinematics drives two fixed sides in opposition to rotate and biases
// them to steer.
type tankKinematics struct{}

func (tankKinematics) Name() string { return KinematicsTank }

func (tankKinematics) TurnCommand(magnitude float64, dir TurnDirection) (float64, float64) {
	if dir == TurnLeft {
		return magnitude, -magnitude
	}
	return -magnitude, magnitude
}

func (tankKinematics) DriveCommand(speed, correction float64, dir TurnDirection) (float64, float64) {
	if dir == TurnLeft {
		return speed + correction, speed - correction
	}
	return speed - correction, speed + correction
}

// xDriveKinematics is a placeholder for a holonomic X arrangement. It mirrors
// the historical same-sign turn commands and has never run on hardware.
type xDriveKinematics struct{}

func (xDriveKinematics) Name() string { return KinematicsXDrive }

func (xDriveKinematics) TurnCommand(magnitude float64, dir TurnDirection) (float64, float64) {
	if dir == TurnLeft {
		return magnitude, magnitude
	}
	return -magnitude, -magnitude
}

func (xDriveKinematics) DriveCommand(speed, correction float64, dir TurnDirection) (float64, float64) {
	if dir == TurnLeft {
		return speed + correction, speed + correction
	}
	return speed - correction, speed - correction
}
