package drivetrain

import "errors"

var (
	// ErrUnsupportedKinematics reports a drivetrain variant with no strategy.
	ErrUnsupportedKinematics = errors.New("unsupported drivetrain kinematics")
	// ErrUnsupportedControlStyle reports a driver control style that is not
	// implemented.
	ErrUnsupportedControlStyle = errors.New("unsupported driver control style")
	// ErrZeroSpeed rejects motion commands with no speed.
	ErrZeroSpeed = errors.New("target speed must be nonzero")
	// ErrInvalidDistance rejects motion commands whose distance is zero or
	// negative. Reverse travel is selected with a negative speed, not a
	// negative distance.
	ErrInvalidDistance = errors.New("target distance must be positive")
	// ErrConvergenceTimeout reports a control loop that failed to reach
	// tolerance within the maneuver timeout. Motors are stopped before this
	// is returned.
	ErrConvergenceTimeout = errors.New("maneuver did not converge before timeout")
)
