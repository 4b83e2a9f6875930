package hal

import "fmt"

// MotorGroup broadcasts commands to a set of motors and reads back their
// averaged state, the way one side of a drivetrain is driven as a unit.
type MotorGroup struct {
	motors []Motor
}

func NewMotorGroup(motors ...Motor) *MotorGroup {
	return &MotorGroup{motors: motors}
}

func (g *MotorGroup) SetVelocity(value float64, unit VelocityUnit) error {
	for i := range g.motors {
		err := g.motors[i].SetVelocity(value, unit)
		if err != nil {
			return fmt.Errorf("motor group set velocity: %w", err)
		}
	}
	return nil
}

func (g *MotorGroup) Spin(direction SpinDirection) error {
	for i := range g.motors {
		err := g.motors[i].Spin(direction)
		if err != nil {
			return fmt.Errorf("motor group spin: %w", err)
		}
	}
	return nil
}

func (g *MotorGroup) Stop() error {
	for i := range g.motors {
		err := g.motors[i].Stop()
		if err != nil {
			return fmt.Errorf("motor group stop: %w", err)
		}
	}
	return nil
}

func (g *MotorGroup) SetStopping(mode StopMode) error {
	for i := range g.motors {
		err := g.motors[i].SetStopping(mode)
		if err != nil {
			return fmt.Errorf("motor group set stopping: %w", err)
		}
	}
	return nil
}

// Position returns the mean cumulative rotation of the group's motors.
func (g *MotorGroup) Position(unit RotationUnit) float64 {
	if len(g.motors) == 0 {
		return 0
	}
	sum := 0.0
	for i := range g.motors {
		sum += g.motors[i].Position(unit)
	}
	return sum / float64(len(g.motors))
}

// Velocity returns the mean measured velocity of the group's motors.
func (g *MotorGroup) Velocity(unit VelocityUnit) float64 {
	if len(g.motors) == 0 {
		return 0
	}
	sum := 0.0
	for i := range g.motors {
		sum += g.motors[i].Velocity(unit)
	}
	return sum / float64(len(g.motors))
}
