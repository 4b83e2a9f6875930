package routine

import (
	"context"
	"testing"
	"time"

	"github.com/deekb/VRC-Template/internal/drivetrain"
	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/hal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkRoutine = `
name = "check"

[[step]]
action = "turn"
heading = 90.0

[[step]]
action = "move"
heading = 90.0
speed = 50.0
distance_mm = 500.0

[[step]]
action = "pause"
pause_ms = 1
`

func newTestDrivetrain(t *testing.T) *drivetrain.Drivetrain {
	t.Helper()
	chassis := sim.NewChassis(sim.DefaultChassisConfig())
	d, err := drivetrain.New(drivetrain.Config{
		HeadingTolerance:     1,
		TurnAggression:       0.25,
		CorrectionAggression: 0.1,
		WheelRadiusMM:        50,
		StallSpeed:           1,
		SlowdownSlope:        0.2,
		ControlStyle:         "tank",
		Kinematics:           "tank",
		ManeuverTimeout:      10 * time.Second,
	}, hal.NewMotorGroup(chassis.Left()), hal.NewMotorGroup(chassis.Right()), chassis, nil)
	require.NoError(t, err)
	return d
}

func TestParse(t *testing.T) {
	r, err := Parse(checkRoutine)
	require.NoError(t, err)

	assert.Equal(t, "check", r.Name)
	require.Len(t, r.Steps, 3)
	assert.Equal(t, ActionTurn, r.Steps[0].Action)
	assert.Equal(t, 90.0, r.Steps[0].Heading)
	assert.Equal(t, ActionMove, r.Steps[1].Action)
	assert.Equal(t, 500.0, r.Steps[1].DistanceMM)
	assert.Equal(t, 1, r.Steps[2].PauseMs)
}

func TestParseUnknownAction(t *testing.T) {
	_, err := Parse(`
name = "bad"

[[step]]
action = "fly"
`)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(`name = `)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does_not_exist.toml")
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	r, err := Parse(checkRoutine)
	require.NoError(t, err)

	d := newTestDrivetrain(t)
	err = r.Run(context.Background(), d)
	require.NoError(t, err)

	// Turn to 90 then drive 500 along it: 90 points along +x.
	pose := d.CurrentPose()
	assert.InDelta(t, 500.0, pose.X, 1e-6)
	assert.InDelta(t, 0.0, pose.Y, 1e-6)
	assert.Equal(t, 90.0, pose.Heading)
}

func TestRunCancelled(t *testing.T) {
	r, err := Parse(`
name = "wait"

[[step]]
action = "pause"
pause_ms = 10000
`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.Run(ctx, newTestDrivetrain(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStopsAtFirstError(t *testing.T) {
	r := &Routine{
		Name: "bad speed",
		Steps: []Step{
			{Action: ActionMove, Heading: 0, Speed: 0, DistanceMM: 100},
			{Action: ActionTurn, Heading: 90},
		},
	}
	require.NoError(t, r.Validate())

	d := newTestDrivetrain(t)
	err := r.Run(context.Background(), d)
	assert.ErrorIs(t, err, drivetrain.ErrZeroSpeed)
	// The failing step aborts the routine before the turn runs.
	assert.Equal(t, 0.0, d.CurrentPose().Heading)
}
