package drivetrain

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/hal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig matches the default tuning. PollInterval is zero so loops run at
// simulation speed, and settling is skipped because simulated hardware has
// nothing to settle.
func testConfig() Config {
	return Config{
		HeadingTolerance:     1,
		TurnAggression:       0.25,
		CorrectionAggression: 0.1,
		WheelRadiusMM:        50,
		StallSpeed:           1,
		SlowdownSlope:        0.2,
		DriverLinearity:      0.45,
		ControlStyle:         ControlStyleTank,
		Kinematics:           KinematicsTank,
		ManeuverTimeout:      10 * time.Second,
	}
}

func newTestDrivetrain(t *testing.T, cfg Config, chassisCfg sim.ChassisConfig) (*Drivetrain, *sim.Chassis) {
	t.Helper()
	chassis := sim.NewChassis(chassisCfg)
	d, err := New(cfg, hal.NewMotorGroup(chassis.Left()), hal.NewMotorGroup(chassis.Right()), chassis, nil)
	require.NoError(t, err)
	return d, chassis
}

func headingError(t *testing.T, chassis *sim.Chassis, desired float64) float64 {
	t.Helper()
	delta, _ := shortestTurn(chassis.Heading(hal.Degrees), desired)
	return delta
}

func TestNewRejectsBadConfig(t *testing.T) {
	chassis := sim.NewChassis(sim.DefaultChassisConfig())
	left := hal.NewMotorGroup(chassis.Left())
	right := hal.NewMotorGroup(chassis.Right())

	cfg := testConfig()
	cfg.Kinematics = "mecanum"
	_, err := New(cfg, left, right, chassis, nil)
	assert.ErrorIs(t, err, ErrUnsupportedKinematics)

	cfg = testConfig()
	cfg.ControlStyle = "split"
	_, err = New(cfg, left, right, chassis, nil)
	assert.ErrorIs(t, err, ErrUnsupportedControlStyle)
}

func TestHeadingDiffs(t *testing.T) {
	cases := []struct {
		current, desired    float64
		leftDiff, rightDiff float64
	}{
		{0, 0, 0, 0},
		{10, 350, 20, 340},
		{350, 10, 340, 20},
		{0, 180, 180, 180},
		{90, 270, 180, 180},
		{359, 1, 358, 2},
	}
	for _, c := range cases {
		leftDiff, rightDiff := headingDiffs(c.current, c.desired)
		assert.InDelta(t, c.leftDiff, leftDiff, 1e-9, "left diff %v -> %v", c.current, c.desired)
		assert.InDelta(t, c.rightDiff, rightDiff, 1e-9, "right diff %v -> %v", c.current, c.desired)
	}
}

func TestShortestTurn(t *testing.T) {
	delta, dir := shortestTurn(10, 350)
	assert.InDelta(t, 20.0, delta, 1e-9)
	assert.Equal(t, TurnLeft, dir)

	delta, dir = shortestTurn(350, 10)
	assert.InDelta(t, 20.0, delta, 1e-9)
	assert.Equal(t, TurnRight, dir)

	// An exact tie resolves left.
	delta, dir = shortestTurn(0, 180)
	assert.InDelta(t, 180.0, delta, 1e-9)
	assert.Equal(t, TurnLeft, dir)
}

func TestTankKinematics(t *testing.T) {
	kin, err := NewKinematics(KinematicsTank)
	require.NoError(t, err)
	assert.Equal(t, KinematicsTank, kin.Name())

	left, right := kin.TurnCommand(10, TurnLeft)
	assert.Equal(t, 10.0, left)
	assert.Equal(t, -10.0, right)

	left, right = kin.TurnCommand(10, TurnRight)
	assert.Equal(t, -10.0, left)
	assert.Equal(t, 10.0, right)

	left, right = kin.DriveCommand(50, 2, TurnLeft)
	assert.Equal(t, 52.0, left)
	assert.Equal(t, 48.0, right)

	left, right = kin.DriveCommand(50, 2, TurnRight)
	assert.Equal(t, 48.0, left)
	assert.Equal(t, 52.0, right)
}

func TestTurnToHeadingTakesShortestPath(t *testing.T) {
	d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
	require.NoError(t, chassis.SetHeading(10, hal.Degrees))
	d.SetHeading(10)

	err := d.TurnToHeading(context.Background(), 350)
	require.NoError(t, err)

	// 10 to 350 is 20 degrees through zero; going the long way round would
	// accumulate about 340.
	assert.Less(t, chassis.TotalRotation(), 180.0)
	assert.LessOrEqual(t, headingError(t, chassis, 350), testConfig().HeadingTolerance+0.1)
	assert.Equal(t, 350.0, d.CurrentPose().Heading)
}

func TestTurnToHeadingConverges(t *testing.T) {
	for _, desired := range []float64{45, 90, 180, 270, 350.5} {
		d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
		err := d.TurnToHeading(context.Background(), desired)
		require.NoError(t, err, "turn to %v", desired)
		assert.LessOrEqual(t, headingError(t, chassis, desired), testConfig().HeadingTolerance+0.1, "turn to %v", desired)
	}
}

func TestTurnRelative(t *testing.T) {
	d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())

	require.NoError(t, d.TurnRelative(context.Background(), 90))
	assert.Equal(t, 90.0, d.CurrentPose().Heading)

	// Relative turns accumulate on the pose heading, wrapping at 360.
	require.NoError(t, d.TurnRelative(context.Background(), -135))
	assert.Equal(t, 315.0, d.CurrentPose().Heading)
	assert.LessOrEqual(t, headingError(t, chassis, 315), testConfig().HeadingTolerance+0.1)
}

func TestTurnTimeout(t *testing.T) {
	cfg := testConfig()
	// Zero both gain and stall speed so the chassis never moves.
	cfg.TurnAggression = 0
	cfg.StallSpeed = 0
	cfg.ManeuverTimeout = 50 * time.Millisecond
	d, chassis := newTestDrivetrain(t, cfg, sim.DefaultChassisConfig())

	err := d.TurnToHeading(context.Background(), 90)
	assert.ErrorIs(t, err, ErrConvergenceTimeout)
	assert.Equal(t, 0.0, chassis.Left().Velocity(hal.Percent))
	assert.Equal(t, 0.0, chassis.Right().Velocity(hal.Percent))
}

func TestTurnCancelled(t *testing.T) {
	d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.TurnToHeading(ctx, 90)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0.0, chassis.Left().Velocity(hal.Percent))
	assert.Equal(t, 0.0, chassis.Right().Velocity(hal.Percent))
}

func TestMoveTowardsHeadingRejectsBadArguments(t *testing.T) {
	d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
	ctx := context.Background()

	err := d.MoveTowardsHeading(ctx, 0, 0, 1000)
	assert.ErrorIs(t, err, ErrZeroSpeed)

	err = d.MoveTowardsHeading(ctx, 0, 50, 0)
	assert.ErrorIs(t, err, ErrInvalidDistance)

	err = d.MoveTowardsHeading(ctx, 0, 50, -250)
	assert.ErrorIs(t, err, ErrInvalidDistance)

	// Rejection happens before any motion.
	assert.Equal(t, 0.0, chassis.ElapsedSec())
}

func TestMoveTowardsHeadingTravelsDistance(t *testing.T) {
	d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())

	err := d.MoveTowardsHeading(context.Background(), 0, 50, 1000)
	require.NoError(t, err)

	pose := d.CurrentPose()
	assert.InDelta(t, 0.0, pose.X, 1e-6)
	assert.InDelta(t, 1000.0, pose.Y, 1e-6)
	assert.Equal(t, 0.0, pose.Heading)

	// The leg ends on encoder travel, so the chassis overshoots by at most
	// one step at the slowdown floor.
	traveled := (chassis.Left().Position(hal.Degrees) + chassis.Right().Position(hal.Degrees)) / 2 / 360 * sim.DefaultWheelCircumference
	assert.InDelta(t, 1000.0, traveled, 1.0)
}

func TestMoveTowardsHeadingReverse(t *testing.T) {
	d, _ := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())

	// Negative speed drives the same heading backwards.
	err := d.MoveTowardsHeading(context.Background(), 0, -50, 1000)
	require.NoError(t, err)

	pose := d.CurrentPose()
	assert.InDelta(t, 0.0, pose.X, 1e-6)
	assert.InDelta(t, -1000.0, pose.Y, 1e-6)
}

func TestMoveOutAndBack(t *testing.T) {
	d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
	ctx := context.Background()

	require.NoError(t, d.MoveTowardsHeading(ctx, 0, 50, 1000))
	require.NoError(t, d.TurnToHeading(ctx, 180))
	require.NoError(t, d.MoveTowardsHeading(ctx, 180, 50, 1000))

	pose := d.CurrentPose()
	assert.InDelta(t, 0.0, pose.X, 1e-6)
	assert.InDelta(t, 0.0, pose.Y, 1e-6)
	assert.Equal(t, 180.0, pose.Heading)
	assert.LessOrEqual(t, headingError(t, chassis, 180), testConfig().HeadingTolerance+0.1)
}

func TestMoveCorrectsDrift(t *testing.T) {
	chassisCfg := sim.DefaultChassisConfig()
	chassisCfg.DriftDegPerSec = 1.0
	d, chassis := newTestDrivetrain(t, testConfig(), chassisCfg)

	err := d.MoveTowardsHeading(context.Background(), 0, 50, 1000)
	require.NoError(t, err)

	// The proportional correction holds the drift to a small steady-state
	// error instead of letting it integrate over the whole leg.
	assert.LessOrEqual(t, headingError(t, chassis, 0), 5.0)
}

func TestMoveToPosition(t *testing.T) {
	d, _ := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
	ctx := context.Background()

	// Straight ahead: heading 0 points along +y.
	require.NoError(t, d.MoveToPosition(ctx, 0, 500, 50))
	pose := d.CurrentPose()
	assert.InDelta(t, 0.0, pose.X, 1e-6)
	assert.InDelta(t, 500.0, pose.Y, 1e-6)
	assert.InDelta(t, 0.0, pose.Heading, 1e-6)

	// Due +x from here is a bearing of 90.
	require.NoError(t, d.MoveToPosition(ctx, 1000, 500, 50))
	pose = d.CurrentPose()
	assert.InDelta(t, 1000.0, pose.X, 1e-6)
	assert.InDelta(t, 500.0, pose.Y, 1e-6)
	assert.InDelta(t, 90.0, pose.Heading, 1e-6)
}

func TestMoveWithControllerTank(t *testing.T) {
	d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
	controller := sim.NewController()
	controller.SetAxis(3, 100) // left stick full forward
	controller.SetAxis(2, -50) // right stick half back

	err := d.MoveWithController(controller)
	require.NoError(t, err)

	// Full deflection passes through the curve unchanged; partial deflection
	// is attenuated by it.
	assert.InDelta(t, 100.0, chassis.Left().Velocity(hal.Percent), 1e-6)
	expected := (math.Pow(-0.5, 3) + 0.45*-0.5) / 1.45 * 100
	assert.InDelta(t, expected, chassis.Right().Velocity(hal.Percent), 1e-6)
}

func TestMoveWithControllerDeadzone(t *testing.T) {
	cfg := testConfig()
	cfg.DriverDeadzone = 0.1
	d, chassis := newTestDrivetrain(t, cfg, sim.DefaultChassisConfig())
	controller := sim.NewController()
	controller.SetAxis(3, 5)
	controller.SetAxis(2, -9)

	require.NoError(t, d.MoveWithController(controller))
	assert.Equal(t, 0.0, chassis.Left().Velocity(hal.Percent))
	assert.Equal(t, 0.0, chassis.Right().Velocity(hal.Percent))
}

func TestMoveWithControllerArcadeUnsupported(t *testing.T) {
	cfg := testConfig()
	cfg.ControlStyle = ControlStyleArcade
	d, chassis := newTestDrivetrain(t, cfg, sim.DefaultChassisConfig())

	err := d.MoveWithController(sim.NewController())
	assert.ErrorIs(t, err, ErrUnsupportedControlStyle)
	assert.Equal(t, 0.0, chassis.Left().Velocity(hal.Percent))
}

func TestProfileSpeed(t *testing.T) {
	d, _ := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())

	// Far from the target the profile saturates at the commanded maximum.
	assert.Equal(t, 50.0, d.profileSpeed(1000, 50))
	// Near the target it decays linearly toward the stall floor.
	assert.InDelta(t, 3.0, d.profileSpeed(10, 50), 1e-9)
	assert.InDelta(t, 1.0, d.profileSpeed(0, 50), 1e-9)
	// Never negative.
	assert.GreaterOrEqual(t, d.profileSpeed(0, 0.5), 0.0)
}

func TestResetClearsPose(t *testing.T) {
	d, chassis := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
	require.NoError(t, chassis.SetHeading(123, hal.Degrees))
	d.SetHeading(123)
	d.SetPosition(10, -20)

	require.NoError(t, d.Reset())

	pose := d.CurrentPose()
	assert.Equal(t, 0.0, pose.Heading)
	assert.Equal(t, 0.0, pose.X)
	assert.Equal(t, 0.0, pose.Y)
	assert.InDelta(t, 0.0, chassis.Heading(hal.Degrees), 1e-9)
}

func TestSetHeadingNormalizes(t *testing.T) {
	d, _ := newTestDrivetrain(t, testConfig(), sim.DefaultChassisConfig())
	d.SetHeading(-90)
	assert.Equal(t, 270.0, d.CurrentPose().Heading)
	d.SetHeading(450)
	assert.Equal(t, 90.0, d.CurrentPose().Heading)
}
