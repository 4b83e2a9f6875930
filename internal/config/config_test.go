package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDriveConfigDefaults(t *testing.T) {
	cfg := GetDriveConfig()
	assert.Equal(t, DefaultHeadingTolerance, cfg.HeadingTolerance)
	assert.Equal(t, DefaultTurnAggression, cfg.TurnAggression)
	assert.Equal(t, DefaultControlStyle, cfg.ControlStyle)
	assert.Equal(t, DefaultKinematics, cfg.Kinematics)
	assert.Equal(t, DefaultManeuverTimeoutMs, cfg.ManeuverTimeoutMs)
}

func TestGetDriveConfigFromEnv(t *testing.T) {
	t.Setenv(AppEnvBase+"HEADINGTOLERANCE", "2.5")
	t.Setenv(AppEnvBase+"TURNAGGRESSION", "0.5")
	t.Setenv(AppEnvBase+"KINEMATICS", "XDRIVE")
	t.Setenv(AppEnvBase+"POLLINTERVALMS", "10")

	cfg := GetDriveConfig()
	assert.Equal(t, 2.5, cfg.HeadingTolerance)
	assert.Equal(t, 0.5, cfg.TurnAggression)
	assert.Equal(t, "xdrive", cfg.Kinematics) // env strings fold to lower case
	assert.Equal(t, 10, cfg.PollIntervalMs)
}

func TestGetCommandConfigMotors(t *testing.T) {
	t.Setenv(AppEnvBase+"MOTOR0_NAME", "front_left")
	t.Setenv(AppEnvBase+"MOTOR0_SIDE", "left")
	t.Setenv(AppEnvBase+"MOTOR1_NAME", "front_right")
	t.Setenv(AppEnvBase+"MOTOR1_SIDE", "right")
	t.Setenv(AppEnvBase+"MOTOR1_INVERTED", "true")

	// Motor slots without a name are skipped, so only two configs load.
	cfg := GetCommandConfig()
	assert.Len(t, cfg.MotorCfgs, 2)
	assert.Equal(t, "front_left", cfg.MotorCfgs[0].Name)
	assert.Equal(t, "left", cfg.MotorCfgs[0].Side)
	assert.False(t, cfg.MotorCfgs[0].Inverted)
	assert.Equal(t, "front_right", cfg.MotorCfgs[1].Name)
	assert.True(t, cfg.MotorCfgs[1].Inverted)
}

func TestGetIntEnvBadValue(t *testing.T) {
	t.Setenv(AppEnvBase+"PIDPERIODMS", "fast")
	cfg := GetPidConfig()
	assert.Equal(t, DefaultPidPeriodMs, cfg.PeriodMs)
}

func TestGetBoolEnv(t *testing.T) {
	t.Setenv(AppEnvBase+"REGULATED", "true")
	assert.True(t, GetBoolEnv("REGULATED", false))

	t.Setenv(AppEnvBase+"REGULATED", "maybe")
	assert.False(t, GetBoolEnv("REGULATED", false))
}
