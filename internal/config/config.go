package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

func GetConfig() Config {
	cfg := Config{
		DriveCfg:     GetDriveConfig(),
		PidCfg:       GetPidConfig(),
		CommandCfg:   GetCommandConfig(),
		TelemetryCfg: GetTelemetryConfig(),
		AppCfg:       GetAppConfig(),
	}

	log.Printf("app config: \n%+v\n", cfg)
	return cfg
}

func GetDriveConfig() DriveConfig {
	return DriveConfig{
		HeadingTolerance:     GetFloatEnv("HEADINGTOLERANCE", DefaultHeadingTolerance),
		TurnAggression:       GetFloatEnv("TURNAGGRESSION", DefaultTurnAggression),
		CorrectionAggression: GetFloatEnv("CORRECTIONAGGRESSION", DefaultCorrectionAggression),
		WheelRadiusMM:        GetFloatEnv("WHEELRADIUS", DefaultWheelRadiusMM),
		StallSpeed:           GetFloatEnv("STALLSPEED", DefaultStallSpeed),
		SlowdownSlope:        GetFloatEnv("SLOWDOWNSLOPE", DefaultSlowdownSlope),
		DriverLinearity:      GetFloatEnv("LINEARITY", DefaultDriverLinearity),
		DriverDeadzone:       GetFloatEnv("DEADZONE", DefaultDriverDeadzone),
		DriverSlewRate:       GetFloatEnv("SLEWRATE", DefaultDriverSlewRate),
		ControlStyle:         GetStringEnv("CONTROLSTYLE", DefaultControlStyle),
		Kinematics:           GetStringEnv("KINEMATICS", DefaultKinematics),
		PollIntervalMs:       GetIntEnv("POLLINTERVALMS", DefaultPollIntervalMs),
		SettleMs:             GetIntEnv("SETTLEMS", DefaultSettleMs),
		ManeuverTimeoutMs:    GetIntEnv("TIMEOUTMS", DefaultManeuverTimeoutMs),
	}
}

func GetPidConfig() PidConfig {
	return PidConfig{
		Regulated: GetBoolEnv("REGULATED", DefaultRegulated),
		Kp:        GetFloatEnv("KP", DefaultKp),
		Kd:        GetFloatEnv("KD", DefaultKd),
		PeriodMs:  GetIntEnv("PIDPERIODMS", DefaultPidPeriodMs),
	}
}

func GetCommandConfig() CommandConfig {
	commandCfg := CommandConfig{
		CommandDriver: GetStringEnv("MOTORDRIVER", DefaultCommandDriver),
		Address:       DefaultAddress,
		I2CDevice:     GetStringEnv("I2CDEVICE", DefaultI2CDevice),
		MotorCfgs:     make([]MotorConfig, 0, MaxSupportedMotors),
	}

	for i := 0; i < MaxSupportedMotors; i++ {
		envPrefix := fmt.Sprintf("MOTOR%d_", i)
		motorCfg := MotorConfig{
			Name:     GetStringEnv(envPrefix+"NAME", ""),
			Side:     GetStringEnv(envPrefix+"SIDE", ""),
			Channel:  GetIntEnv(envPrefix+"CHANNEL", i),
			Inverted: GetBoolEnv(envPrefix+"INVERTED", DefaultInverted),
			MaxPulse: float64(GetIntEnv(envPrefix+"MAXPULSE", DefaultMaxPulse)),
			MinPulse: float64(GetIntEnv(envPrefix+"MINPULSE", DefaultMinPulse)),
		}

		if motorCfg.Name != "" {
			log.Printf("found config for motor: %s (%s side)\n", motorCfg.Name, motorCfg.Side)
			commandCfg.MotorCfgs = append(commandCfg.MotorCfgs, motorCfg)
		}
	}
	return commandCfg
}

func GetTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled: GetBoolEnv("TELEMETRYENABLED", DefaultTelemetryEnabled),
		Server:  GetStringEnv("TELEMETRYSERVER", DefaultTelemetryServer),
		Event:   GetStringEnv("TELEMETRYEVENT", DefaultTelemetryEvent),
		NetDev:  GetStringEnv("TELEMETRYNETDEV", DefaultTelemetryNetDev),
	}
}

func GetAppConfig() AppConfig {
	return AppConfig{
		StoppingMode: GetStringEnv("STOPPING", DefaultStoppingMode),
		RoutinePath:  GetStringEnv("ROUTINE", DefaultRoutinePath),
		DriverTickMs: GetIntEnv("DRIVERTICKMS", DefaultDriverTickMs),
	}
}

func GetIntEnv(env string, defaultValue int) int {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	}
	value, err := strconv.ParseInt(strings.Trim(envValue, "\r"), 10, 32)
	if err != nil {
		log.Printf("warning:%s not parsed - error: %s\n", env, err)
		return defaultValue
	}
	return int(value)
}

func GetBoolEnv(env string, defaultValue bool) bool {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	}
	value, err := strconv.ParseBool(strings.Trim(envValue, "\r"))
	if err != nil {
		log.Printf("warning:%s not parsed - error: %s\n", env, err)
		return defaultValue
	}
	return value
}

func GetStringEnv(env string, defaultValue string) string {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	}
	return strings.ToLower(strings.Trim(envValue, "\r"))
}

func GetFloatEnv(env string, defaultValue float64) float64 {
	envValue, found := os.LookupEnv(AppEnvBase + env)
	if !found {
		return defaultValue
	}
	value, err := strconv.ParseFloat(envValue, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
