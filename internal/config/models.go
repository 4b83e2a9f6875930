package config

const (
	AppEnvBase         = "VRC_"
	MaxSupportedMotors = 8

	// Default drivetrain geometry and gains
	DefaultHeadingTolerance     = 1.0
	DefaultTurnAggression       = 0.25
	DefaultCorrectionAggression = 0.1
	DefaultWheelRadiusMM        = 50.0
	DefaultStallSpeed           = 1.0
	DefaultSlowdownSlope        = 0.2
	DefaultDriverLinearity      = 0.45
	DefaultDriverDeadzone       = 0.0
	DefaultControlStyle         = "tank"
	DefaultKinematics           = "tank"
	DefaultPollIntervalMs       = 5
	DefaultSettleMs             = 500
	DefaultManeuverTimeoutMs    = 15000
	DefaultDriverSlewRate       = 0.0 // percent per second, 0 disables

	// Default velocity regulator gains
	DefaultRegulated   = false
	DefaultKp          = 0.4
	DefaultKd          = 0.05
	DefaultPidPeriodMs = 10

	// Default command backend options
	DefaultCommandDriver = "sim"
	DefaultAddress       = 0x40
	DefaultI2CDevice     = "/dev/i2c-1"
	DefaultMaxPulse      = 2250
	DefaultMinPulse      = 750
	DefaultInverted      = false

	// Default telemetry options
	DefaultTelemetryEnabled = false
	DefaultTelemetryServer  = "127.0.0.1:8181"
	DefaultTelemetryEvent   = "telemetry"
	DefaultTelemetryNetDev  = "wlan0"

	// Default app options
	DefaultStoppingMode = "coast"
	DefaultRoutinePath  = ""
	DefaultDriverTickMs = 20
)

type Config struct {
	DriveCfg     DriveConfig
	PidCfg       PidConfig
	CommandCfg   CommandConfig
	TelemetryCfg TelemetryConfig
	AppCfg       AppConfig
}

type DriveConfig struct {
	HeadingTolerance     float64
	TurnAggression       float64
	CorrectionAggression float64
	WheelRadiusMM        float64
	StallSpeed           float64
	SlowdownSlope        float64
	DriverLinearity      float64
	DriverDeadzone       float64
	DriverSlewRate       float64
	ControlStyle         string
	Kinematics           string
	PollIntervalMs       int
	SettleMs             int
	ManeuverTimeoutMs    int
}

type PidConfig struct {
	Regulated bool
	Kp        float64
	Kd        float64
	PeriodMs  int
}

type CommandConfig struct {
	CommandDriver string
	Address       byte
	I2CDevice     string
	MotorCfgs     []MotorConfig
}

type MotorConfig struct {
	Name     string
	Side     string
	Channel  int
	Inverted bool
	MaxPulse float64
	MinPulse float64
}

type TelemetryConfig struct {
	Enabled bool
	Server  string
	Event   string
	NetDev  string
}

type AppConfig struct {
	StoppingMode string
	RoutinePath  string
	DriverTickMs int
}
