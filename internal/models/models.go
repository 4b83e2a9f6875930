package models

import (
	"math"

	"github.com/google/uuid"
)

// Pose is the dead-reckoned chassis estimate. Heading is degrees in [0, 360),
// 0 pointing along +y and 90 along +x. X and Y are millimeters.
type Pose struct {
	Heading float64 `json:"heading"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// MotionCommand describes one point-to-point leg. Speed is a signed percent,
// the sign selects forward or reverse. DistanceMM is always non-negative.
type MotionCommand struct {
	Heading    float64 `json:"heading"`
	Speed      float64 `json:"speed"`
	DistanceMM float64 `json:"distance_mm"`
}

// ControlState is one sample of driver input. Axes are percent values in
// roughly [-100, 100].
type ControlState struct {
	Axes      []float64 `json:"axes"`
	Buttons   []bool    `json:"buttons"`
	TimeStamp int64     `json:"time_stamp"`
}

// TelemetryEvent is one diagnostic record sent over the telemetry uplink.
type TelemetryEvent struct {
	Session   uuid.UUID `json:"session"`
	Tag       string    `json:"tag"`
	Message   string    `json:"message"`
	TimeStamp int64     `json:"time_stamp"`
}

// NormalizeHeading wraps a heading in degrees into [0, 360).
func NormalizeHeading(heading float64) float64 {
	heading = math.Mod(heading, 360)
	if heading < 0 {
		heading += 360
	}
	return heading
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
