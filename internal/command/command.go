// Package command defines the PWM output contract the hardware backends
// implement. A drive command is a named channel with a signed percent value;
// backends map it onto their pulse range.
package command

// DriveCommand carries one output value to a named motor channel.
type DriveCommand struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

// DriverIFace is one PWM output backend.
type DriverIFace interface {
	Init() error
	Set(DriveCommand) error
	SetMany([]DriveCommand) error
	Stop() error
}

func MapToRange(value, min, max, minReturn, maxReturn float64) float64 {
	mappedValue := (maxReturn-minReturn)*(value-min)/(max-min) + minReturn

	if mappedValue > maxReturn {
		return maxReturn
	} else if mappedValue < minReturn {
		return minReturn
	} else {
		return mappedValue
	}
}
