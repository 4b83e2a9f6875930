package pipwm

import (
	"fmt"
	"log"

	"github.com/deekb/VRC-Template/internal/command"
	"github.com/deekb/VRC-Template/internal/config"
	"github.com/stianeikeland/go-rpio/v4"
)

const (
	Frequency          = 100000
	CycleLength        = uint32(2000)
	MaxSupportedMotors = 2
)

var PinMap = []int{12, 13} // Motor0, Motor1

// Driver feeds motor ESCs from the Pi's two hardware PWM pins. Only two
// channels exist, so this backend suits a one-motor-per-side drivetrain.
type Driver struct {
	cfg      config.CommandConfig
	channels map[string]Channel
}

type Channel struct {
	name     string
	inverted bool
	pin      rpio.Pin
	maxValue uint32
	minValue uint32
}

func NewDriver(cfg config.CommandConfig) *Driver {
	return &Driver{
		cfg: cfg,
	}
}

func (d *Driver) Init() error {
	err := rpio.Open()
	if err != nil {
		return fmt.Errorf("failed opening rpio: %w", err)
	}

	channels := make(map[string]Channel, MaxSupportedMotors)
	for i := range d.cfg.MotorCfgs {
		if i >= MaxSupportedMotors {
			break
		}

		name := d.cfg.MotorCfgs[i].Name
		channels[name] = Channel{
			name:     name,
			inverted: d.cfg.MotorCfgs[i].Inverted,
			pin:      rpio.Pin(PinMap[i]),
			maxValue: uint32(d.cfg.MotorCfgs[i].MaxPulse),
			minValue: uint32(d.cfg.MotorCfgs[i].MinPulse),
		}
		channels[name].pin.Mode(rpio.Pwm)
		channels[name].pin.Freq(Frequency)
		log.Printf("motor channel added: %s\n", name)
	}
	d.channels = channels
	d.CenterAll()
	return nil
}

func (d *Driver) Stop() error {
	d.CenterAll()
	err := rpio.Close()
	if err != nil {
		return fmt.Errorf("failed closing rpio: %w", err)
	}
	return nil
}

// CenterAll drives every ESC to its neutral pulse, which stops the motors.
func (d *Driver) CenterAll() {
	log.Println("centering all motor channels")
	for i := range d.channels {
		midValue := (d.channels[i].maxValue + d.channels[i].minValue) / 2
		d.channels[i].pin.DutyCycle(midValue, CycleLength)
	}
}

func (d *Driver) SetMany(cmds []command.DriveCommand) error {
	for i := range cmds {
		err := d.Set(cmds[i])
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) Set(cmd command.DriveCommand) error {
	val, ok := d.channels[cmd.Name]
	if ok {
		mappedValue := command.MapToRange(cmd.Value, cmd.Min, cmd.Max, float64(val.minValue), float64(val.maxValue))
		if val.inverted {
			mappedValue = float64(val.maxValue) - mappedValue
		}

		val.pin.DutyCycle(uint32(mappedValue), CycleLength)
	}
	return nil
}
