package pca9685

import (
	"fmt"
	"log"

	"github.com/deekb/VRC-Template/internal/command"
	"github.com/deekb/VRC-Template/internal/config"
	"github.com/googolgl/go-i2c"
	"github.com/googolgl/go-pca9685"
)

const (
	MaxValue = 1.0
	MinValue = 0.0
	AcRange  = pca9685.ServoRangeDef
)

// Driver feeds motor ESCs through a PCA9685 PWM expander over i2c. Channels
// are resolved by motor name from the config.
type Driver struct {
	cfg      config.CommandConfig
	channels map[string]Channel
	driver   *pca9685.PCA9685
}

type Channel struct {
	name     string
	inverted bool
	servo    *pca9685.Servo
}

func NewDriver(cfg config.CommandConfig) *Driver {
	return &Driver{
		cfg: cfg,
	}
}

func (d *Driver) Init() error {
	i2cBus, err := i2c.New(d.cfg.Address, d.cfg.I2CDevice)
	if err != nil {
		return fmt.Errorf("error starting i2c with address - %w", err)
	}

	d.driver, err = pca9685.New(i2cBus, nil)
	if err != nil {
		return fmt.Errorf("error getting pwm driver - %w", err)
	}

	channels := make(map[string]Channel, config.MaxSupportedMotors)
	for i := range d.cfg.MotorCfgs {
		name := d.cfg.MotorCfgs[i].Name
		channels[name] = Channel{
			name:     name,
			inverted: d.cfg.MotorCfgs[i].Inverted,
			servo: d.driver.ServoNew(d.cfg.MotorCfgs[i].Channel, &pca9685.ServOptions{
				AcRange:  AcRange,
				MinPulse: float32(d.cfg.MotorCfgs[i].MinPulse),
				MaxPulse: float32(d.cfg.MotorCfgs[i].MaxPulse),
			}),
		}
		log.Printf("motor channel added: %s\n", name)
	}
	d.channels = channels
	d.CenterAll()
	return nil
}

func (d *Driver) Stop() error {
	d.CenterAll()
	return nil
}

// CenterAll drives every ESC to its neutral pulse, which stops the motors.
func (d *Driver) CenterAll() {
	log.Println("centering all motor channels")
	for i := range d.channels {
		d.channels[i].servo.Fraction(0.5)
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
		mappedValue := command.MapToRange(cmd.Value, cmd.Min, cmd.Max, MinValue, MaxValue)
		if val.inverted {
			mappedValue = MaxValue - mappedValue
		}

		err := val.servo.Fraction(float32(mappedValue))
		if err != nil {
			return fmt.Errorf("failed setting channel value - name: %s value: %.2f - error: %w", cmd.Name, mappedValue, err)
		}
	}
	return nil
}
