// Package bno backs hal.Inertial with a BNO055 absolute orientation sensor
// on i2c. The chip fuses its own gyro and magnetometer, so the heading read
// here is already a free-running 0-360 value.
package bno

import (
	"fmt"
	"log"
	"sync"

	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/models"
	"github.com/usedbytes/bno055"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/host"
)

const DefaultAddress = 0x29

// Inertial reads euler heading from a BNO055. The chip has no writable
// heading register, so SetHeading keeps a software offset.
type Inertial struct {
	mu     sync.Mutex
	imu    *bno055.Dev
	offset float64
}

func NewInertial(address uint16) (*Inertial, error) {
	_, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("failed initializing periph host: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed opening i2c bus: %w", err)
	}

	imu, err := bno055.NewI2C(bus, uint8(address))
	if err != nil {
		return nil, fmt.Errorf("failed opening bno055: %w", err)
	}

	err = imu.SetUseExternalCrystal(true)
	if err != nil {
		log.Println("bno055: SetUseExternalCrystal failed")
	}

	return &Inertial{imu: imu}, nil
}

func (i *Inertial) Heading(unit hal.RotationUnit) float64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	vec, err := i.imu.GetVector(bno055.VECTOR_EULER)
	if err != nil || len(vec) == 0 {
		log.Println("bno055: GetVector failed", err)
		return models.NormalizeHeading(i.offset)
	}
	return models.NormalizeHeading(vec[0] + i.offset)
}

func (i *Inertial) SetHeading(value float64, unit hal.RotationUnit) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	vec, err := i.imu.GetVector(bno055.VECTOR_EULER)
	if err != nil {
		return fmt.Errorf("failed reading bno055 heading: %w", err)
	}
	raw := 0.0
	if len(vec) > 0 {
		raw = vec[0]
	}
	i.offset = models.NormalizeHeading(value) - raw
	return nil
}
