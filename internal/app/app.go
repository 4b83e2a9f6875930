// Package app wires the configured hardware backend, the motion core and the
// telemetry uplink together and runs the competition process: the optional
// autonomous routine first, then the driver control loop until the process is
// signalled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deekb/VRC-Template/internal/command"
	"github.com/deekb/VRC-Template/internal/command/pca9685"
	pipwm "github.com/deekb/VRC-Template/internal/command/pi_pwm"
	"github.com/deekb/VRC-Template/internal/config"
	"github.com/deekb/VRC-Template/internal/drivetrain"
	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/hal/bno"
	"github.com/deekb/VRC-Template/internal/hal/pwm"
	"github.com/deekb/VRC-Template/internal/hal/sim"
	"github.com/deekb/VRC-Template/internal/regulator"
	"github.com/deekb/VRC-Template/internal/routine"
	"github.com/deekb/VRC-Template/internal/telemetry"
	socketio "github.com/googollee/go-socket.io"
	"github.com/prometheus/procfs"
	"golang.org/x/sync/errgroup"
)

type App struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	cfg    config.Config
	client *socketio.Client
	logger telemetry.Logger

	drivetrain    *drivetrain.Drivetrain
	controller    hal.Controller
	regulators    []*regulator.Regulator
	commandDriver command.DriverIFace
	auton         *routine.Routine
}

func NewApp(cfg config.Config, client *socketio.Client, controller hal.Controller) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	logger := telemetry.Logger(telemetry.NewConsole())
	if client != nil {
		logger = telemetry.NewTee(logger, telemetry.NewUplink(client, cfg.TelemetryCfg.Event))
	}

	leftMotors, rightMotors, inertial, commandDriver, err := buildHardware(cfg.CommandCfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed building hardware: %w", err)
	}

	regulators := make([]*regulator.Regulator, 0, len(leftMotors)+len(rightMotors))
	if cfg.PidCfg.Regulated {
		gains := regulator.Gains{
			Kp:     cfg.PidCfg.Kp,
			Kd:     cfg.PidCfg.Kd,
			Period: time.Duration(cfg.PidCfg.PeriodMs) * time.Millisecond,
		}
		leftMotors, regulators = regulate(leftMotors, regulators, gains)
		rightMotors, regulators = regulate(rightMotors, regulators, gains)
	}

	dt, err := drivetrain.New(driveConfig(cfg.DriveCfg),
		hal.NewMotorGroup(leftMotors...), hal.NewMotorGroup(rightMotors...), inertial, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed building drivetrain: %w", err)
	}

	var auton *routine.Routine
	if cfg.AppCfg.RoutinePath != "" {
		auton, err = routine.Load(cfg.AppCfg.RoutinePath)
		if err != nil {
			cancel()
			return nil, err
		}
	}

	return &App{
		ctx:           ctx,
		ctxCancel:     cancel,
		cfg:           cfg,
		client:        client,
		logger:        logger,
		drivetrain:    dt,
		controller:    controller,
		regulators:    regulators,
		commandDriver: commandDriver,
		auton:         auton,
	}, nil
}

func regulate(motors []hal.Motor, regulators []*regulator.Regulator, gains regulator.Gains) ([]hal.Motor, []*regulator.Regulator) {
	wrapped := make([]hal.Motor, 0, len(motors))
	for i := range motors {
		reg := regulator.Attach(motors[i], gains)
		regulators = append(regulators, reg)
		wrapped = append(wrapped, reg)
	}
	return wrapped, regulators
}

func buildHardware(cfg config.CommandConfig) ([]hal.Motor, []hal.Motor, hal.Inertial, command.DriverIFace, error) {
	switch cfg.CommandDriver {
	case "sim":
		chassis := sim.NewChassis(sim.DefaultChassisConfig())
		return []hal.Motor{chassis.Left()}, []hal.Motor{chassis.Right()}, chassis, nil, nil
	case "pca9685":
		driver := pca9685.NewDriver(cfg)
		return pwmHardware(cfg, driver)
	case "pi_pwm":
		driver := pipwm.NewDriver(cfg)
		return pwmHardware(cfg, driver)
	default:
		return nil, nil, nil, nil, fmt.Errorf("unsupported motor driver: %q", cfg.CommandDriver)
	}
}

func pwmHardware(cfg config.CommandConfig, driver command.DriverIFace) ([]hal.Motor, []hal.Motor, hal.Inertial, command.DriverIFace, error) {
	leftMotors := make([]hal.Motor, 0, len(cfg.MotorCfgs))
	rightMotors := make([]hal.Motor, 0, len(cfg.MotorCfgs))
	for i := range cfg.MotorCfgs {
		motor := pwm.NewMotor(driver, cfg.MotorCfgs[i].Name, 0)
		switch cfg.MotorCfgs[i].Side {
		case "left":
			leftMotors = append(leftMotors, motor)
		case "right":
			rightMotors = append(rightMotors, motor)
		default:
			return nil, nil, nil, nil, fmt.Errorf("motor %s has unsupported side: %q", cfg.MotorCfgs[i].Name, cfg.MotorCfgs[i].Side)
		}
	}
	if len(leftMotors) == 0 || len(rightMotors) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("motor driver %q needs at least one motor per side", cfg.CommandDriver)
	}

	inertial, err := bno.NewInertial(bno.DefaultAddress)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed opening inertial sensor: %w", err)
	}
	return leftMotors, rightMotors, inertial, driver, nil
}

func driveConfig(cfg config.DriveConfig) drivetrain.Config {
	return drivetrain.Config{
		HeadingTolerance:     cfg.HeadingTolerance,
		TurnAggression:       cfg.TurnAggression,
		CorrectionAggression: cfg.CorrectionAggression,
		WheelRadiusMM:        cfg.WheelRadiusMM,
		StallSpeed:           cfg.StallSpeed,
		SlowdownSlope:        cfg.SlowdownSlope,
		DriverLinearity:      cfg.DriverLinearity,
		DriverDeadzone:       cfg.DriverDeadzone,
		DriverSlewRate:       cfg.DriverSlewRate,
		ControlStyle:         cfg.ControlStyle,
		Kinematics:           cfg.Kinematics,
		PollInterval:         time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		SettleTime:           time.Duration(cfg.SettleMs) * time.Millisecond,
		ManeuverTimeout:      time.Duration(cfg.ManeuverTimeoutMs) * time.Millisecond,
	}
}

func stopMode(name string) (hal.StopMode, error) {
	switch name {
	case "coast":
		return hal.Coast, nil
	case "brake":
		return hal.Brake, nil
	case "hold":
		return hal.Hold, nil
	default:
		return hal.Coast, fmt.Errorf("unsupported stopping mode: %q", name)
	}
}

// RegisterHandlers registers the uplink event handlers and connects to the
// telemetry server. No-op when telemetry is disabled.
func (a *App) RegisterHandlers() error {
	if a.client == nil {
		return nil
	}

	log.Println("registering handlers")
	a.client.OnEvent("reply", func(s socketio.Conn, msg string) {
		log.Println("Receive Message /reply: ", "reply", msg)
	})

	log.Println("attempting to connect to server...")
	err := a.client.Connect() // Client must have at least 1 event handler to work
	if err != nil {
		return fmt.Errorf("error connecting to server - %w", err)
	}
	log.Println("connected to server")
	return nil
}

func (a *App) Start() error {
	group, groupCtx := errgroup.WithContext(a.ctx)
	log.Println("starting...")

	if a.client != nil {
		defer func() {
			log.Println("closing telemetry client")
			a.client.Close()
		}()
	}

	if a.commandDriver != nil {
		err := a.commandDriver.Init()
		if err != nil {
			return fmt.Errorf("failed initializing command driver: %w", err)
		}
		defer func() {
			err := a.commandDriver.Stop()
			if err != nil {
				log.Printf("failed stopping command driver: %s\n", err.Error())
			}
		}()
	}

	mode, err := stopMode(a.cfg.AppCfg.StoppingMode)
	if err != nil {
		return err
	}
	err = a.drivetrain.SetStopping(mode)
	if err != nil {
		return fmt.Errorf("failed setting stopping mode: %w", err)
	}

	// kill listener
	group.Go(func() error {
		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-signalChannel:
			log.Printf("received signal: %s\n", sig)
			a.ctxCancel()
			return fmt.Errorf("received signal: %s", sig)
		case <-groupCtx.Done():
			log.Println("closing signal goroutine")
			return groupCtx.Err()
		}
	})

	for i := range a.regulators {
		reg := a.regulators[i]
		group.Go(func() error {
			return reg.Start(groupCtx)
		})
	}

	if a.client != nil {
		group.Go(func() error {
			return a.healthLoop(groupCtx)
		})
	}

	group.Go(func() error {
		if a.auton != nil {
			err := a.auton.Run(groupCtx, a.drivetrain)
			if err != nil {
				return fmt.Errorf("autonomous routine failed: %w", err)
			}
			a.logger.Log("autonomous routine complete", "app")
		}
		return a.driverLoop(groupCtx)
	})

	err = group.Wait()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("context was cancelled")
			return nil
		}
		return fmt.Errorf("app stopping due to error - %w", err)
	}

	log.Println("shutting down")
	return nil
}

// Stop requests a clean shutdown.
func (a *App) Stop() {
	a.ctxCancel()
}

// driverLoop applies controller input to the drivetrain at a fixed tick.
func (a *App) driverLoop(ctx context.Context) error {
	log.Println("starting driver control")
	ticker := time.NewTicker(time.Duration(a.cfg.AppCfg.DriverTickMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("stopping driver control: %s\n", ctx.Err().Error())
			err := a.drivetrain.Reset()
			if err != nil {
				log.Printf("failed stopping drivetrain: %s\n", err.Error())
			}
			return ctx.Err()
		case <-ticker.C:
			err := a.drivetrain.MoveWithController(a.controller)
			if err != nil {
				return fmt.Errorf("driver control failed: %w", err)
			}
		}
	}
}

// healthLoop reports process and network health over the uplink.
func (a *App) healthLoop(ctx context.Context) error {
	healthTicker := time.NewTicker(30 * time.Second)
	defer healthTicker.Stop()

	proc, err := procfs.Self()
	if err != nil {
		return fmt.Errorf("error: procfs could not get process: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("health checker stopped")
			return ctx.Err()
		case <-healthTicker.C:
			pose := a.drivetrain.CurrentPose()
			a.logger.Log(fmt.Sprintf("pose heading=%.1f x=%.1f y=%.1f", pose.Heading, pose.X, pose.Y), "health")

			netDev, err := proc.NetDev()
			if err != nil {
				log.Printf("failed getting netstat: %s\n", err.Error())
				continue
			}
			stats, ok := netDev[a.cfg.TelemetryCfg.NetDev]
			if !ok {
				log.Printf("failed getting %s stats: not found\n", a.cfg.TelemetryCfg.NetDev)
				continue
			}
			a.logger.Log(fmt.Sprintf("netdev %s rx=%d tx=%d", stats.Name, stats.RxBytes, stats.TxBytes), "health")
			a.client.Emit("robot_healthy", "")
		}
	}
}
