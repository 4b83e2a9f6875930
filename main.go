package main

import (
	"fmt"
	"log"

	"github.com/deekb/VRC-Template/internal/app"
	"github.com/deekb/VRC-Template/internal/config"
	"github.com/deekb/VRC-Template/internal/hal"
	"github.com/deekb/VRC-Template/internal/hal/sim"
	socketio "github.com/googollee/go-socket.io"
)

func main() {
	cfg := config.GetConfig()

	var client *socketio.Client
	if cfg.TelemetryCfg.Enabled {
		socketURI := fmt.Sprintf("http://%s", cfg.TelemetryCfg.Server)
		newClient, err := socketio.NewClient(socketURI, nil)
		if err != nil {
			err = fmt.Errorf("error creating telemetry client - %w", err)
			panic(err)
		}
		client = newClient
	}

	// TODO: replace with a gamepad-backed controller once the input transport
	// lands; until then driver control holds neutral.
	var controller hal.Controller = sim.NewController()

	robot, err := app.NewApp(cfg, client, controller)
	if err != nil {
		err = fmt.Errorf("error creating app - %w", err)
		panic(err)
	}

	err = robot.RegisterHandlers()
	if err != nil {
		err = fmt.Errorf("error connecting telemetry - %w", err)
		panic(err)
	}

	err = robot.Start()
	if err != nil {
		log.Printf("robot shutdown with error: %s", err.Error())
	} else {
		log.Println("robot shutdown successfully")
	}
}
