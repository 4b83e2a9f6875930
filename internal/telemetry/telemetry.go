// Package telemetry carries diagnostic strings out of the motion core. The
// core only ever sees the Logger interface; sinks decide where the strings
// go. Logging failures are swallowed so a diagnostic path can never abort a
// maneuver in progress.
package telemetry

import (
	"encoding/json"
	"log"
	"time"

	"github.com/deekb/VRC-Template/internal/models"
	"github.com/google/uuid"
	socketio "github.com/googollee/go-socket.io"
)

// Logger is the injected logging collaborator the motion core reports
// through.
type Logger interface {
	Log(message, tag string)
}

type discard struct{}

func (discard) Log(message, tag string) {}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return discard{}
}

// Console writes tagged diagnostics to the process log.
type Console struct{}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Log(message, tag string) {
	log.Printf("[%s] %s\n", tag, message)
}

// Uplink emits diagnostics to the pit display server as uuid-stamped
// telemetry events. Each process run gets a fresh session id so the server
// can separate restarts.
type Uplink struct {
	client  *socketio.Client
	session uuid.UUID
	event   string
}

func NewUplink(client *socketio.Client, event string) *Uplink {
	return &Uplink{
		client:  client,
		session: uuid.New(),
		event:   event,
	}
}

// Session reports the uplink's session id.
func (u *Uplink) Session() uuid.UUID {
	return u.session
}

func (u *Uplink) Log(message, tag string) {
	data, err := json.Marshal(models.TelemetryEvent{
		Session:   u.session,
		Tag:       tag,
		Message:   message,
		TimeStamp: time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("telemetry: failed encoding event - %s\n", err.Error())
		return
	}
	u.client.Emit(u.event, string(data))
}

// Tee fans one diagnostic stream out to several sinks.
type Tee struct {
	sinks []Logger
}

func NewTee(sinks ...Logger) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) Log(message, tag string) {
	for i := range t.sinks {
		t.sinks[i].Log(message, tag)
	}
}
