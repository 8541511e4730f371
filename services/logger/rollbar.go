package logsvc

import (
	"log"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
)

// RollbarLogger prints to a std logger and reports to rollbar (when enabled).
// Debug messages are only printed.
type RollbarLogger struct {
	std    *log.Logger
	client *rollbar.Client

	mu sync.Mutex // the reported person is client-wide
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetStackTracer(errors.StackTracer)
	client.SetEnabled(!conf.Debug && conf.RollbarToken != "")
	return &RollbarLogger{std: std, client: client}
}

func (l *RollbarLogger) Enable(enabled bool) {
	l.client.SetEnabled(enabled)
}

// Close waits for pending reports to be sent.
func (l *RollbarLogger) Close() {
	l.client.Close()
}

// payload is what is sent to rollbar for one log call.
type payload struct {
	err    error
	extras map[string]interface{}
}

// expected fmt: msg | error, map[string]interface{}, user.User
// The first error is reported as such, maps are merged into the extras and anything else
// is listed under extras["args"].
func (l *RollbarLogger) prepare(msg string, args []interface{}) payload {
	var (
		usr  *user.User
		rep  = payload{extras: make(map[string]interface{})}
		rest []interface{}
	)
	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			if usr == nil { // only set one User
				usr = &a
			}
		case *user.User:
			if usr == nil && a != nil {
				usr = a
			}
		case error:
			if rep.err == nil {
				rep.err = a
			} else {
				rest = append(rest, a.Error())
			}
		case map[string]interface{}:
			for k, v := range a {
				rep.extras[k] = v
			}
		case nil:
		default:
			rest = append(rest, arg)
		}
	}
	if len(rest) > 0 {
		rep.extras["args"] = rest
	}
	if rep.err != nil {
		rep.extras["message"] = msg
	}

	if usr != nil {
		l.client.SetPerson(usr.ID, usr.Username, usr.Email)
		l.client.SetCustom(map[string]interface{}{"academy_id": usr.AcademyID})
	} else {
		l.client.ClearPerson()
		l.client.SetCustom(nil)
	}
	return rep
}

func (l *RollbarLogger) report(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rep := l.prepare(msg, args)
	if rep.err != nil {
		l.client.ErrorWithExtras(level, rep.err, rep.extras)
		return
	}
	l.client.MessageWithExtras(level, msg, rep.extras)
}

func (l *RollbarLogger) print(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		switch arg.(type) {
		case user.User, *user.User:
			continue
		}
		l.std.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.print("DEBUG", msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.report(rollbar.INFO, msg, args)
	l.print("INFO", msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.report(rollbar.WARN, msg, args)
	l.print("WARN", msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.report(rollbar.ERR, msg, args)
	l.print("ERROR", msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	l.print("FATAL", msg, args)
	l.client.Close()
	l.std.Fatal(msg)
}
