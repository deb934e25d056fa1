// Package daemon runs the persistent browser session: it owns the
// engine lifecycle, serves commands from a transport one at a time,
// and replies before the next command is taken.
package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/automation"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/channel"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/config"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/logging"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/tabs"
)

// faultBackoff is how long the loop pauses after a transport fault
// before trying again.
const faultBackoff = time.Second

// State is the daemon lifecycle phase.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Daemon owns one browser session and serves commands from a transport
// until a stop command arrives or its context is canceled.
type Daemon struct {
	cfg      *config.Config
	listener channel.Listener
	log      *logging.Logger

	mu    sync.Mutex
	state State
}

// New creates a daemon over the given transport. The listener remains
// owned by the caller; the daemon only receives from and replies
// through it.
func New(cfg *config.Config, listener channel.Listener, log *logging.Logger) *Daemon {
	if log == nil {
		log = logging.Discard("daemon")
	}
	return &Daemon{
		cfg:      cfg,
		listener: listener,
		log:      log,
		state:    StateStarting,
	}
}

// State reports the current lifecycle phase.
func (d *Daemon) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Daemon) setState(s State) {
	d.mu.Lock()
	old := d.state
	d.state = s
	d.mu.Unlock()
	d.log.Infof("state %s -> %s", old, s)
}

// Run starts the browser, announces readiness, and serves commands
// until a stop command arrives or ctx is canceled. A startup failure
// is announced through the transport before Run returns it.
func (d *Daemon) Run(ctx context.Context) error {
	d.setState(StateStarting)

	rules, err := d.cfg.Rules()
	if err != nil {
		return d.failStartup(fmt.Errorf("invalid host rules: %w", err))
	}

	engine := automation.NewEngine(automation.Options{
		Headless: d.cfg.Headless,
		Viewport: &automation.Viewport{
			Width:  d.cfg.ViewportWidth,
			Height: d.cfg.ViewportHeight,
		},
		TimeoutMs: d.cfg.DefaultTimeoutMs,
	})
	page, err := engine.Start()
	if err != nil {
		return d.failStartup(fmt.Errorf("failed to start browser: %w", err))
	}

	registry := tabs.NewRegistry(engine.NewPage)
	registry.Register(page, "")
	dispatcher := NewDispatcher(registry, rules, d.cfg.ScreenshotDir, d.log)

	d.setState(StateRunning)
	if err := d.listener.Announce(protocol.Started()); err != nil {
		d.log.Errorf("failed to announce readiness: %v", err)
	}
	d.log.Infof("browser daemon ready")

	d.serve(ctx, dispatcher)

	d.setState(StateStopping)
	closeErr := engine.Close()
	d.setState(StateStopped)
	if closeErr != nil {
		return fmt.Errorf("browser teardown: %w", closeErr)
	}
	return nil
}

// failStartup announces a startup failure through the transport so a
// waiting client sees the reason, then returns it.
func (d *Daemon) failStartup(err error) error {
	d.log.Errorf("startup failed: %v", err)
	if aerr := d.listener.Announce(protocol.Error(err)); aerr != nil {
		d.log.Errorf("failed to announce startup failure: %v", aerr)
	}
	d.setState(StateStopped)
	return err
}

// serve receives and answers commands one at a time. Transport faults
// are logged and retried after a backoff instead of killing the
// daemon.
func (d *Daemon) serve(ctx context.Context, dispatcher *Dispatcher) {
	for {
		ex, err := d.listener.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				d.log.Infof("shutdown signal received")
				return
			}
			d.log.Errorf("transport fault: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(faultBackoff):
			}
			continue
		}

		res, stop := d.handle(dispatcher, ex.Payload)
		if err := ex.Reply(res); err != nil {
			d.log.Errorf("failed to reply: %v", err)
		}
		if stop {
			d.log.Infof("stop command received")
			return
		}
	}
}

// handle decodes and dispatches one raw command. The second return is
// true when the command asks the daemon to stop. A payload that does
// not decode still yields an error result, so the sender always gets
// an answer and the command is consumed.
func (d *Daemon) handle(dispatcher *Dispatcher, payload []byte) (protocol.Result, bool) {
	cmd, err := protocol.DecodeCommand(payload)
	if err != nil {
		d.log.Warnf("bad command: %v", err)
		return protocol.Error(err), false
	}

	res := dispatcher.Dispatch(cmd)
	d.log.Infof("executed %s: %s", cmd.Type, res.Message)
	return res, cmd.Type == protocol.TypeStop
}
