// Package commissioner coordinates the commissioner role of the base station:
// it petitions the stack to become the active commissioner once the node
// leads the partition, and opens a joiner window whenever the joiner button
// is pressed.
package commissioner

import (
	"fmt"
	"time"

	"github.com/backkem/basestation/pkg/display"
	"github.com/backkem/basestation/pkg/hal"
	"github.com/backkem/basestation/pkg/thread"
	"github.com/pion/logging"
)

// Default joiner credentials.
const (
	DefaultPSKd    = "J01NME"
	DefaultTimeout = thread.DefaultJoinerTimeout
)

// Config configures a Coordinator.
type Config struct {
	// Stack is the commissioner surface of the mesh stack. Required.
	Stack thread.Commissioner

	// Sink receives every button change. Optional.
	Sink display.Sink

	// Queue receives joiner records. Optional.
	Queue display.Queue

	// PSKd is the joiner credential. Defaults to DefaultPSKd.
	PSKd string

	// Timeout is how long a registered joiner stays admissible.
	// Defaults to DefaultTimeout.
	Timeout time.Duration

	// JoinerButton is the button that opens a joiner window.
	JoinerButton hal.ButtonID

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Coordinator drives the commissioner. It keeps no per-joiner state; joiner
// records belong to the stack once registered.
type Coordinator struct {
	stack   thread.Commissioner
	sink    display.Sink
	queue   display.Queue
	pskd    string
	timeout time.Duration
	button  hal.ButtonID
	log     logging.LeveledLogger
}

// New creates a Coordinator.
func New(config Config) (*Coordinator, error) {
	if config.Stack == nil {
		return nil, ErrStackRequired
	}
	if config.PSKd == "" {
		config.PSKd = DefaultPSKd
	}
	if err := thread.ValidatePSKd(config.PSKd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPSKd, err)
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Timeout < 0 {
		return nil, ErrInvalidTimeout
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	return &Coordinator{
		stack:   config.Stack,
		sink:    config.Sink,
		queue:   config.Queue,
		pskd:    config.PSKd,
		timeout: config.Timeout,
		button:  config.JoinerButton,
		log:     config.LoggerFactory.NewLogger("commissioner"),
	}, nil
}

// StartCommissioner petitions the stack to become the active commissioner.
// The result is logged and returned; Already is benign and callers never
// abort on an error.
func (c *Coordinator) StartCommissioner() error {
	err := c.stack.CommissionerStart(c.onStateChanged, c.onJoinerEvent)
	return thread.LogResult(c.log, "commissioner start", err)
}

// RegisterJoiner admits any joiner presenting the configured PSKd until the
// timeout elapses.
func (c *Coordinator) RegisterJoiner() error {
	err := c.stack.CommissionerAddJoiner(nil, c.pskd, c.timeout)
	if thread.LogResult(c.log, "start joiner", err) != nil {
		return err
	}
	c.enqueue(display.EventFlagJoiner, "[joiner] waiting for joiner")
	return nil
}

// OnButtonChanged forwards the change to the display and opens a joiner
// window when the joiner button is pressed.
func (c *Coordinator) OnButtonChanged(b hal.Button) {
	id, state := b.ID(), b.State()
	if c.sink != nil {
		c.sink.ButtonChanged(id, state)
	}
	if id != c.button || state != hal.ButtonPressed {
		return
	}
	_ = c.RegisterJoiner()
}

func (c *Coordinator) onStateChanged(state thread.CommissionerState) {
	c.log.Infof("commissioner state: %s", state)
}

func (c *Coordinator) onJoinerEvent(event thread.JoinerEvent, id *thread.ExtAddress) {
	if id != nil {
		c.log.Infof("joiner event: %s (%s)", event, id)
	} else {
		c.log.Infof("joiner event: %s", event)
	}
	c.enqueue(display.EventFlagLog, "[joiner] "+event.String())
}

func (c *Coordinator) enqueue(flag display.EventFlag, msg string) {
	if c.queue == nil {
		return
	}
	if !c.queue.Add(display.NewEvent(flag, msg)) {
		c.log.Debugf("display queue full, oldest event dropped")
	}
}
