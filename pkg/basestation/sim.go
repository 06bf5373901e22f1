package basestation

import (
	"io"
	"net/netip"

	"github.com/backkem/basestation/pkg/coap"
	"github.com/backkem/basestation/pkg/discovery"
	"github.com/backkem/basestation/pkg/display"
	"github.com/backkem/basestation/pkg/hal"
	"github.com/backkem/basestation/pkg/resource"
	"github.com/backkem/basestation/pkg/thread/sim"
	"github.com/pion/logging"
)

// SimConfig configures a SimHarness.
type SimConfig struct {
	Config

	// Output receives the terminal display. Defaults to io.Discard.
	Output io.Writer

	// Stack configures the simulated stack.
	Stack sim.Config

	// AdvertiserFactory is passed through to the node.
	AdvertiserFactory discovery.MDNSServerFactory

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// SimHarness is a node running on the simulated stack with a terminal display,
// a simulated LED and two simulated buttons.
type SimHarness struct {
	Node     *Node
	Stack    *sim.Stack
	Terminal *display.Terminal
	LED      *hal.SimLED
	Buttons  [2]*hal.SimButton
}

// SimPeer is the peer address used for requests injected by the harness.
var SimPeer = coap.MessageInfo{
	PeerAddr: netip.MustParseAddr("fd00:db8::1"),
	PeerPort: coap.DefaultPort,
}

// TestConfig returns a Config suitable for tests: defaults with logging off.
func TestConfig() Config {
	c := DefaultConfig()
	c.LogLevel = "disabled"
	return c
}

// NewSimHarness builds a node on a new simulated stack. The node is not
// started.
func NewSimHarness(config SimConfig) (*SimHarness, error) {
	if config.Output == nil {
		config.Output = io.Discard
	}
	if config.Stack.LoggerFactory == nil {
		config.Stack.LoggerFactory = config.LoggerFactory
	}

	h := &SimHarness{
		Stack:    sim.New(config.Stack),
		Terminal: display.NewTerminal(display.TerminalConfig{Writer: config.Output}),
		LED:      hal.NewSimLED(),
		Buttons:  [2]*hal.SimButton{hal.NewSimButton(hal.Button0), hal.NewSimButton(hal.Button1)},
	}

	node, err := NewNode(NodeConfig{
		Config:            config.Config,
		Stack:             h.Stack,
		CoAP:              h.Stack.CoAP(),
		Display:           h.Terminal,
		Queue:             h.Terminal.Queue(),
		LED:               h.LED,
		AdvertiserFactory: config.AdvertiserFactory,
		LoggerFactory:     config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}
	h.Node = node
	return h, nil
}

// Button returns the simulated button id, or nil.
func (h *SimHarness) Button(id hal.ButtonID) *hal.SimButton {
	if int(id) < 0 || int(id) >= len(h.Buttons) {
		return nil
	}
	return h.Buttons[id]
}

// Press presses a button and reports the edge to the node. Must be called on
// the stack loop.
func (h *SimHarness) Press(id hal.ButtonID) {
	if b := h.Button(id); b != nil {
		b.Press()
		h.Node.OnButtonChanged(b)
	}
}

// Release releases a button and reports the edge to the node. Must be called
// on the stack loop.
func (h *SimHarness) Release(id hal.ButtonID) {
	if b := h.Button(id); b != nil {
		b.Release()
		h.Node.OnButtonChanged(b)
	}
}

// Request delivers a request for question/answer from SimPeer. Must be called
// on the stack loop.
func (h *SimHarness) Request(code coap.Code, typ coap.Type, payload []byte) error {
	req := sim.NewRequest(code, typ, []byte{0xb5}, payload)
	return h.Stack.CoAP().Deliver(resource.DefaultPath, req, SimPeer)
}
