package basestation

import (
	"sync"

	"github.com/backkem/basestation/pkg/attribute"
	"github.com/backkem/basestation/pkg/coap"
	"github.com/backkem/basestation/pkg/commissioner"
	"github.com/backkem/basestation/pkg/discovery"
	"github.com/backkem/basestation/pkg/display"
	"github.com/backkem/basestation/pkg/hal"
	"github.com/backkem/basestation/pkg/resource"
	"github.com/backkem/basestation/pkg/router"
	"github.com/backkem/basestation/pkg/thread"
	"github.com/pion/logging"
)

// NodeConfig holds everything a Node is built from.
type NodeConfig struct {
	Config

	// Stack is the Thread stack. Required.
	Stack thread.Instance

	// CoAP is the stack's CoAP service. Required.
	CoAP coap.Server

	// Display receives status updates and button changes. Optional.
	Display display.Sink

	// Queue receives user-visible events. Optional.
	Queue display.Queue

	// LED is toggled on every POST. Optional.
	LED hal.LED

	// AdvertiserFactory registers the border agent record when
	// Config.Advertise is set. If nil, zeroconf is used.
	AdvertiserFactory discovery.MDNSServerFactory

	// OnStateChanged is called after every lifecycle transition. Optional.
	OnStateChanged func(state NodeState)

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Node is a base station.
type Node struct {
	mu    sync.RWMutex
	state NodeState

	config       NodeConfig
	stack        thread.Instance
	log          logging.LeveledLogger
	router       *router.Router
	commissioner *commissioner.Coordinator
	resource     *resource.Handler
	advertiser   *discovery.Advertiser
}

// NewNode creates a Node. Nothing touches the stack until Start.
func NewNode(config NodeConfig) (*Node, error) {
	if config.Stack == nil {
		return nil, ErrStackRequired
	}
	if config.CoAP == nil {
		return nil, ErrCoAPRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	n := &Node{
		state:  NodeStateUninitialized,
		config: config,
		stack:  config.Stack,
		log:    config.LoggerFactory.NewLogger("basestation"),
	}

	var err error
	n.resource, err = resource.New(resource.Config{
		Server:        config.CoAP,
		Port:          config.CoAPPort,
		Queue:         config.Queue,
		LED:           config.LED,
		LoggerFactory: config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}

	n.commissioner, err = commissioner.New(commissioner.Config{
		Stack:         config.Stack,
		Sink:          config.Display,
		Queue:         config.Queue,
		PSKd:          config.JoinerPSKd,
		Timeout:       config.JoinerTimeout,
		JoinerButton:  config.JoinerButton,
		LoggerFactory: config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}

	if config.Advertise {
		n.advertiser, err = discovery.NewAdvertiser(discovery.AdvertiserConfig{
			Port:          config.AdvertisePort,
			ServerFactory: config.AdvertiserFactory,
			LoggerFactory: config.LoggerFactory,
		})
		if err != nil {
			return nil, err
		}
	}

	n.router, err = router.New(router.Config{
		Stack:         config.Stack,
		Sink:          config.Display,
		Commissioner:  n.commissioner,
		Resource:      n.resource,
		OnLeader:      n.onLeader,
		LoggerFactory: config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}

	n.state = NodeStateInitialized
	return n, nil
}

// Start runs the bootstrap sequence. It must be called on the stack loop.
func (n *Node) Start() error {
	n.mu.Lock()
	if !n.state.CanStart() {
		state := n.state
		n.mu.Unlock()
		if state == NodeStateStopped {
			return ErrAlreadyStopped
		}
		return ErrAlreadyStarted
	}
	n.state = NodeStateRunning
	n.mu.Unlock()

	n.bootstrap()
	n.log.Infof("node started, network=%s", n.config.NetworkName)
	n.notifyState(NodeStateRunning)
	return nil
}

// bootstrap brings the network up. Every step is attempted regardless of the
// previous step's result.
func (n *Node) bootstrap() {
	log := n.log

	_ = thread.LogResult(log, "registering event callback",
		n.stack.SetStateChangedCallback(n.router.HandleStateChanged))

	ds, err := n.stack.DatasetCreateNewNetwork()
	_ = thread.LogResult(log, "creating new network", err)
	if ds == nil {
		ds = &thread.Dataset{}
	}

	_ = thread.LogResult(log, "setting network name", ds.SetNetworkName(n.config.NetworkName))
	_ = thread.LogResult(log, "setting active dataset", n.stack.DatasetSetActive(ds))
	_ = thread.LogResult(log, "enabling ipv6 interface", n.stack.IP6SetEnabled(true))
	_ = thread.LogResult(log, "enabling thread", n.stack.ThreadSetEnabled(true))
}

// Stop withdraws the border agent record and disables Thread. It must be called
// on the stack loop.
func (n *Node) Stop() error {
	n.mu.Lock()
	if !n.state.CanStop() {
		n.mu.Unlock()
		return ErrAlreadyStopped
	}
	wasRunning := n.state == NodeStateRunning
	n.state = NodeStateStopped
	n.mu.Unlock()

	if n.advertiser != nil {
		if err := n.advertiser.Close(); err != nil {
			n.log.Warnf("closing advertiser: %v", err)
		}
	}
	if wasRunning {
		_ = thread.LogResult(n.log, "disabling thread", n.stack.ThreadSetEnabled(false))
	}

	n.log.Info("node stopped")
	n.notifyState(NodeStateStopped)
	return nil
}

// OnButtonChanged handles a button edge. It must be called on the stack loop.
func (n *Node) OnButtonChanged(b hal.Button) {
	n.commissioner.OnButtonChanged(b)
}

// onLeader publishes the border agent record the first time the node leads.
func (n *Node) onLeader() {
	if n.advertiser == nil || n.advertiser.IsAdvertising() {
		return
	}

	ds, err := n.stack.DatasetGetActive()
	if err != nil {
		n.log.Warnf("border agent: get active dataset: %s", thread.ErrorString(err))
		return
	}

	err = n.advertiser.StartBorderAgent(discovery.BorderAgentTXT{
		NetworkName:   ds.NetworkName,
		ExtendedPANID: ds.ExtendedPANID,
		VendorName:    n.config.VendorName,
		ModelName:     n.config.ModelName,
	})
	if err != nil {
		n.log.Warnf("border agent: %v", err)
	}
}

func (n *Node) notifyState(state NodeState) {
	if n.config.OnStateChanged != nil {
		n.config.OnStateChanged(state)
	}
}

// State returns the current node state. Safe from any goroutine.
func (n *Node) State() NodeState {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Config returns the node configuration.
func (n *Node) Config() Config {
	return n.config.Config
}

// Store returns the question/answer attribute store.
func (n *Node) Store() *attribute.Store {
	return n.resource.Store()
}

// Resource returns the question/answer handler.
func (n *Node) Resource() *resource.Handler {
	return n.resource
}

// Commissioner returns the commissioner coordinator.
func (n *Node) Commissioner() *commissioner.Coordinator {
	return n.commissioner
}

// Router returns the network event router.
func (n *Node) Router() *router.Router {
	return n.router
}

// Advertiser returns the border agent advertiser, or nil when advertising is
// disabled.
func (n *Node) Advertiser() *discovery.Advertiser {
	return n.advertiser
}

// LoggerFactory returns the logger factory used by the node.
func (n *Node) LoggerFactory() logging.LoggerFactory {
	return n.config.LoggerFactory
}
