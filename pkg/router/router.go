// Package router reacts to the stack's state-changed notifications.
//
// Every notification carries a bitmask. The router tests each recognized bit
// independently, in a fixed order, and runs its action: refreshing the status
// display, and on becoming leader starting the commissioner and the CoAP
// resource. It keeps no state of its own; everything it shows is read back
// from the stack.
package router

import (
	"github.com/backkem/basestation/pkg/display"
	"github.com/backkem/basestation/pkg/thread"
	"github.com/pion/logging"
)

// CommissionerStarter starts the commissioner. Implemented by
// commissioner.Coordinator.
type CommissionerStarter interface {
	StartCommissioner() error
}

// ResourceInstaller serves the CoAP resource. Implemented by
// resource.Handler.
type ResourceInstaller interface {
	Install() error
}

// Config configures a Router.
type Config struct {
	// Stack is read for the active dataset, role and interface state. Required.
	Stack thread.StateReader

	// Sink receives status updates. Optional.
	Sink display.Sink

	// Commissioner is started when the node becomes leader. Optional.
	Commissioner CommissionerStarter

	// Resource is installed when the node becomes leader. Optional.
	Resource ResourceInstaller

	// OnLeader runs after the commissioner and resource on every leader
	// notification. Optional.
	OnLeader func()

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

type route struct {
	flag   thread.ChangedFlags
	handle func(r *Router)
}

// routes is the dispatch order.
var routes = []route{
	{thread.ChangedActiveDataset, (*Router).onActiveDataset},
	{thread.ChangedNetData, (*Router).onNetData},
	{thread.ChangedNetworkName, (*Router).onNetworkName},
	{thread.ChangedNetifState, (*Router).onNetifState},
	{thread.ChangedRole, (*Router).onRole},
	{thread.ChangedJoinerState, (*Router).onJoinerState},
}

var handledFlags = func() thread.ChangedFlags {
	var all thread.ChangedFlags
	for _, r := range routes {
		all |= r.flag
	}
	return all
}()

// Router is the network event router.
type Router struct {
	stack        thread.StateReader
	sink         display.Sink
	commissioner CommissionerStarter
	resource     ResourceInstaller
	onLeader     func()
	log          logging.LeveledLogger
}

// New creates a Router.
func New(config Config) (*Router, error) {
	if config.Stack == nil {
		return nil, ErrStackRequired
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Router{
		stack:        config.Stack,
		sink:         config.Sink,
		commissioner: config.Commissioner,
		resource:     config.Resource,
		onLeader:     config.OnLeader,
		log:          config.LoggerFactory.NewLogger("router"),
	}, nil
}

// HandleStateChanged handles one notification. It has the signature of
// thread.StateChangedFunc and must run on the stack loop.
func (r *Router) HandleStateChanged(flags thread.ChangedFlags) {
	for _, rt := range routes {
		if flags.Has(rt.flag) {
			rt.handle(r)
		}
	}
	if rest := flags &^ handledFlags; rest != 0 {
		r.log.Debugf("ignoring state changes %s", rest)
	}
}

func (r *Router) onActiveDataset() {
	r.log.Info("active dataset changed")
}

func (r *Router) onNetData() {
	r.log.Info("network data changed")
	ds, err := r.stack.DatasetGetActive()
	if err != nil {
		r.log.Warnf("get active dataset: %s", thread.ErrorString(err))
		return
	}
	if r.sink != nil {
		r.sink.PrintNetworkChannel(int(ds.Channel))
	}
}

func (r *Router) onNetworkName() {
	ds, err := r.stack.DatasetGetActive()
	if err != nil {
		r.log.Warnf("get active dataset: %s", thread.ErrorString(err))
		return
	}
	r.log.Infof("network name changed: %s", ds.NetworkName)
	if r.sink != nil {
		r.sink.PrintNetworkName(ds.NetworkName)
	}
}

func (r *Router) onNetifState() {
	r.log.Infof("network interface state changed: %t", r.stack.IP6IsEnabled())
}

func (r *Router) onRole() {
	role := r.stack.DeviceRole()
	r.log.Infof("device role changed: %s", role)
	if r.sink != nil {
		r.sink.PrintDeviceRole(role.String())
	}
	if role != thread.RoleLeader {
		return
	}

	// Both report their own result; a failure here must not stop the other.
	if r.commissioner != nil {
		_ = r.commissioner.StartCommissioner()
	}
	if r.resource != nil {
		_ = r.resource.Install()
	}
	if r.onLeader != nil {
		r.onLeader()
	}
}

func (r *Router) onJoinerState() {
	state := r.stack.JoinerState()
	r.log.Infof("joiner state changed: %d (%s)", int(state), state)
}
