// Package sim is an in-memory Thread stack for running and testing the base
// station without a radio.
//
// It models the callback contracts of a real stack: a single task loop on which
// every callback runs, coalesced change notifications, a leader-forming role
// engine, an on-mesh commissioner with joiner entries, and a CoAP service that
// records responses instead of encoding them.
//
// Core callbacks are always invoked from Process or Run. Public methods may be
// called from any goroutine; state is guarded internally.
package sim

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/backkem/basestation/pkg/thread"
	"github.com/pion/logging"
)

// Channel range of the 2.4 GHz O-QPSK PHY.
const (
	MinChannel = 11
	MaxChannel = 26
)

// Config configures a Stack.
type Config struct {
	// FormationDelay is how long the role engine stays detached before
	// forming a partition and becoming leader. Zero promotes on the next task.
	FormationDelay time.Duration

	// Rand is the entropy source for dataset credentials. Defaults to crypto/rand.
	Rand io.Reader

	// Now returns the current time, for joiner expiry. Defaults to time.Now.
	Now func() time.Time

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Stack is a simulated Thread stack. It implements thread.Instance; its CoAP
// service is available from CoAP.
type Stack struct {
	log            logging.LeveledLogger
	rand           io.Reader
	now            func() time.Time
	formationDelay time.Duration

	// Task loop
	qmu   sync.Mutex
	tasks []func()
	wake  chan struct{}

	// Stack state
	mu               sync.Mutex
	stateCb          thread.StateChangedFunc
	pending          thread.ChangedFlags
	deliveryQueued   bool
	active           *thread.Dataset
	ip6Enabled       bool
	threadEnabled    bool
	role             thread.DeviceRole
	joinerState      thread.JoinerState
	commState        thread.CommissionerState
	commStateCb      thread.CommissionerStateFunc
	joinerCb         thread.JoinerEventFunc
	joiners          []*joinerEntry
	coap             coapState
	coapSvc          *CoAP
	formationPending bool
}

var _ thread.Instance = (*Stack)(nil)

// New creates a Stack with the role engine disabled.
func New(config Config) *Stack {
	if config.Rand == nil {
		config.Rand = rand.Reader
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	s := &Stack{
		log:            config.LoggerFactory.NewLogger("thread-sim"),
		rand:           config.Rand,
		now:            config.Now,
		formationDelay: config.FormationDelay,
		wake:           make(chan struct{}, 1),
		role:           thread.RoleDisabled,
		coap:           newCoapState(),
	}
	s.coapSvc = &CoAP{s: s}
	return s
}

// Post schedules fn to run on the stack loop.
func (s *Stack) Post(fn func()) {
	s.qmu.Lock()
	s.tasks = append(s.tasks, fn)
	s.qmu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Process runs queued tasks, including tasks they queue, until the queue is
// empty. It returns the number of tasks run.
func (s *Stack) Process() int {
	n := 0
	for {
		s.qmu.Lock()
		if len(s.tasks) == 0 {
			s.qmu.Unlock()
			return n
		}
		fn := s.tasks[0]
		s.tasks[0] = nil
		s.tasks = s.tasks[1:]
		s.qmu.Unlock()

		fn()
		n++
	}
}

// Run processes tasks until ctx is done.
func (s *Stack) Run(ctx context.Context) error {
	for {
		s.Process()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
		}
	}
}

// notify accumulates flags and schedules a single delivery for them.
// Must be called with mu held.
func (s *Stack) notifyLocked(flags thread.ChangedFlags) {
	s.pending |= flags
	if s.deliveryQueued {
		return
	}
	s.deliveryQueued = true
	s.Post(s.deliver)
}

func (s *Stack) deliver() {
	s.mu.Lock()
	flags := s.pending
	cb := s.stateCb
	s.pending = 0
	s.deliveryQueued = false
	s.mu.Unlock()

	if cb != nil && flags != 0 {
		s.log.Debugf("state changed %s", flags)
		cb(flags)
	}
}

// SetStateChangedCallback implements thread.Instance. Only one callback can be
// registered.
func (s *Stack) SetStateChangedCallback(cb thread.StateChangedFunc) error {
	if cb == nil {
		return thread.ErrorInvalidArgs
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stateCb != nil {
		return thread.ErrorAlready
	}
	s.stateCb = cb
	return nil
}

// DatasetCreateNewNetwork implements thread.Instance.
func (s *Stack) DatasetCreateNewNetwork() (*thread.Dataset, error) {
	var raw [2 + 2 + 8 + 16]byte
	if _, err := io.ReadFull(s.rand, raw[:]); err != nil {
		s.log.Warnf("dataset entropy: %v", err)
		return nil, thread.ErrorFailed
	}

	ds := &thread.Dataset{
		Channel: MinChannel + binary.BigEndian.Uint16(raw[0:2])%(MaxChannel-MinChannel+1),
		PANID:   binary.BigEndian.Uint16(raw[2:4]),
	}
	// 0xffff is the broadcast PAN id.
	if ds.PANID == 0xffff {
		ds.PANID = 0xfffe
	}
	copy(ds.ExtendedPANID[:], raw[4:12])
	copy(ds.NetworkKey[:], raw[12:28])
	ds.NetworkName = fmt.Sprintf("OpenThread-%04x", ds.PANID)

	s.log.Debugf("created dataset channel=%d panid=0x%04x", ds.Channel, ds.PANID)
	return ds, nil
}

// DatasetSetActive implements thread.Instance.
func (s *Stack) DatasetSetActive(ds *thread.Dataset) error {
	if ds.IsEmpty() {
		return thread.ErrorInvalidArgs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flags := thread.ChangedActiveDataset
	if s.active == nil || s.active.NetworkName != ds.NetworkName {
		flags |= thread.ChangedNetworkName
	}
	if s.active == nil || s.active.Channel != ds.Channel {
		flags |= thread.ChangedChannel
	}
	if s.role.IsAttached() {
		flags |= thread.ChangedNetData
	}

	cp := *ds
	s.active = &cp
	s.notifyLocked(flags)
	return nil
}

// DatasetGetActive implements thread.StateReader.
func (s *Stack) DatasetGetActive() (*thread.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil, thread.ErrorNotFound
	}
	cp := *s.active
	return &cp, nil
}

// IP6SetEnabled implements thread.Instance.
func (s *Stack) IP6SetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !enabled && s.threadEnabled {
		return thread.ErrorInvalidState
	}
	if s.ip6Enabled == enabled {
		return nil
	}
	s.ip6Enabled = enabled
	s.notifyLocked(thread.ChangedNetifState)
	return nil
}

// IP6IsEnabled implements thread.StateReader.
func (s *Stack) IP6IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ip6Enabled
}

// ThreadSetEnabled implements thread.Instance. Enabling detaches first and
// forms a partition as leader after FormationDelay.
func (s *Stack) ThreadSetEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !enabled {
		if !s.threadEnabled {
			return nil
		}
		s.threadEnabled = false
		s.formationPending = false
		s.commState = thread.CommissionerDisabled
		s.joiners = nil
		s.setRoleLocked(thread.RoleDisabled)
		return nil
	}

	if s.threadEnabled {
		return nil
	}
	if !s.ip6Enabled || s.active == nil {
		return thread.ErrorInvalidState
	}

	s.threadEnabled = true
	s.setRoleLocked(thread.RoleDetached)
	s.formationPending = true

	if s.formationDelay > 0 {
		time.AfterFunc(s.formationDelay, func() { s.Post(s.formPartition) })
	} else {
		s.Post(s.formPartition)
	}
	return nil
}

func (s *Stack) formPartition() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.formationPending {
		return
	}
	s.formationPending = false
	s.log.Info("formed new partition")
	s.setRoleLocked(thread.RoleLeader)
	s.notifyLocked(thread.ChangedNetData | thread.ChangedPartitionID)
}

// SetRole forces a role change, as if the partition changed around the node.
func (s *Stack) SetRole(role thread.DeviceRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.threadEnabled && role != thread.RoleDisabled {
		return thread.ErrorInvalidState
	}
	s.formationPending = false
	if !role.IsAttached() && s.commState != thread.CommissionerDisabled {
		s.commState = thread.CommissionerDisabled
		s.postCommissionerStateLocked(thread.CommissionerDisabled)
	}
	s.setRoleLocked(role)
	return nil
}

func (s *Stack) setRoleLocked(role thread.DeviceRole) {
	if s.role == role {
		return
	}
	s.log.Debugf("role %s -> %s", s.role, role)
	s.role = role
	s.notifyLocked(thread.ChangedRole)
}

// DeviceRole implements thread.StateReader.
func (s *Stack) DeviceRole() thread.DeviceRole {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// JoinerState implements thread.StateReader. The simulated node never acts as
// a joiner itself.
func (s *Stack) JoinerState() thread.JoinerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joinerState
}

// Notify delivers flags to the registered callback as if the stack raised them.
func (s *Stack) Notify(flags thread.ChangedFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(flags)
}
