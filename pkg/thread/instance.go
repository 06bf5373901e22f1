package thread

import "time"

// StateChangedFunc receives coalesced change notifications.
type StateChangedFunc func(flags ChangedFlags)

// CommissionerStateFunc receives commissioner state transitions.
type CommissionerStateFunc func(state CommissionerState)

// JoinerEventFunc receives per-joiner session events. id is nil when the
// stack does not know the joiner's identity yet.
type JoinerEventFunc func(event JoinerEvent, id *ExtAddress)

// StateReader is the read-only view of the stack the event router needs.
type StateReader interface {
	// DatasetGetActive returns a copy of the active dataset.
	DatasetGetActive() (*Dataset, error)

	// DeviceRole returns the current role.
	DeviceRole() DeviceRole

	// IP6IsEnabled reports whether the IPv6 interface is up.
	IP6IsEnabled() bool

	// JoinerState returns the state of this node's joiner role.
	JoinerState() JoinerState
}

// Commissioner is the commissioner surface of the stack.
type Commissioner interface {
	// CommissionerStart petitions to become the active commissioner. Both
	// callbacks are invoked from the stack's event loop.
	CommissionerStart(onState CommissionerStateFunc, onJoiner JoinerEventFunc) error

	// CommissionerAddJoiner allows a joiner to authenticate with pskd until
	// timeout elapses. A nil id accepts any joiner.
	CommissionerAddJoiner(id *ExtAddress, pskd string, timeout time.Duration) error

	// CommissionerState returns the current commissioner state.
	CommissionerState() CommissionerState
}

// Instance is the full stack surface used by the base station.
type Instance interface {
	StateReader
	Commissioner

	// SetStateChangedCallback registers the change notification callback.
	SetStateChangedCallback(cb StateChangedFunc) error

	// DatasetCreateNewNetwork generates a fresh dataset with random
	// credentials. It does not activate it.
	DatasetCreateNewNetwork() (*Dataset, error)

	// DatasetSetActive commits ds as the active dataset.
	DatasetSetActive(ds *Dataset) error

	// IP6SetEnabled brings the IPv6 interface up or down.
	IP6SetEnabled(enabled bool) error

	// ThreadSetEnabled starts or stops the role engine.
	ThreadSetEnabled(enabled bool) error
}
