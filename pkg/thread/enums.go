// Package thread defines the contract between the base station and the Thread
// network stack it runs on.
//
// The stack itself (dataset management, IPv6 interface, MLE role engine,
// commissioner and joiner protocols) is an external collaborator. This package
// only carries the types the base station observes and the operations it calls,
// plus the log-and-continue helper used for every stack call.
package thread

import "fmt"

// ChangedFlags is the bitmask delivered with a state-changed notification.
// Multiple bits may be set in a single delivery.
type ChangedFlags uint32

// Changed flag bits. Values follow the stack's notifier numbering.
const (
	ChangedIP6AddressAdded   ChangedFlags = 1 << 0
	ChangedIP6AddressRemoved ChangedFlags = 1 << 1
	ChangedRole              ChangedFlags = 1 << 2
	ChangedLinkLocalAddr     ChangedFlags = 1 << 3
	ChangedMeshLocalAddr     ChangedFlags = 1 << 4
	ChangedPartitionID       ChangedFlags = 1 << 7
	ChangedNetData           ChangedFlags = 1 << 9
	ChangedChannel           ChangedFlags = 1 << 14
	ChangedPANID             ChangedFlags = 1 << 15
	ChangedNetworkName       ChangedFlags = 1 << 16
	ChangedExtPANID          ChangedFlags = 1 << 17
	ChangedNetworkKey        ChangedFlags = 1 << 18
	ChangedCommissionerState ChangedFlags = 1 << 23
	ChangedNetifState        ChangedFlags = 1 << 24
	ChangedJoinerState       ChangedFlags = 1 << 27
	ChangedActiveDataset     ChangedFlags = 1 << 28
	ChangedPendingDataset    ChangedFlags = 1 << 29
)

// Has reports whether every bit of f is set.
func (c ChangedFlags) Has(f ChangedFlags) bool {
	return c&f == f && f != 0
}

// String returns the hex representation of the mask.
func (c ChangedFlags) String() string {
	return fmt.Sprintf("0x%08x", uint32(c))
}

// DeviceRole is the node's role in the Thread partition.
type DeviceRole int

const (
	RoleDisabled DeviceRole = iota
	RoleDetached
	RoleChild
	RoleRouter
	RoleLeader
)

// String returns the role name.
func (r DeviceRole) String() string {
	switch r {
	case RoleDisabled:
		return "disabled"
	case RoleDetached:
		return "detached"
	case RoleChild:
		return "child"
	case RoleRouter:
		return "router"
	case RoleLeader:
		return "leader"
	default:
		return "invalid"
	}
}

// IsAttached returns true for roles that belong to a partition.
func (r DeviceRole) IsAttached() bool {
	return r == RoleChild || r == RoleRouter || r == RoleLeader
}

// CommissionerState is the state of the on-mesh commissioner.
type CommissionerState int

const (
	CommissionerDisabled CommissionerState = iota
	CommissionerPetitioning
	CommissionerActive
)

// String returns the state name.
func (s CommissionerState) String() string {
	switch s {
	case CommissionerDisabled:
		return "disabled"
	case CommissionerPetitioning:
		return "petition"
	case CommissionerActive:
		return "active"
	default:
		return "unknown"
	}
}

// JoinerEvent is reported by the commissioner for each joiner session.
type JoinerEvent int

const (
	JoinerEventStart JoinerEvent = iota
	JoinerEventConnected
	JoinerEventFinalize
	JoinerEventEnd
	JoinerEventRemoved
)

// String returns the event name.
func (e JoinerEvent) String() string {
	switch e {
	case JoinerEventStart:
		return "start"
	case JoinerEventConnected:
		return "connected"
	case JoinerEventFinalize:
		return "finalize"
	case JoinerEventEnd:
		return "end"
	case JoinerEventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// JoinerState is the state of this node's own joiner role.
type JoinerState int

const (
	JoinerStateIdle JoinerState = iota
	JoinerStateDiscover
	JoinerStateConnecting
	JoinerStateConnected
	JoinerStateEntrust
	JoinerStateJoined
)

// String returns the state name.
func (s JoinerState) String() string {
	switch s {
	case JoinerStateIdle:
		return "idle"
	case JoinerStateDiscover:
		return "discover"
	case JoinerStateConnecting:
		return "connecting"
	case JoinerStateConnected:
		return "connected"
	case JoinerStateEntrust:
		return "entrust"
	case JoinerStateJoined:
		return "joined"
	default:
		return "unknown"
	}
}
