package basestation

// NodeState represents the lifecycle state of a Node.
type NodeState int

const (
	// NodeStateUninitialized is the initial state before NewNode completes.
	NodeStateUninitialized NodeState = iota

	// NodeStateInitialized means the node is created but not started.
	NodeStateInitialized

	// NodeStateRunning means the bootstrap sequence has run. The stack may
	// still be forming its partition.
	NodeStateRunning

	// NodeStateStopped means the node has been shut down.
	NodeStateStopped
)

// String returns a human-readable name for the state.
func (s NodeState) String() string {
	switch s {
	case NodeStateUninitialized:
		return "Uninitialized"
	case NodeStateInitialized:
		return "Initialized"
	case NodeStateRunning:
		return "Running"
	case NodeStateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// CanStart returns true if Start() can be called in this state.
func (s NodeState) CanStart() bool {
	return s == NodeStateInitialized
}

// CanStop returns true if Stop() can be called in this state.
func (s NodeState) CanStop() bool {
	return s == NodeStateInitialized || s == NodeStateRunning
}
