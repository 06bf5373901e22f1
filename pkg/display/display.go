// Package display is the base station's user-facing output: a status panel
// (network name, channel, role), a log view, and the event queue the core
// pushes user-visible records into.
//
// The core talks to it only through Sink and Queue. Terminal is the bundled
// implementation that renders to a text console.
package display

import (
	"unicode/utf8"

	"github.com/backkem/basestation/pkg/hal"
)

// MaxMessageLen bounds Event.Msg in bytes.
const MaxMessageLen = 64

// EventFlag tags an Event with its kind.
type EventFlag uint8

const (
	// EventFlagLog is a free-text line for the log view.
	EventFlagLog EventFlag = iota + 1

	// EventFlagJoiner marks joiner lifecycle records.
	EventFlagJoiner
)

// String returns the flag name.
func (f EventFlag) String() string {
	switch f {
	case EventFlagLog:
		return "log"
	case EventFlagJoiner:
		return "joiner"
	default:
		return "unknown"
	}
}

// Event is a record queued for the display.
type Event struct {
	Flag EventFlag
	Msg  string
}

// NewEvent builds an Event, truncating msg to MaxMessageLen bytes without
// splitting a UTF-8 sequence.
func NewEvent(flag EventFlag, msg string) Event {
	return Event{Flag: flag, Msg: truncate(msg, MaxMessageLen)}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Sink receives status updates and log lines.
type Sink interface {
	PrintNetworkChannel(channel int)
	PrintNetworkName(name string)
	PrintDeviceRole(role string)
	PrintLog(msg string)

	// ButtonChanged is called for every button transition, whichever button.
	ButtonChanged(id hal.ButtonID, state hal.ButtonState)
}

// Queue accepts events for asynchronous display. Add must not block.
type Queue interface {
	Add(ev Event) bool
}
