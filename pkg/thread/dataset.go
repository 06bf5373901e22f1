package thread

import (
	"encoding/hex"
	"fmt"
)

// MaxNetworkNameLen is the longest network name the stack accepts, in bytes.
const MaxNetworkNameLen = 16

// ExtAddress is an IEEE 802.15.4 extended address (EUI-64 or joiner id).
type ExtAddress [8]byte

// String returns the address as 16 lowercase hex digits.
func (a ExtAddress) String() string {
	return hex.EncodeToString(a[:])
}

// ParseExtAddress parses 16 hex digits into an ExtAddress.
func ParseExtAddress(s string) (ExtAddress, error) {
	var a ExtAddress
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("thread: parse ext address %q: %w", s, err)
	}
	if len(b) != len(a) {
		return a, fmt.Errorf("thread: ext address %q: want %d bytes, got %d", s, len(a), len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Dataset is the operational dataset. It is created and owned by the stack;
// the base station only names it, activates it, and reads the name and channel
// for display.
type Dataset struct {
	NetworkName   string
	Channel       uint16
	PANID         uint16
	ExtendedPANID [8]byte
	NetworkKey    [16]byte
}

// SetNetworkName validates and sets the network name.
func (d *Dataset) SetNetworkName(name string) error {
	if name == "" || len(name) > MaxNetworkNameLen {
		return ErrorInvalidArgs
	}
	d.NetworkName = name
	return nil
}

// IsEmpty returns true for a dataset that was never populated by the stack.
func (d *Dataset) IsEmpty() bool {
	return d == nil || (d.Channel == 0 && d.PANID == 0 && d.NetworkKey == [16]byte{})
}

// ExtendedPANIDString returns the extended PAN id as hex.
func (d *Dataset) ExtendedPANIDString() string {
	return hex.EncodeToString(d.ExtendedPANID[:])
}
