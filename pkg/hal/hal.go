// Package hal describes the physical inputs and outputs of the base station
// board: push buttons and a status LED.
package hal

import "sync"

// ButtonID identifies a physical button.
type ButtonID int

const (
	Button0 ButtonID = iota
	Button1
)

// ButtonState is the debounced state of a button.
type ButtonState int

const (
	ButtonReleased ButtonState = iota
	ButtonPressed
)

// String returns the state name.
func (s ButtonState) String() string {
	if s == ButtonPressed {
		return "pressed"
	}
	return "released"
}

// Button is a button handle as passed to change callbacks.
type Button interface {
	ID() ButtonID
	State() ButtonState
}

// LED is a single indicator LED.
type LED interface {
	Toggle()
}

// SimButton is an in-memory button.
type SimButton struct {
	mu    sync.Mutex
	id    ButtonID
	state ButtonState
}

// NewSimButton returns a released button.
func NewSimButton(id ButtonID) *SimButton {
	return &SimButton{id: id}
}

// ID implements Button.
func (b *SimButton) ID() ButtonID {
	return b.id
}

// State implements Button.
func (b *SimButton) State() ButtonState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Press sets the button to pressed.
func (b *SimButton) Press() {
	b.set(ButtonPressed)
}

// Release sets the button to released.
func (b *SimButton) Release() {
	b.set(ButtonReleased)
}

func (b *SimButton) set(s ButtonState) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// SimLED is an in-memory LED that counts toggles.
type SimLED struct {
	mu      sync.Mutex
	on      bool
	toggles int
}

// NewSimLED returns an LED that is off.
func NewSimLED() *SimLED {
	return &SimLED{}
}

// Toggle implements LED.
func (l *SimLED) Toggle() {
	l.mu.Lock()
	l.on = !l.on
	l.toggles++
	l.mu.Unlock()
}

// On reports whether the LED is lit.
func (l *SimLED) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Toggles returns how many times Toggle was called.
func (l *SimLED) Toggles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.toggles
}
