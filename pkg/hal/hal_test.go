package hal

import "testing"

func TestSimButton(t *testing.T) {
	b := NewSimButton(Button1)
	if b.ID() != Button1 {
		t.Errorf("ID() = %d, want %d", b.ID(), Button1)
	}
	if b.State() != ButtonReleased {
		t.Errorf("initial State() = %s, want released", b.State())
	}

	b.Press()
	if b.State() != ButtonPressed {
		t.Errorf("State() after Press = %s, want pressed", b.State())
	}

	b.Release()
	if b.State() != ButtonReleased {
		t.Errorf("State() after Release = %s, want released", b.State())
	}
}

func TestSimLED(t *testing.T) {
	l := NewSimLED()
	if l.On() {
		t.Error("new LED is on")
	}

	l.Toggle()
	if !l.On() || l.Toggles() != 1 {
		t.Errorf("after one toggle: On() = %v, Toggles() = %d", l.On(), l.Toggles())
	}

	l.Toggle()
	if l.On() || l.Toggles() != 2 {
		t.Errorf("after two toggles: On() = %v, Toggles() = %d", l.On(), l.Toggles())
	}
}
