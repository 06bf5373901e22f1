package resource

import (
	"bytes"
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/backkem/basestation/pkg/attribute"
	"github.com/backkem/basestation/pkg/coap"
	"github.com/backkem/basestation/pkg/display"
	"github.com/backkem/basestation/pkg/hal"
	"github.com/backkem/basestation/pkg/thread"
	"github.com/backkem/basestation/pkg/thread/sim"
)

// recordingQueue captures queued display events.
type recordingQueue struct {
	events []display.Event
}

func (q *recordingQueue) Add(ev display.Event) bool {
	q.events = append(q.events, ev)
	return true
}

type fixture struct {
	coap    *sim.CoAP
	handler *Handler
	queue   *recordingQueue
	led     *hal.SimLED
	peer    coap.MessageInfo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	stack := sim.New(sim.Config{})
	f := &fixture{
		coap:  stack.CoAP(),
		queue: &recordingQueue{},
		led:   hal.NewSimLED(),
		peer: coap.MessageInfo{
			PeerAddr: netip.MustParseAddr("fd00::2"),
			PeerPort: 5683,
		},
	}

	h, err := New(Config{
		Server: f.coap,
		Queue:  f.queue,
		LED:    f.led,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := h.Install(); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	f.handler = h
	return f
}

func (f *fixture) deliver(t *testing.T, code coap.Code, typ coap.Type, payload []byte) {
	t.Helper()
	req := sim.NewRequest(code, typ, []byte{0x01, 0x02}, payload)
	if err := f.coap.Deliver(DefaultPath, req, f.peer); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
}

func TestNew_RequiresServer(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrServerRequired) {
		t.Errorf("New() error = %v, want ErrServerRequired", err)
	}
}

func TestInstall(t *testing.T) {
	f := newFixture(t)

	if !f.handler.Installed() {
		t.Error("Installed() = false")
	}
	if !f.coap.HasResource(DefaultPath) {
		t.Errorf("resource %q not registered", DefaultPath)
	}
	if f.coap.Port() != coap.DefaultPort {
		t.Errorf("Port() = %d, want %d", f.coap.Port(), coap.DefaultPort)
	}
	if f.handler.Store().Len() != 0 {
		t.Errorf("store not zero-initialized: %q", f.handler.Store().String())
	}

	if err := f.handler.Install(); !errors.Is(err, ErrAlreadyInstalled) {
		t.Errorf("second Install() error = %v, want ErrAlreadyInstalled", err)
	}
}

func TestInstall_ReusesRunningServer(t *testing.T) {
	stack := sim.New(sim.Config{})
	stack.CoAP().Start(coap.DefaultPort)

	h, _ := New(Config{Server: stack.CoAP()})
	if err := h.Install(); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !stack.CoAP().HasResource(DefaultPath) {
		t.Error("resource not registered")
	}
}

func TestInstall_StartFailureSkipsResource(t *testing.T) {
	stack := sim.New(sim.Config{})
	h, _ := New(Config{Server: stack.CoAP(), Path: "custom/path"})
	h.port = 0

	if err := h.Install(); !errors.Is(err, thread.ErrorInvalidArgs) {
		t.Fatalf("Install() error = %v, want InvalidArgs", err)
	}
	if h.Installed() {
		t.Error("Installed() = true after failure")
	}
	if stack.CoAP().HasResource("custom/path") {
		t.Error("resource registered despite start failure")
	}
}

func TestGet(t *testing.T) {
	f := newFixture(t)
	f.handler.Store().SetString("42")

	f.deliver(t, coap.CodeGet, coap.TypeConfirmable, nil)

	resps := f.coap.Responses()
	if len(resps) != 1 {
		t.Fatalf("responses = %d, want 1", len(resps))
	}
	r := resps[0]
	if r.Type != coap.TypeAcknowledgment {
		t.Errorf("Type = %s, want ACK", r.Type)
	}
	if r.Code != coap.CodeContent {
		t.Errorf("Code = %s, want 2.05", r.Code)
	}
	if string(r.Payload) != "42" {
		t.Errorf("Payload = %q, want %q", r.Payload, "42")
	}
	if !bytes.Equal(r.Token, []byte{0x01, 0x02}) {
		t.Errorf("Token = %x, want 0102", r.Token)
	}
	if f.led.Toggles() != 0 {
		t.Errorf("LED toggled on GET")
	}
	if len(f.queue.events) != 0 {
		t.Errorf("GET queued %d events", len(f.queue.events))
	}
}

func TestPost(t *testing.T) {
	tests := []struct {
		name      string
		typ       coap.Type
		wantResps int
	}{
		{"confirmable", coap.TypeConfirmable, 1},
		{"non-confirmable", coap.TypeNonConfirmable, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.deliver(t, coap.CodePost, tt.typ, []byte("hello"))

			if got := f.handler.Store().String(); got != "hello" {
				t.Errorf("store = %q, want %q", got, "hello")
			}
			if f.led.Toggles() != 1 {
				t.Errorf("LED toggles = %d, want 1", f.led.Toggles())
			}

			if len(f.queue.events) != 1 {
				t.Fatalf("events = %d, want 1", len(f.queue.events))
			}
			ev := f.queue.events[0]
			if ev.Flag != display.EventFlagLog {
				t.Errorf("event flag = %s, want log", ev.Flag)
			}
			if !strings.Contains(ev.Msg, "hello") || !strings.Contains(ev.Msg, "fd00::2") {
				t.Errorf("event msg = %q, want payload and peer", ev.Msg)
			}

			resps := f.coap.Responses()
			if len(resps) != tt.wantResps {
				t.Fatalf("responses = %d, want %d", len(resps), tt.wantResps)
			}
			if tt.wantResps == 1 {
				if resps[0].Code != coap.CodeChanged || resps[0].Type != coap.TypeAcknowledgment {
					t.Errorf("response %s %s, want ACK 2.04", resps[0].Type, resps[0].Code)
				}
				if string(resps[0].Payload) != "hello" {
					t.Errorf("Payload = %q, want %q", resps[0].Payload, "hello")
				}
			}
			if f.coap.LiveMessages() != 0 {
				t.Errorf("LiveMessages() = %d, want 0", f.coap.LiveMessages())
			}
		})
	}
}

func TestPost_TruncatesToCapacity(t *testing.T) {
	f := newFixture(t)
	payload := bytes.Repeat([]byte{'x'}, attribute.Capacity+100)

	f.deliver(t, coap.CodePost, coap.TypeConfirmable, payload)

	if got := f.handler.Store().Len(); got != attribute.MaxValueLen {
		t.Errorf("store Len() = %d, want %d", got, attribute.MaxValueLen)
	}
	resps := f.coap.Responses()
	if len(resps) != 1 || len(resps[0].Payload) != attribute.MaxValueLen {
		t.Fatalf("echo payload length wrong: %d responses", len(resps))
	}
	for _, ev := range f.queue.events {
		if len(ev.Msg) > display.MaxMessageLen {
			t.Errorf("event msg length %d exceeds %d", len(ev.Msg), display.MaxMessageLen)
		}
	}
}

func TestPost_OverwritesPreviousValue(t *testing.T) {
	f := newFixture(t)
	f.deliver(t, coap.CodePost, coap.TypeNonConfirmable, []byte("a longer value"))
	f.deliver(t, coap.CodePost, coap.TypeNonConfirmable, []byte("short"))

	if got := f.handler.Store().String(); got != "short" {
		t.Errorf("store = %q, want %q", got, "short")
	}

	f.deliver(t, coap.CodePost, coap.TypeNonConfirmable, nil)
	if got := f.handler.Store().Len(); got != 0 {
		t.Errorf("store Len() after empty POST = %d, want 0", got)
	}
}

func TestOtherMethods(t *testing.T) {
	f := newFixture(t)
	f.handler.Store().SetString("keep")

	f.deliver(t, coap.CodePut, coap.TypeConfirmable, []byte("nope"))
	f.deliver(t, coap.CodeDelete, coap.TypeNonConfirmable, nil)

	if got := f.handler.Store().String(); got != "keep" {
		t.Errorf("store = %q, want %q", got, "keep")
	}
	resps := f.coap.Responses()
	if len(resps) != 1 {
		t.Fatalf("responses = %d, want 1", len(resps))
	}
	if resps[0].Code != coap.CodeMethodNotAllowed || len(resps[0].Payload) != 0 {
		t.Errorf("response = %s %q, want 4.05 with empty payload", resps[0].Code, resps[0].Payload)
	}
}

func TestResponseFailuresReleaseMessage(t *testing.T) {
	tests := []struct {
		name   string
		inject func(c *sim.CoAP)
	}{
		{"alloc", (*sim.CoAP).FailNextAlloc},
		{"append", (*sim.CoAP).FailNextAppend},
		{"send", (*sim.CoAP).FailNextSend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, code := range []coap.Code{coap.CodeGet, coap.CodePost} {
				f := newFixture(t)
				f.handler.Store().SetString("42")
				tt.inject(f.coap)

				f.deliver(t, code, coap.TypeConfirmable, []byte("hello"))

				if n := len(f.coap.Responses()); n != 0 {
					t.Errorf("%s: responses = %d, want 0", code, n)
				}
				if n := f.coap.LiveMessages(); n != 0 {
					t.Errorf("%s: LiveMessages() = %d, want 0", code, n)
				}
			}
		})
	}
}

func TestPost_StoreUpdatedEvenIfResponseFails(t *testing.T) {
	f := newFixture(t)
	f.coap.FailNextSend()

	f.deliver(t, coap.CodePost, coap.TypeConfirmable, []byte("hello"))

	if got := f.handler.Store().String(); got != "hello" {
		t.Errorf("store = %q, want %q", got, "hello")
	}
	if f.led.Toggles() != 1 {
		t.Errorf("LED toggles = %d, want 1", f.led.Toggles())
	}
}
