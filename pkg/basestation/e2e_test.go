package basestation

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/backkem/basestation/pkg/coap"
	"github.com/backkem/basestation/pkg/discovery"
	"github.com/backkem/basestation/pkg/display"
	"github.com/backkem/basestation/pkg/hal"
	"github.com/backkem/basestation/pkg/thread"
	"github.com/backkem/basestation/pkg/thread/sim"
	"github.com/pion/logging"
	"github.com/pion/transport/v3/test"
)

type nopServer struct{}

func (nopServer) Shutdown() {}

// recordingFactory captures border agent registrations.
type recordingFactory struct {
	mu        sync.Mutex
	instances []string
	txt       [][]string
}

func (f *recordingFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (discovery.MDNSServer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances = append(f.instances, instance)
	f.txt = append(f.txt, txt)
	return nopServer{}, nil
}

func quietLogger() logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = logging.LogLevelDisabled
	return f
}

func newHarness(t *testing.T, cfg Config, factory discovery.MDNSServerFactory) *SimHarness {
	t.Helper()
	h, err := NewSimHarness(SimConfig{
		Config:            cfg,
		AdvertiserFactory: factory,
		LoggerFactory:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewSimHarness() error = %v", err)
	}
	return h
}

// startLeader starts the node and drains the loop until it leads.
func startLeader(t *testing.T, h *SimHarness) {
	t.Helper()
	h.Stack.Post(func() {
		if err := h.Node.Start(); err != nil {
			t.Errorf("Start() error = %v", err)
		}
	})
	h.Stack.Process()

	if role := h.Stack.DeviceRole(); role != thread.RoleLeader {
		t.Fatalf("DeviceRole() = %s, want leader", role)
	}
}

func drainEvents(q *display.RingBuffer) []display.Event {
	var out []display.Event
	for {
		ev, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestE2E_BootstrapToLeader(t *testing.T) {
	h := newHarness(t, TestConfig(), nil)
	startLeader(t, h)

	status := h.Terminal.Status()
	if status.Role != "leader" {
		t.Errorf("display role = %q, want leader", status.Role)
	}
	if status.NetworkName != DefaultNetworkName {
		t.Errorf("display name = %q, want %q", status.NetworkName, DefaultNetworkName)
	}
	if status.Channel < sim.MinChannel || status.Channel > sim.MaxChannel {
		t.Errorf("display channel = %d, want %d-%d", status.Channel, sim.MinChannel, sim.MaxChannel)
	}

	if got := h.Stack.CommissionerState(); got != thread.CommissionerActive {
		t.Errorf("CommissionerState() = %s, want active", got)
	}
	if !h.Node.Resource().Installed() {
		t.Error("resource not installed")
	}
	if port := h.Stack.CoAP().Port(); port != coap.DefaultPort {
		t.Errorf("coap port = %d, want %d", port, coap.DefaultPort)
	}
}

func TestE2E_LeaderTwice(t *testing.T) {
	h := newHarness(t, TestConfig(), nil)
	startLeader(t, h)

	h.Stack.Post(func() { h.Node.Store().SetString("kept") })
	h.Stack.Notify(thread.ChangedRole)
	h.Stack.Process()

	if got := h.Stack.CommissionerState(); got != thread.CommissionerActive {
		t.Errorf("CommissionerState() = %s, want active", got)
	}
	if got := h.Node.Store().String(); got != "kept" {
		t.Errorf("store = %q after repeated leader, want kept", got)
	}
	if !h.Stack.CoAP().HasResource("question/answer") {
		t.Error("resource lost")
	}
}

func TestE2E_QuestionAnswer(t *testing.T) {
	h := newHarness(t, TestConfig(), nil)
	startLeader(t, h)
	drainEvents(h.Terminal.Queue())

	h.Stack.Post(func() {
		if err := h.Request(coap.CodePost, coap.TypeConfirmable, []byte("hello")); err != nil {
			t.Errorf("POST error = %v", err)
		}
		if err := h.Request(coap.CodeGet, coap.TypeConfirmable, nil); err != nil {
			t.Errorf("GET error = %v", err)
		}
		if err := h.Request(coap.CodePost, coap.TypeNonConfirmable, []byte("42")); err != nil {
			t.Errorf("POST NON error = %v", err)
		}
	})
	h.Stack.Process()

	resps := h.Stack.CoAP().Responses()
	if len(resps) != 2 {
		t.Fatalf("responses = %d, want 2", len(resps))
	}
	if resps[0].Code != coap.CodeChanged || string(resps[0].Payload) != "hello" {
		t.Errorf("POST response = %s %q", resps[0].Code, resps[0].Payload)
	}
	if resps[1].Code != coap.CodeContent || string(resps[1].Payload) != "hello" {
		t.Errorf("GET response = %s %q", resps[1].Code, resps[1].Payload)
	}
	if got := h.Node.Store().String(); got != "42" {
		t.Errorf("store = %q, want 42", got)
	}
	if h.LED.Toggles() != 2 {
		t.Errorf("LED toggles = %d, want 2", h.LED.Toggles())
	}
	if live := h.Stack.CoAP().LiveMessages(); live != 0 {
		t.Errorf("LiveMessages() = %d, want 0", live)
	}

	events := drainEvents(h.Terminal.Queue())
	if len(events) != 2 || !strings.Contains(events[0].Msg, "hello") || !strings.Contains(events[1].Msg, "42") {
		t.Errorf("events = %+v", events)
	}
}

func TestE2E_JoinerAdmitted(t *testing.T) {
	h := newHarness(t, TestConfig(), nil)
	startLeader(t, h)
	drainEvents(h.Terminal.Queue())

	h.Stack.Post(func() {
		h.Press(hal.Button1)
		h.Release(hal.Button1)
		h.Release(hal.Button0)
	})
	h.Stack.Process()
	if n := h.Stack.Joiners(); n != 0 {
		t.Fatalf("Joiners() = %d before joiner button press, want 0", n)
	}

	h.Stack.Post(func() { h.Press(hal.Button0) })
	h.Stack.Process()
	if n := h.Stack.Joiners(); n != 1 {
		t.Fatalf("Joiners() = %d, want 1", n)
	}

	joiner := thread.ExtAddress{0x18, 0xb4, 0x30, 0, 0, 0, 0, 0x42}
	if err := h.Stack.SimulateJoiner(joiner, DefaultJoinerPSKd); err != nil {
		t.Fatalf("SimulateJoiner() error = %v", err)
	}
	h.Stack.Process()

	var msgs []string
	for _, ev := range drainEvents(h.Terminal.Queue()) {
		msgs = append(msgs, ev.Msg)
	}
	want := []string{
		"[joiner] waiting for joiner",
		"[joiner] start",
		"[joiner] connected",
		"[joiner] finalize",
		"[joiner] end",
		"[joiner] removed",
	}
	if strings.Join(msgs, "|") != strings.Join(want, "|") {
		t.Errorf("events = %q, want %q", msgs, want)
	}
	if n := h.Stack.Joiners(); n != 0 {
		t.Errorf("Joiners() = %d after join, want 0", n)
	}
}

func TestE2E_AdvertisesBorderAgent(t *testing.T) {
	cfg := TestConfig()
	cfg.Advertise = true
	factory := &recordingFactory{}
	h := newHarness(t, cfg, factory)
	startLeader(t, h)

	h.Stack.Notify(thread.ChangedRole)
	h.Stack.Process()

	if len(factory.instances) != 1 {
		t.Fatalf("registrations = %d, want 1", len(factory.instances))
	}
	kv := discovery.ParseTXT(factory.txt[0])
	if kv["nn"] != DefaultNetworkName {
		t.Errorf("nn = %q, want %q", kv["nn"], DefaultNetworkName)
	}
	ds, _ := h.Stack.DatasetGetActive()
	if kv["xp"] != ds.ExtendedPANIDString() {
		t.Errorf("xp = %q, want %q", kv["xp"], ds.ExtendedPANIDString())
	}

	h.Stack.Post(func() {
		if err := h.Node.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	h.Stack.Process()
	if h.Node.Advertiser().IsAdvertising() {
		t.Error("still advertising after Stop")
	}
	if role := h.Stack.DeviceRole(); role != thread.RoleDisabled {
		t.Errorf("DeviceRole() after Stop = %s, want disabled", role)
	}
}

func TestE2E_RunLoop(t *testing.T) {
	defer test.CheckRoutines(t)()

	h, err := NewSimHarness(SimConfig{
		Config:        TestConfig(),
		Stack:         sim.Config{FormationDelay: 10 * time.Millisecond},
		LoggerFactory: quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewSimHarness() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.Stack.Run(ctx)
	}()

	h.Stack.Post(func() { _ = h.Node.Start() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Stack.CommissionerState() != thread.CommissionerActive {
		if time.Now().After(deadline) {
			t.Fatal("commissioner did not become active")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}
