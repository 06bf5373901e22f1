package discovery

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/pion/transport/v3/test"
)

func newTestResolver(t *testing.T, mock *MockMDNSResolver) *Resolver {
	t.Helper()
	r, err := NewResolver(ResolverConfig{
		MDNSResolver:  mock,
		BrowseTimeout: time.Second,
		LookupTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func TestResolver_BrowseBorderAgents(t *testing.T) {
	defer test.CheckRoutines(t)()

	mock := NewMockMDNSResolver()
	mock.RegisterService(ServiceMeshCoP, MockBorderAgentService(testTXT(), 49191,
		net.ParseIP("192.168.1.10"),
		net.ParseIP("fe80::1"),
		net.ParseIP("fd11:22::1"),
	))
	mock.RegisterService(ServiceMeshCoP, &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "broken", Service: ServiceMeshCoP},
		Text:          []string{"rv=9"},
	})

	r := newTestResolver(t, mock)
	results, err := r.BrowseBorderAgents(context.Background())
	if err != nil {
		t.Fatalf("BrowseBorderAgents() error = %v", err)
	}

	var agents []BorderAgent
	for ba := range results {
		agents = append(agents, ba)
	}
	if len(agents) != 2 {
		t.Fatalf("got %d agents, want 2", len(agents))
	}

	ba := agents[0]
	if ba.TXT == nil || ba.TXT.NetworkName != "OpenClicker" {
		t.Fatalf("TXT = %+v, want network OpenClicker", ba.TXT)
	}
	if ba.Port != 49191 {
		t.Errorf("Port = %d, want 49191", ba.Port)
	}
	if got := ba.PreferredIP().String(); got != "fd11:22::1" {
		t.Errorf("PreferredIP() = %s, want fd11:22::1", got)
	}
	if last := ba.IPs[len(ba.IPs)-1].String(); last != "192.168.1.10" {
		t.Errorf("last IP = %s, want IPv4 last", last)
	}

	if agents[1].TXT != nil {
		t.Errorf("malformed record decoded: %+v", agents[1].TXT)
	}
}

func TestResolver_BrowseCancelled(t *testing.T) {
	defer test.CheckRoutines(t)()

	mock := NewMockMDNSResolver()
	for i := 0; i < 4; i++ {
		txt := testTXT()
		txt.ExtendedPANID[7] = byte(i)
		mock.RegisterService(ServiceMeshCoP, MockBorderAgentService(txt, 49191))
	}

	r := newTestResolver(t, mock)
	ctx, cancel := context.WithCancel(context.Background())
	results, _ := r.BrowseBorderAgents(ctx)

	<-results
	cancel()
	for range results {
	}
}

func TestResolver_Lookup(t *testing.T) {
	mock := NewMockMDNSResolver()
	txt := testTXT()
	mock.RegisterService(ServiceMeshCoP, MockBorderAgentService(txt, 49191, net.ParseIP("fd00::5")))
	r := newTestResolver(t, mock)

	ba, err := r.Lookup(context.Background(), txt.InstanceName())
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ba.InstanceName != txt.InstanceName() {
		t.Errorf("InstanceName = %q, want %q", ba.InstanceName, txt.InstanceName())
	}

	if _, err := r.Lookup(context.Background(), "nobody"); !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("Lookup(nobody) error = %v, want ErrServiceNotFound", err)
	}
}

func TestSortIPsByPreference(t *testing.T) {
	in := []net.IP{
		net.ParseIP("10.0.0.1"),
		net.ParseIP("fe80::1"),
		net.ParseIP("2001:db8::1"),
		net.ParseIP("fd00::1"),
	}
	got := SortIPsByPreference(in)
	want := []string{"2001:db8::1", "fd00::1", "fe80::1", "10.0.0.1"}
	for i, ip := range got {
		if ip.String() != want[i] {
			t.Errorf("[%d] = %s, want %s", i, ip, want[i])
		}
	}
	if in[0].String() != "10.0.0.1" {
		t.Error("input slice modified")
	}
}
