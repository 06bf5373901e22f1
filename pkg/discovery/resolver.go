package discovery

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// DefaultBrowseTimeout is the default timeout for browse operations.
const DefaultBrowseTimeout = 10 * time.Second

// DefaultLookupTimeout is the default timeout for lookup operations.
const DefaultLookupTimeout = 5 * time.Second

// BorderAgent is a discovered _meshcop._udp service.
type BorderAgent struct {
	// InstanceName is the DNS-SD instance name.
	InstanceName string

	// HostName is the target host name.
	HostName string

	// Port is the border agent port.
	Port int

	// IPs contains the resolved IP addresses, sorted by preference.
	IPs []net.IP

	// TXT is the decoded record. Nil when the record was malformed.
	TXT *BorderAgentTXT
}

// PreferredIP returns the most preferred IP address, or nil.
func (b *BorderAgent) PreferredIP() net.IP {
	if len(b.IPs) > 0 {
		return b.IPs[0]
	}
	return nil
}

// MDNSResolver is the interface for mDNS service resolution.
// This allows for dependency injection in tests. Implementations send results
// until ctx is done or the query is exhausted, then return. They never close
// entries.
type MDNSResolver interface {
	// Browse browses for services of the given type.
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

	// Lookup looks up a specific service instance.
	Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// zeroconfResolver is the production implementation using grandcat/zeroconf.
// zeroconf queries in the background and owns the channel it is given, so
// results are relayed through a private one.
type zeroconfResolver struct {
	resolver *zeroconf.Resolver
}

func newZeroconfResolver() (*zeroconfResolver, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return &zeroconfResolver{resolver: r}, nil
}

func (z *zeroconfResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	in := make(chan *zeroconf.ServiceEntry)
	if err := z.resolver.Browse(ctx, service, domain, in); err != nil {
		return err
	}
	return relay(ctx, in, entries)
}

func (z *zeroconfResolver) Lookup(ctx context.Context, instance, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	in := make(chan *zeroconf.ServiceEntry)
	if err := z.resolver.Lookup(ctx, instance, service, domain, in); err != nil {
		return err
	}
	return relay(ctx, in, entries)
}

func relay(ctx context.Context, in <-chan *zeroconf.ServiceEntry, out chan<- *zeroconf.ServiceEntry) error {
	for {
		select {
		case e, ok := <-in:
			if !ok {
				return nil
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ResolverConfig holds configuration for the Resolver.
type ResolverConfig struct {
	// MDNSResolver is the underlying mDNS resolver implementation.
	// If nil, the default zeroconf resolver is used.
	MDNSResolver MDNSResolver

	// BrowseTimeout is the timeout for browse operations.
	// If zero, DefaultBrowseTimeout is used.
	BrowseTimeout time.Duration

	// LookupTimeout is the timeout for lookup operations.
	// If zero, DefaultLookupTimeout is used.
	LookupTimeout time.Duration

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Resolver discovers border agents via DNS-SD.
type Resolver struct {
	config   ResolverConfig
	resolver MDNSResolver
	log      logging.LeveledLogger
}

// NewResolver creates a new Resolver with the given configuration.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	resolver := config.MDNSResolver
	if resolver == nil {
		zr, err := newZeroconfResolver()
		if err != nil {
			return nil, err
		}
		resolver = zr
	}

	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = DefaultBrowseTimeout
	}
	if config.LookupTimeout == 0 {
		config.LookupTimeout = DefaultLookupTimeout
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	return &Resolver{
		config:   config,
		resolver: resolver,
		log:      config.LoggerFactory.NewLogger("discovery"),
	}, nil
}

// BrowseBorderAgents discovers border agents on the network. The returned
// channel is closed when ctx is done or the browse timeout expires.
func (r *Resolver) BrowseBorderAgents(ctx context.Context) (<-chan BorderAgent, error) {
	ctx, cancel := r.withTimeout(ctx, r.config.BrowseTimeout)

	results := make(chan BorderAgent)
	entries := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer cancel()
		defer close(results)

		go func() {
			defer close(entries)
			if err := r.resolver.Browse(ctx, ServiceMeshCoP, DefaultDomain, entries); err != nil {
				r.log.Debugf("browse %s: %v", ServiceMeshCoP, err)
			}
		}()

		for entry := range entries {
			ba := r.entryToBorderAgent(entry)
			select {
			case results <- ba:
			case <-ctx.Done():
				// Drain so the browse goroutine can exit.
				for range entries {
				}
				return
			}
		}
	}()

	return results, nil
}

// Lookup looks up a border agent by instance name.
func (r *Resolver) Lookup(ctx context.Context, instanceName string) (*BorderAgent, error) {
	ctx, cancel := r.withTimeout(ctx, r.config.LookupTimeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 1)
	go func() {
		defer close(entries)
		if err := r.resolver.Lookup(ctx, instanceName, ServiceMeshCoP, DefaultDomain, entries); err != nil {
			r.log.Debugf("lookup %s: %v", instanceName, err)
		}
	}()

	select {
	case entry, ok := <-entries:
		if !ok || entry == nil {
			return nil, ErrServiceNotFound
		}
		ba := r.entryToBorderAgent(entry)
		return &ba, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

func (r *Resolver) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (r *Resolver) entryToBorderAgent(entry *zeroconf.ServiceEntry) BorderAgent {
	var ips []net.IP
	ips = append(ips, entry.AddrIPv6...)
	ips = append(ips, entry.AddrIPv4...)

	ba := BorderAgent{
		InstanceName: entry.Instance,
		HostName:     entry.HostName,
		Port:         entry.Port,
		IPs:          SortIPsByPreference(ips),
	}

	txt, err := ParseBorderAgentTXT(entry.Text)
	if err != nil {
		r.log.Debugf("border agent %q: %v", entry.Instance, err)
	} else {
		ba.TXT = txt
	}
	return ba
}
