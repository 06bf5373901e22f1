// Package discovery advertises the base station as a Thread border agent over
// DNS-SD (mDNS) and browses for other border agents.
//
// Border agents publish the _meshcop._udp service. Its TXT record carries the
// network name and extended PAN id so that commissioning tools can find the
// network without joining it first.
package discovery

// DNS-SD service strings.
const (
	// ServiceMeshCoP is the DNS-SD service type of a Thread border agent.
	ServiceMeshCoP = "_meshcop._udp"

	// DefaultDomain is the default mDNS domain.
	DefaultDomain = "local."
)

// DefaultPort is the border agent port advertised when none is configured.
const DefaultPort = 49191

// DefaultThreadVersion is advertised in the tv key.
const DefaultThreadVersion = "1.3.0"

// TXT record keys.
const (
	TXTKeyRecordVersion = "rv"
	TXTKeyThreadVersion = "tv"
	TXTKeyNetworkName   = "nn"
	TXTKeyExtPANID      = "xp"
	TXTKeyVendorName    = "vn"
	TXTKeyModelName     = "mn"
)

// TXTRecordVersion is the only rv value defined.
const TXTRecordVersion = "1"
