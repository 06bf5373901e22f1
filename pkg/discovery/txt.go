package discovery

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// maxNetworkNameLen mirrors the Thread network name limit.
const maxNetworkNameLen = 16

// BorderAgentTXT is the TXT record of a _meshcop._udp service.
type BorderAgentTXT struct {
	// ThreadVersion is the Thread specification version (tv).
	// Defaults to DefaultThreadVersion when encoding.
	ThreadVersion string

	// NetworkName of the active dataset (nn). Required.
	NetworkName string

	// ExtendedPANID of the active dataset (xp).
	ExtendedPANID [8]byte

	// VendorName (vn). Optional.
	VendorName string

	// ModelName (mn). Optional.
	ModelName string
}

// Validate checks the record can be advertised.
func (t *BorderAgentTXT) Validate() error {
	if t.NetworkName == "" || len(t.NetworkName) > maxNetworkNameLen {
		return ErrInvalidNetworkName
	}
	return nil
}

// Encode returns the record as key=value strings. Empty optional keys are
// omitted.
func (t *BorderAgentTXT) Encode() []string {
	tv := t.ThreadVersion
	if tv == "" {
		tv = DefaultThreadVersion
	}

	records := []string{
		TXTKeyRecordVersion + "=" + TXTRecordVersion,
		TXTKeyThreadVersion + "=" + tv,
		TXTKeyNetworkName + "=" + t.NetworkName,
		TXTKeyExtPANID + "=" + hex.EncodeToString(t.ExtendedPANID[:]),
	}
	if t.VendorName != "" {
		records = append(records, TXTKeyVendorName+"="+t.VendorName)
	}
	if t.ModelName != "" {
		records = append(records, TXTKeyModelName+"="+t.ModelName)
	}
	return records
}

// ParseTXT splits key=value records into a map. Records without '=' are
// boolean attributes and map to an empty value.
func ParseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		key, value, _ := strings.Cut(r, "=")
		if key == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// ParseBorderAgentTXT decodes a _meshcop._udp TXT record.
func ParseBorderAgentTXT(records []string) (*BorderAgentTXT, error) {
	kv := ParseTXT(records)

	if rv, ok := kv[TXTKeyRecordVersion]; ok && rv != TXTRecordVersion {
		return nil, fmt.Errorf("%w: unsupported rv %q", ErrInvalidTXTRecord, rv)
	}

	t := &BorderAgentTXT{
		ThreadVersion: kv[TXTKeyThreadVersion],
		NetworkName:   kv[TXTKeyNetworkName],
		VendorName:    kv[TXTKeyVendorName],
		ModelName:     kv[TXTKeyModelName],
	}

	if xp, ok := kv[TXTKeyExtPANID]; ok {
		b, err := hex.DecodeString(xp)
		if err != nil || len(b) != len(t.ExtendedPANID) {
			return nil, fmt.Errorf("%w: bad xp %q", ErrInvalidTXTRecord, xp)
		}
		copy(t.ExtendedPANID[:], b)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// InstanceName returns the DNS-SD instance name for the border agent, built
// from the vendor and model names and the low bytes of the extended PAN id.
func (t *BorderAgentTXT) InstanceName() string {
	prefix := strings.TrimSpace(t.VendorName + " " + t.ModelName)
	if prefix == "" {
		prefix = "BorderAgent"
	}
	return fmt.Sprintf("%s #%02X%02X", prefix, t.ExtendedPANID[6], t.ExtendedPANID[7])
}
