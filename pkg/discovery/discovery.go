// Package discovery advertises and locates the KMS on the local network
// via DNS-SD (mDNS).
//
// A running KMS registers the service _qkd-kms._tcp with a TXT record
// carrying its protocol version and display name; field devices browse
// for it instead of being configured with an address. Both sides accept
// injectable mDNS implementations so tests run without network I/O.
package discovery

import (
	"fmt"
	"strconv"
	"strings"
)

// Service constants.
const (
	// ServiceKMS is the DNS-SD service type for a KMS instance.
	ServiceKMS = "_qkd-kms._tcp"

	// DefaultDomain is the default mDNS domain.
	DefaultDomain = "local."

	// DefaultPort is the default advertised API port.
	DefaultPort = 8000

	// ProtocolVersion is the version announced in TXT records.
	ProtocolVersion = 1
)

// TXT record keys.
const (
	txtKeyVersion = "pv"
	txtKeyName    = "nm"
)

// maxNameLength bounds the display name; DNS-SD TXT strings cap at 255
// bytes per key=value pair.
const maxNameLength = 63

// KMSTXT is the TXT payload advertised alongside the service record.
type KMSTXT struct {
	// Name is the operator-facing service name shown in browsers.
	Name string

	// Version is the announced protocol version
	// (default: ProtocolVersion).
	Version int
}

// Validate checks the TXT payload before advertising.
func (t KMSTXT) Validate() error {
	if len(t.Name) > maxNameLength {
		return ErrInvalidServiceName
	}
	if t.Version < 0 {
		return ErrInvalidProtocolVersion
	}
	return nil
}

// Encode renders the payload as DNS-SD key=value strings.
func (t KMSTXT) Encode() []string {
	version := t.Version
	if version == 0 {
		version = ProtocolVersion
	}

	txt := []string{fmt.Sprintf("%s=%d", txtKeyVersion, version)}
	if t.Name != "" {
		txt = append(txt, fmt.Sprintf("%s=%s", txtKeyName, t.Name))
	}
	return txt
}

// ParseTXT parses DNS-SD TXT strings into a key-value map. Entries
// without '=' are kept with an empty value, per DNS-SD convention for
// boolean attributes.
func ParseTXT(txt []string) map[string]string {
	out := make(map[string]string, len(txt))
	for _, entry := range txt {
		if entry == "" {
			continue
		}
		key, value, found := strings.Cut(entry, "=")
		if !found {
			out[entry] = ""
			continue
		}
		out[key] = value
	}
	return out
}

// TXTFromMap reassembles a KMSTXT from parsed TXT records. Unknown keys
// are ignored; a missing or malformed version parses as 0.
func TXTFromMap(m map[string]string) KMSTXT {
	version, _ := strconv.Atoi(m[txtKeyVersion])
	return KMSTXT{
		Name:    m[txtKeyName],
		Version: version,
	}
}
