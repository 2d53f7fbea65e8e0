// Package sweep expands a destination specification (a CIDR block, a
// single address or a host name) into concrete targets and runs a probe,
// such as ping or TCP ping, against each of them.
package sweep

import (
	"math"
	"net/netip"
	"slices"

	"github.com/projectdiscovery/mapcidr"

	"github.com/anstrom/netdiag/internal/errors"
)

// Default caps on the number of usable addresses a sweep may expand to.
const (
	DefaultPingCap    = 1024
	DefaultTCPPingCap = 100
)

// Expand turns destSpec into the list of targets to probe.
//
// A destSpec that is not a CIDR block, including a bare address or a host
// name, is returned as the single target. A block with one address yields
// that address. Larger blocks yield every usable host address in ascending
// order; for IPv4 the network and broadcast addresses are excluded unless
// the prefix is /31. When the usable count exceeds hardCap the call fails
// with DESTINATION_TOO_LARGE before any address is generated.
func Expand(destSpec string, hardCap int) ([]string, error) {
	prefix, err := netip.ParsePrefix(destSpec)
	if err != nil {
		return []string{destSpec}, nil
	}
	prefix = prefix.Masked()

	count := UsableCount(prefix)
	if count == 1 && prefix.IsSingleIP() {
		return []string{prefix.Addr().String()}, nil
	}
	if count > uint64(max(hardCap, 0)) {
		return nil, errors.ErrDestinationTooLarge(destSpec, count, hardCap)
	}

	all, err := mapcidr.IPAddresses(prefix.String())
	if err != nil {
		return nil, errors.ErrInvalidTarget(destSpec, err)
	}

	targets := make([]string, 0, count)
	for _, text := range all {
		addr, err := netip.ParseAddr(text)
		if err != nil || !usable(prefix, addr) {
			continue
		}
		targets = append(targets, addr.String())
	}

	slices.SortFunc(targets, func(a, b string) int {
		return netip.MustParseAddr(a).Compare(netip.MustParseAddr(b))
	})
	return targets, nil
}

// UsableCount returns the number of host addresses in prefix, saturating
// at math.MaxUint64.
func UsableCount(prefix netip.Prefix) uint64 {
	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits >= 64 {
		return math.MaxUint64
	}
	total := uint64(1) << hostBits

	switch {
	case hostBits == 0:
		return 1
	case prefix.Addr().Is4() && hostBits == 1:
		// RFC 3021 point-to-point link, both addresses usable.
		return 2
	case prefix.Addr().Is4():
		return total - 2
	case hostBits == 1:
		return 2
	default:
		// IPv6 has no broadcast; the subnet-router anycast address is skipped.
		return total - 1
	}
}

// usable reports whether addr is a host address of prefix under the rules
// of UsableCount.
func usable(prefix netip.Prefix, addr netip.Addr) bool {
	if !prefix.Contains(addr) {
		return false
	}

	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits <= 1 {
		return true
	}
	if addr == prefix.Addr() {
		return false
	}
	if prefix.Addr().Is4() && addr == lastAddr(prefix) {
		return false
	}
	return true
}

func lastAddr(prefix netip.Prefix) netip.Addr {
	b := prefix.Addr().As4()
	hostBits := 32 - prefix.Bits()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	v |= uint32(1)<<hostBits - 1
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
