// Package netguard blocks outbound connections to private and reserved IP
// ranges. Targets and webhook destinations come from user configuration, so
// dials are checked after DNS resolution, before the connection opens.
package netguard

import (
	"fmt"
	"net/netip"
	"syscall"
)

// Reserved ranges not covered by the netip predicates.
var extraRanges = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("192.88.99.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
}

// IsPrivate reports whether addr falls in a private or reserved range.
func IsPrivate(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsMulticast() {
		return true
	}
	for _, p := range extraRanges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// DialControl is a net.Dialer Control function that refuses connections to
// private/reserved addresses.
func DialControl(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("blocked: invalid dial address %q", address)
	}
	if IsPrivate(ap.Addr()) {
		return fmt.Errorf("blocked: %s is a private/reserved address", ap.Addr())
	}
	return nil
}

// MaybeDialControl returns DialControl unless allowPrivate is set.
func MaybeDialControl(allowPrivate bool) func(string, string, syscall.RawConn) error {
	if allowPrivate {
		return nil
	}
	return DialControl
}
