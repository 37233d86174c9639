// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package netguard rejects outbound URLs that would let a remote caller reach
// internal infrastructure through server side requests.
package netguard

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// ErrBlocked is wrapped by every rejection returned from [CheckURL].
var ErrBlocked = errors.New("netguard: destination blocked")

var metadataAddr = netip.MustParseAddr("169.254.169.254")

var blockedSuffixes = []string{".localhost", ".local", ".internal"}

// CheckURL validates that raw is an https URL whose host is neither a
// private, loopback, link-local, metadata, broadcast, multicast nor
// unspecified address, nor a local-only hostname.
//
// Hostnames are not resolved; the check applies to the literal host only.
func CheckURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("netguard: parse %q: %w", raw, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: webhook URL must use https", ErrBlocked)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: webhook URL must have a host", ErrBlocked)
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return CheckAddr(addr)
	}
	return checkHostname(host)
}

// CheckAddr validates a literal IP address.
func CheckAddr(addr netip.Addr) error {
	addr = addr.Unmap()
	switch {
	case addr == metadataAddr:
		return fmt.Errorf("%w: cloud metadata endpoint %s", ErrBlocked, addr)
	case addr.IsLoopback():
		return fmt.Errorf("%w: loopback address %s", ErrBlocked, addr)
	case addr.IsPrivate():
		return fmt.Errorf("%w: private address %s", ErrBlocked, addr)
	case addr.IsLinkLocalUnicast(), addr.IsLinkLocalMulticast():
		return fmt.Errorf("%w: link-local address %s", ErrBlocked, addr)
	case addr.Is4() && addr == netip.AddrFrom4([4]byte{255, 255, 255, 255}):
		return fmt.Errorf("%w: broadcast address", ErrBlocked)
	case addr.IsMulticast():
		return fmt.Errorf("%w: multicast address %s", ErrBlocked, addr)
	case addr.IsUnspecified():
		return fmt.Errorf("%w: unspecified address %s", ErrBlocked, addr)
	}
	return nil
}

func checkHostname(host string) error {
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	if h == "localhost" || h == "localhost.localdomain" {
		return fmt.Errorf("%w: localhost hostname", ErrBlocked)
	}
	for _, suffix := range blockedSuffixes {
		if strings.HasSuffix(h, suffix) {
			return fmt.Errorf("%w: %s domains are not allowed", ErrBlocked, suffix)
		}
	}
	return nil
}

// Control is a [net.Dialer] Control hook. It runs after name resolution, so
// it rejects hostnames that resolve to a blocked address.
func Control(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: unresolved address %q", ErrBlocked, address)
	}
	return CheckAddr(addr)
}

// NewHTTPClient returns a client whose connections pass [Control]. Proxies
// are disabled so the check sees the real destination.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second, Control: Control}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil
	tr.DialContext = dialer.DialContext
	return &http.Client{Transport: tr, Timeout: timeout}
}
