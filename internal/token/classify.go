// Package token classifies single command-line tokens by syntactic shape.
//
// Shapes overlap: "8" is both a numeric id and (with dots) an FQDN candidate,
// and every dotted IPv4 address is FQDN-shaped. Callers that route on shape
// must test numeric and IPv4 before FQDN.
package token

import (
	"net/netip"
	"strings"
)

const maxFQDNLength = 255

// Shape is a bit set of the categories a token satisfies.
type Shape uint8

const (
	ShapeNumeric Shape = 1 << iota
	ShapeIPv4
	ShapeIPv6
	ShapeFQDN
)

// Has reports whether all bits of o are set in s.
func (s Shape) Has(o Shape) bool { return s&o == o }

func (s Shape) String() string {
	var parts []string
	if s.Has(ShapeNumeric) {
		parts = append(parts, "numeric")
	}
	if s.Has(ShapeIPv4) {
		parts = append(parts, "ipv4")
	}
	if s.Has(ShapeIPv6) {
		parts = append(parts, "ipv6")
	}
	if s.Has(ShapeFQDN) {
		parts = append(parts, "fqdn")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Classify returns every shape t satisfies.
func Classify(t string) Shape {
	var s Shape
	if IsNumericID(t) {
		s |= ShapeNumeric
	}
	if IsIPv4(t) {
		s |= ShapeIPv4
	}
	if IsIPv6(t) {
		s |= ShapeIPv6
	}
	if IsFQDN(t) {
		s |= ShapeFQDN
	}
	return s
}

// IsNumericID reports whether t is non-empty and made of ASCII digits only.
func IsNumericID(t string) bool {
	if t == "" {
		return false
	}
	for i := 0; i < len(t); i++ {
		if t[i] < '0' || t[i] > '9' {
			return false
		}
	}
	return true
}

// IsIPv4 reports whether t is a dotted-quad IPv4 address.
func IsIPv4(t string) bool {
	addr, err := netip.ParseAddr(t)
	if err != nil {
		return false
	}
	return addr.Is4() && addr.Zone() == ""
}

// IsIPv6 reports whether t is an IPv6 address in standard notation.
func IsIPv6(t string) bool {
	if !strings.Contains(t, ":") {
		return false
	}
	addr, err := netip.ParseAddr(t)
	if err != nil {
		return false
	}
	return addr.Is6() && addr.Zone() == ""
}

// IsFQDN reports whether t looks like a dotted hostname. The check is purely
// lexical and also accepts IPv4-shaped strings.
func IsFQDN(t string) bool {
	if t == "" || len(t) > maxFQDNLength {
		return false
	}
	t = strings.ToLower(t)
	if t[0] == '.' || t[len(t)-1] == '.' || !strings.Contains(t, ".") {
		return false
	}
	for i := 0; i < len(t); i++ {
		c := t[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '.':
		default:
			return false
		}
	}
	return true
}
