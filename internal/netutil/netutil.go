// Package netutil discovers local network facts needed to configure the
// provisioning service: candidate interfaces, their addresses, and the
// default gateway.
package netutil

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Interfaces returns the names of non-loopback interfaces that carry an
// IPv4 address, sorted by name. These are the candidates for the managed
// provisioning network.
func Interfaces() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var names []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if ok && ipnet.IP.To4() != nil {
				names = append(names, iface.Name)
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// AddrOf returns the first IPv4 address and prefix assigned to the named
// interface.
func AddrOf(name string) (netip.Addr, netip.Prefix, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return netip.Addr{}, netip.Prefix{}, fmt.Errorf("interface %s: %w", name, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return netip.Addr{}, netip.Prefix{}, fmt.Errorf("interface %s addresses: %w", name, err)
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.To4() == nil {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipnet.IP.To4())
		if !ok {
			continue
		}
		ones, _ := ipnet.Mask.Size()
		return ip, netip.PrefixFrom(ip, ones).Masked(), nil
	}
	return netip.Addr{}, netip.Prefix{}, fmt.Errorf("interface %s has no IPv4 address", name)
}

// DefaultGateway reads the IPv4 default route from /proc/net/route.
func DefaultGateway() (netip.Addr, error) {
	data, err := os.ReadFile("/proc/net/route")
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to read routing table: %w", err)
	}
	return parseDefaultGateway(string(data))
}

func parseDefaultGateway(table string) (netip.Addr, error) {
	for _, line := range strings.Split(table, "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[1] != "00000000" {
			continue
		}
		raw, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			continue
		}
		// /proc/net/route stores addresses little-endian.
		return netip.AddrFrom4([4]byte{
			byte(raw), byte(raw >> 8), byte(raw >> 16), byte(raw >> 24),
		}), nil
	}
	return netip.Addr{}, fmt.Errorf("no default route found")
}

// Netmask returns the dotted-quad netmask of a prefix.
func Netmask(p netip.Prefix) string {
	mask := net.CIDRMask(p.Bits(), 32)
	return net.IP(mask).String()
}

// Broadcast returns the broadcast address of an IPv4 prefix.
func Broadcast(p netip.Prefix) netip.Addr {
	base := addrToUint32(p.Masked().Addr())
	size := uint32(1) << (32 - p.Bits())
	return uint32ToAddr(base + size - 1)
}
