package netutil

import (
	"net/netip"
	"sort"
)

// IPRange returns the usable address range of an IPv4 prefix: the whole
// network for point-to-point and /32 prefixes, and everything between the
// network and broadcast addresses otherwise.
func IPRange(p netip.Prefix) (netip.Addr, netip.Addr) {
	base := addrToUint32(p.Masked().Addr())
	size := uint32(1) << (32 - p.Bits())

	switch size {
	case 1:
		return uint32ToAddr(base), uint32ToAddr(base)
	case 2:
		return uint32ToAddr(base), uint32ToAddr(base + 1)
	default:
		return uint32ToAddr(base + 1), uint32ToAddr(base + size - 2)
	}
}

// IPRangeMax returns the largest contiguous run of host addresses in the
// prefix that avoids every excluded address. It is used to pick a DHCP
// range that does not collide with the host or gateway addresses. When
// nothing is excluded (or the prefix is too small to split) the full usable
// range is returned.
func IPRangeMax(p netip.Prefix, exclude []netip.Addr) (netip.Addr, netip.Addr) {
	size := uint32(1) << (32 - p.Bits())
	if size <= 2 || len(exclude) == 0 {
		return IPRange(p)
	}

	base := addrToUint32(p.Masked().Addr())

	// Candidate pool: every address after the network address and before
	// the broadcast address.
	remStart, remEnd := base+1, base+size-1 // half-open

	excluded := make([]uint32, 0, len(exclude))
	for _, a := range exclude {
		excluded = append(excluded, addrToUint32(a))
	}
	sort.Slice(excluded, func(i, j int) bool { return excluded[i] < excluded[j] })

	var bestStart, bestLen uint32
	for _, e := range excluded {
		if e < remStart || e >= remEnd {
			continue
		}
		if run := e - remStart; run > bestLen {
			bestStart, bestLen = remStart, run
		}
		remStart = e + 1
		if remStart >= remEnd {
			remStart, remEnd = 0, 0
			break
		}
	}

	if remEnd-remStart > bestLen {
		bestStart, bestLen = remStart, remEnd-remStart
	}
	if bestLen == 0 {
		return IPRange(p)
	}
	return uint32ToAddr(bestStart), uint32ToAddr(bestStart + bestLen - 1)
}

func addrToUint32(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func uint32ToAddr(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
