package netutil

import (
	"net/netip"
	"testing"
)

func addr(s string) netip.Addr { return netip.MustParseAddr(s) }

func TestIPRange(t *testing.T) {
	tests := []struct {
		prefix string
		lo, hi string
	}{
		{"10.0.0.0/24", "10.0.0.1", "10.0.0.254"},
		{"192.168.1.0/31", "192.168.1.0", "192.168.1.1"},
		{"192.168.1.7/32", "192.168.1.7", "192.168.1.7"},
		{"172.16.0.0/16", "172.16.0.1", "172.16.255.254"},
	}
	for _, tt := range tests {
		lo, hi := IPRange(netip.MustParsePrefix(tt.prefix))
		if lo != addr(tt.lo) || hi != addr(tt.hi) {
			t.Errorf("IPRange(%s) = (%s, %s), want (%s, %s)", tt.prefix, lo, hi, tt.lo, tt.hi)
		}
	}
}

func TestIPRangeMax(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		exclude []string
		lo, hi  string
	}{
		{
			name:   "no excludes returns full range",
			prefix: "10.0.0.0/24",
			lo:     "10.0.0.1", hi: "10.0.0.254",
		},
		{
			name:    "exclude near bottom picks upper run",
			prefix:  "10.0.0.0/24",
			exclude: []string{"10.0.0.5"},
			lo:      "10.0.0.6", hi: "10.0.0.254",
		},
		{
			name:    "exclude near top picks lower run",
			prefix:  "10.0.0.0/24",
			exclude: []string{"10.0.0.200"},
			lo:      "10.0.0.1", hi: "10.0.0.199",
		},
		{
			name:    "multiple excludes pick largest gap",
			prefix:  "10.0.0.0/24",
			exclude: []string{"10.0.0.10", "10.0.0.50", "10.0.0.60"},
			lo:      "10.0.0.61", hi: "10.0.0.254",
		},
		{
			name:    "exclude outside network ignored",
			prefix:  "10.0.0.0/24",
			exclude: []string{"192.168.1.1"},
			lo:      "10.0.0.1", hi: "10.0.0.254",
		},
		{
			name:    "tiny network ignores excludes",
			prefix:  "10.0.0.0/31",
			exclude: []string{"10.0.0.0"},
			lo:      "10.0.0.0", hi: "10.0.0.1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ex []netip.Addr
			for _, s := range tt.exclude {
				ex = append(ex, addr(s))
			}
			lo, hi := IPRangeMax(netip.MustParsePrefix(tt.prefix), ex)
			if lo != addr(tt.lo) || hi != addr(tt.hi) {
				t.Errorf("got (%s, %s), want (%s, %s)", lo, hi, tt.lo, tt.hi)
			}
		})
	}
}

func TestParseDefaultGateway(t *testing.T) {
	table := "Iface\tDestination\tGateway \tFlags\tRefCnt\tUse\tMetric\tMask\n" +
		"eth0\t00000000\t0102A8C0\t0003\t0\t0\t100\t00000000\n" +
		"eth0\t0002A8C0\t00000000\t0001\t0\t0\t100\t00FFFFFF\n"

	gw, err := parseDefaultGateway(table)
	if err != nil {
		t.Fatalf("parseDefaultGateway: %v", err)
	}
	if gw != addr("192.168.2.1") {
		t.Errorf("gateway = %s, want 192.168.2.1", gw)
	}
}

func TestParseDefaultGateway_NoDefault(t *testing.T) {
	table := "Iface\tDestination\tGateway \tFlags\n" +
		"eth0\t0002A8C0\t00000000\t0001\n"

	if _, err := parseDefaultGateway(table); err == nil {
		t.Error("expected error for missing default route")
	}
}

func TestNetmaskAndBroadcast(t *testing.T) {
	p := netip.MustParsePrefix("10.0.4.0/22")
	if got := Netmask(p); got != "255.255.252.0" {
		t.Errorf("Netmask = %s", got)
	}
	if got := Broadcast(p); got != addr("10.0.7.255") {
		t.Errorf("Broadcast = %s", got)
	}
}
