package netutil

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultGatewayDefaultRoute(t *testing.T) {
	// Gateway 192.168.1.1 stored little-endian as 0101A8C0.
	table := "Iface\tDestination\tGateway\tFlags\tRefCnt\tUse\tMetric\tMask\n" +
		"eth0\t0000A8C0\t00000000\t0001\t0\t0\t100\t00FFFFFF\n" +
		"eth0\t00000000\t0101A8C0\t0003\t0\t0\t100\t00000000\n"

	gw, err := parseDefaultGateway(table)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", gw.String())
}

func TestParseDefaultGatewayNoDefaultRoute(t *testing.T) {
	table := "Iface\tDestination\tGateway\tFlags\tRefCnt\tUse\tMetric\tMask\n" +
		"eth0\t0000A8C0\t00000000\t0001\t0\t0\t100\t00FFFFFF\n"

	_, err := parseDefaultGateway(table)
	assert.Error(t, err)
}

func TestNetmask(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"10.0.4.0/24", "255.255.255.0"},
		{"10.0.0.0/16", "255.255.0.0"},
		{"192.168.1.0/28", "255.255.255.240"},
	}
	for _, tc := range tests {
		p := netip.MustParsePrefix(tc.prefix)
		assert.Equal(t, tc.want, Netmask(p), tc.prefix)
	}
}

func TestBroadcast(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"10.0.4.0/24", "10.0.4.255"},
		{"192.168.1.16/28", "192.168.1.31"},
		{"172.16.0.0/16", "172.16.255.255"},
	}
	for _, tc := range tests {
		p := netip.MustParsePrefix(tc.prefix)
		assert.Equal(t, tc.want, Broadcast(p).String(), tc.prefix)
	}
}

func TestInterfacesExcludesLoopback(t *testing.T) {
	names, err := Interfaces()
	require.NoError(t, err)
	assert.NotContains(t, names, "lo")
}
