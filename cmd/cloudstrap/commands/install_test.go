package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall(t *testing.T) {
	cmd := Install()

	require.NotNil(t, cmd)
	assert.Equal(t, "install", cmd.Use)
	assert.NotNil(t, cmd.RunE)
}

func TestInstall_Flags(t *testing.T) {
	cmd := Install()

	for _, name := range []string{"enable-swift", "placement", "no-ui", "interface"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "Expected flag --%s", name)
	}
}

func TestInstall_FlagDefaults(t *testing.T) {
	cmd := Install()

	enableSwift, err := cmd.Flags().GetBool("enable-swift")
	require.NoError(t, err)
	assert.False(t, enableSwift)

	iface, err := cmd.Flags().GetString("interface")
	require.NoError(t, err)
	assert.Empty(t, iface)
}
