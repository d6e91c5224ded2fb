package programmer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeviceStatus_Bits(t *testing.T) {
	var s DeviceStatus
	require.False(t, s.CodeProtect())
	require.False(t, s.NVMError())
	require.False(t, s.ConfigReady())
	require.False(t, s.FlashBusy())
	require.False(t, s.DeviceReset())

	s = StatusCodeProtect | StatusNVMError | StatusConfigReady | StatusFlashBusy | StatusDeviceReset
	require.True(t, s.CodeProtect())
	require.True(t, s.NVMError())
	require.True(t, s.ConfigReady())
	require.True(t, s.FlashBusy())
	require.True(t, s.DeviceReset())
}

func TestDeviceStatus_String(t *testing.T) {
	status := DeviceStatus(0x89)
	want := `STATUS: 0x89
  CPS:    1
  NVMERR: 0
  CFGRDY: 1
  FCBUSY: 0
  DEVRST: 1`
	require.Equal(t, want, status.String())
}
