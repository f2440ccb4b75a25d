package bytecounter

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteCounter(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	bc := New(c1)

	go func() {
		buf := make([]byte, 4)
		n, _ := c2.Read(buf)
		c2.Write(buf[:n/2]) //nolint:errcheck
	}()

	_, err := bc.Write([]byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := bc.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.Equal(t, uint64(4), bc.BytesSent())
	require.Equal(t, uint64(2), bc.BytesReceived())
	require.Equal(t, c1.RemoteAddr(), bc.RemoteAddr())
}
