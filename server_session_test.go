package airsink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerSessionStates(t *testing.T) {
	sc := &ServerConn{}
	ss := newServerSession(sc)

	require.Len(t, ss.ID(), 32)
	require.Equal(t, ServerSessionStateIdle, ss.State())
	require.Equal(t, sc, ss.Conn())

	ss.authenticate()
	require.True(t, ss.Authenticated())
	require.Equal(t, ServerSessionStateAuthenticated, ss.State())

	ss.startStreaming(3)
	require.True(t, ss.Authenticated())
	require.True(t, ss.FairPlaySetup())
	require.Equal(t, ServerSessionStateStreaming, ss.State())
	require.Equal(t, uint64(3), ss.grant())

	require.Equal(t, uint64(3), ss.teardown())
	require.False(t, ss.Authenticated())
	require.False(t, ss.FairPlaySetup())
	require.Nil(t, ss.Conn())
	require.Equal(t, ServerSessionStateTornDown, ss.State())
	require.Equal(t, "tornDown", ss.State().String())

	require.NotEqual(t, ss.ID(), newServerSession(sc).ID())
}
