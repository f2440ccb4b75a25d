package airsink

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bluenviron/airsink/pkg/description"
	"github.com/bluenviron/airsink/pkg/headers"
)

// ServerSessionState is a state of a ServerSession.
type ServerSessionState int

// states.
const (
	ServerSessionStateIdle ServerSessionState = iota
	ServerSessionStateAuthenticated
	ServerSessionStateStreaming
	ServerSessionStateTornDown
)

// String implements fmt.Stringer.
func (s ServerSessionState) String() string {
	switch s {
	case ServerSessionStateIdle:
		return "idle"
	case ServerSessionStateAuthenticated:
		return "authenticated"
	case ServerSessionStateStreaming:
		return "streaming"
	case ServerSessionStateTornDown:
		return "tornDown"
	}
	return "unknown"
}

// ServerSession is a server-side session.
// A connection owns a single session at a time. After a teardown,
// the next request of the connection opens a new session.
//
// Pairing flags are tracked but they do not gate any request.
type ServerSession struct {
	secretID string

	propsMutex     sync.RWMutex
	conn           *ServerConn
	state          ServerSessionState
	cseq           string
	authenticated  bool
	fairPlaySetup  bool
	clientInstance string
	audio          *description.Audio
	transport      *headers.Transport
	streamGrant    uint64
	userData       interface{}
}

func newServerSession(sc *ServerConn) *ServerSession {
	return &ServerSession{
		secretID: strings.ReplaceAll(uuid.New().String(), "-", ""),
		conn:     sc,
		state:    ServerSessionStateIdle,
	}
}

// ID returns the identifier of the session.
func (ss *ServerSession) ID() string {
	return ss.secretID
}

// State returns the state of the session.
func (ss *ServerSession) State() ServerSessionState {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.state
}

// Conn returns the connection of the session.
// It is nil once the session has been torn down.
func (ss *ServerSession) Conn() *ServerConn {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.conn
}

// CSeq returns the sequence number of the last request.
func (ss *ServerSession) CSeq() string {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.cseq
}

// Authenticated returns whether pair-verify succeeded.
func (ss *ServerSession) Authenticated() bool {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.authenticated
}

// FairPlaySetup returns whether fp-setup succeeded.
func (ss *ServerSession) FairPlaySetup() bool {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.fairPlaySetup
}

// ClientInstance returns the client instance token, if provided.
func (ss *ServerSession) ClientInstance() string {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.clientInstance
}

// AnnouncedAudio returns the audio description sent with ANNOUNCE, if any.
func (ss *ServerSession) AnnouncedAudio() *description.Audio {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.audio
}

// SetuppedTransport returns the transport proposed by the client in SETUP, if any.
func (ss *ServerSession) SetuppedTransport() *headers.Transport {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.transport
}

// SetUserData sets some user data associated with the session.
func (ss *ServerSession) SetUserData(v interface{}) {
	ss.propsMutex.Lock()
	defer ss.propsMutex.Unlock()
	ss.userData = v
}

// UserData returns some user data associated with the session.
func (ss *ServerSession) UserData() interface{} {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.userData
}

func (ss *ServerSession) setCSeq(v string) {
	ss.propsMutex.Lock()
	defer ss.propsMutex.Unlock()
	ss.cseq = v
}

func (ss *ServerSession) setClientInstance(v string) {
	ss.propsMutex.Lock()
	defer ss.propsMutex.Unlock()
	ss.clientInstance = v
}

func (ss *ServerSession) setAudio(v *description.Audio) {
	ss.propsMutex.Lock()
	defer ss.propsMutex.Unlock()
	ss.audio = v
}

func (ss *ServerSession) setTransport(v *headers.Transport) {
	ss.propsMutex.Lock()
	defer ss.propsMutex.Unlock()
	ss.transport = v
}

func (ss *ServerSession) authenticate() {
	ss.propsMutex.Lock()
	defer ss.propsMutex.Unlock()

	ss.authenticated = true
	if ss.state == ServerSessionStateIdle {
		ss.state = ServerSessionStateAuthenticated
	}
}

func (ss *ServerSession) startStreaming(grant uint64) {
	ss.propsMutex.Lock()
	defer ss.propsMutex.Unlock()

	ss.fairPlaySetup = true
	ss.streamGrant = grant
	ss.state = ServerSessionStateStreaming
}

func (ss *ServerSession) grant() uint64 {
	ss.propsMutex.RLock()
	defer ss.propsMutex.RUnlock()
	return ss.streamGrant
}

// teardown moves the session into the torn down state.
// It returns the stream grant held by the session, if any.
func (ss *ServerSession) teardown() uint64 {
	ss.propsMutex.Lock()
	defer ss.propsMutex.Unlock()

	grant := ss.streamGrant

	ss.state = ServerSessionStateTornDown
	ss.authenticated = false
	ss.fairPlaySetup = false
	ss.streamGrant = 0
	ss.conn = nil

	return grant
}
