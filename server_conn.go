package airsink

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/bluenviron/airsink/pkg/base"
	"github.com/bluenviron/airsink/pkg/bytecounter"
	"github.com/bluenviron/airsink/pkg/conn"
	"github.com/bluenviron/airsink/pkg/description"
	"github.com/bluenviron/airsink/pkg/headers"
	"github.com/bluenviron/airsink/pkg/liberrors"
	"github.com/bluenviron/airsink/pkg/pairing"
)

func getClientInstance(header base.Header) string {
	for _, key := range []string{"Client-Instance", "DACP-ID"} {
		if h, ok := header[key]; ok && len(h) == 1 {
			return h[0]
		}
	}
	return ""
}

type readReq struct {
	req *base.Request
	res chan error
}

type evictReq struct {
	by    net.Addr
	grant uint64
}

// ServerConn is a server-side control connection.
type ServerConn struct {
	s     *Server
	nconn net.Conn

	ctx        context.Context
	ctxCancel  func()
	propsMutex sync.RWMutex
	userData   interface{}
	bc         *bytecounter.ByteCounter
	conn       *conn.Conn
	writeMutex sync.Mutex
	session    *ServerSession

	evictMutex sync.Mutex
	evictions  []evictReq

	// in
	chRequest   chan readReq
	chReadError chan error
	chEvicted   chan struct{}

	// out
	done chan struct{}
}

func (sc *ServerConn) initialize() {
	ctx, ctxCancel := context.WithCancel(sc.s.ctx)

	if sc.s.TLSConfig != nil {
		sc.nconn = tls.Server(sc.nconn, sc.s.TLSConfig)
	}

	sc.ctx = ctx
	sc.ctxCancel = ctxCancel
	sc.bc = bytecounter.New(sc.nconn)
	sc.conn = conn.NewConn(sc.bc)
	sc.conn.AssemblyTimeout = sc.s.AssemblyTimeout
	sc.chRequest = make(chan readReq)
	sc.chReadError = make(chan error)
	sc.chEvicted = make(chan struct{}, 1)
	sc.done = make(chan struct{})

	sc.s.wg.Add(1)
	go sc.run()
}

// Close closes the ServerConn.
func (sc *ServerConn) Close() {
	sc.ctxCancel()
}

// NetConn returns the underlying net.Conn.
func (sc *ServerConn) NetConn() net.Conn {
	return sc.nconn
}

// BytesReceived returns the number of read bytes.
func (sc *ServerConn) BytesReceived() uint64 {
	return sc.bc.BytesReceived()
}

// BytesSent returns the number of written bytes.
func (sc *ServerConn) BytesSent() uint64 {
	return sc.bc.BytesSent()
}

// SetUserData sets some user data associated with the connection.
func (sc *ServerConn) SetUserData(v interface{}) {
	sc.propsMutex.Lock()
	defer sc.propsMutex.Unlock()
	sc.userData = v
}

// UserData returns some user data associated with the connection.
func (sc *ServerConn) UserData() interface{} {
	sc.propsMutex.RLock()
	defer sc.propsMutex.RUnlock()
	return sc.userData
}

// Session returns the current session.
// It is nil between a teardown and the next request.
func (sc *ServerConn) Session() *ServerSession {
	sc.propsMutex.RLock()
	defer sc.propsMutex.RUnlock()
	return sc.session
}

func (sc *ServerConn) run() {
	defer sc.s.wg.Done()
	defer close(sc.done)

	if h, ok := sc.s.Handler.(ServerHandlerOnConnOpen); ok {
		h.OnConnOpen(&ServerHandlerOnConnOpenCtx{
			Conn: sc,
		})
	}

	sc.openSession()

	reader := &serverConnReader{
		sc: sc,
	}
	reader.initialize()

	err := sc.runInner()

	sc.ctxCancel()

	sc.nconn.Close()

	reader.wait()

	if sc.session != nil {
		sc.closeSession(liberrors.ErrServerConnClosed{Err: err}, true)
	}

	sc.s.closeConn(sc)

	if h, ok := sc.s.Handler.(ServerHandlerOnConnClose); ok {
		h.OnConnClose(&ServerHandlerOnConnCloseCtx{
			Conn:  sc,
			Error: err,
		})
	}
}

func (sc *ServerConn) runInner() error {
	for {
		select {
		case req := <-sc.chRequest:
			req.res <- sc.handleRequestOuter(req.req)

		case <-sc.chEvicted:
			sc.handleEvictions()

		case err := <-sc.chReadError:
			return err

		case <-sc.ctx.Done():
			return liberrors.ErrServerTerminated{}
		}
	}
}

func (sc *ServerConn) openSession() *ServerSession {
	ss := newServerSession(sc)

	sc.propsMutex.Lock()
	sc.session = ss
	sc.propsMutex.Unlock()

	if h, ok := sc.s.Handler.(ServerHandlerOnSessionOpen); ok {
		h.OnSessionOpen(&ServerHandlerOnSessionOpenCtx{
			Session: ss,
			Conn:    sc,
		})
	}

	return ss
}

func (sc *ServerConn) closeSession(err error, release bool) {
	ss := sc.session

	grant := ss.teardown()
	if release && grant != 0 {
		sc.s.releaseStream(sc, grant)
	}

	sc.propsMutex.Lock()
	sc.session = nil
	sc.propsMutex.Unlock()

	if h, ok := sc.s.Handler.(ServerHandlerOnSessionClose); ok {
		h.OnSessionClose(&ServerHandlerOnSessionCloseCtx{
			Session: ss,
			Error:   err,
		})
	}
}

// evict is called by the Server routine when the stream held by
// the connection has been granted to another connection.
func (sc *ServerConn) evict(by net.Addr, grant uint64) {
	sc.evictMutex.Lock()
	sc.evictions = append(sc.evictions, evictReq{by: by, grant: grant})
	sc.evictMutex.Unlock()

	select {
	case sc.chEvicted <- struct{}{}:
	default:
	}
}

func (sc *ServerConn) handleEvictions() {
	sc.evictMutex.Lock()
	evictions := sc.evictions
	sc.evictions = nil
	sc.evictMutex.Unlock()

	for _, e := range evictions {
		// the session may have claimed the stream again in the meanwhile.
		if sc.session != nil && sc.session.grant() == e.grant {
			sc.closeSession(liberrors.ErrServerStreamEvicted{By: e.by}, false)
		}
	}
}

// writeTeardownDirective is called by the Server routine.
func (sc *ServerConn) writeTeardownDirective() error {
	var sessionID string
	if ss := sc.Session(); ss != nil {
		sessionID = ss.ID()
	}

	req := newTeardownDirective("rtsp://"+sc.nconn.LocalAddr().String()+"/", sessionID)

	sc.writeMutex.Lock()
	defer sc.writeMutex.Unlock()

	sc.nconn.SetWriteDeadline(time.Now().Add(sc.s.WriteTimeout)) //nolint:errcheck
	return sc.conn.WriteRequest(req)
}

func (sc *ServerConn) writeResponse(res *base.Response) error {
	sc.writeMutex.Lock()
	defer sc.writeMutex.Unlock()

	sc.nconn.SetWriteDeadline(time.Now().Add(sc.s.WriteTimeout)) //nolint:errcheck
	return sc.conn.WriteResponse(res)
}

// currentSession returns the current session, opening a new one after a teardown,
// and records the request in it.
func (sc *ServerConn) currentSession(req *base.Request) *ServerSession {
	ss := sc.session
	if ss == nil {
		ss = sc.openSession()
	}

	if cseq, ok := req.Header["CSeq"]; ok && len(cseq) == 1 {
		ss.setCSeq(cseq[0])
	}

	if ci := getClientInstance(req.Header); ci != "" {
		ss.setClientInstance(ci)
	}

	return ss
}

func (sc *ServerConn) handleRequestInner(req *base.Request) (*base.Response, error) {
	if req.ContentLengthErr != nil {
		return &base.Response{
			StatusCode: base.StatusBadRequest,
		}, req.ContentLengthErr
	}

	switch req.Method {
	case base.Options:
		sc.currentSession(req)
		return &base.Response{
			StatusCode: base.StatusOK,
			Header: base.Header{
				"Public": base.HeaderValue{serverPublicMethods},
			},
		}, nil

	case base.Announce:
		return sc.handleAnnounce(sc.currentSession(req), req)

	case base.Setup:
		return sc.handleSetup(sc.currentSession(req), req)

	case base.Record:
		ss := sc.currentSession(req)
		return &base.Response{
			StatusCode: base.StatusOK,
			Header: base.Header{
				"Session": headers.Session{Session: ss.ID()}.Marshal(),
				"Range": headers.Range{
					Value: headers.RangeNPT{Start: 0},
				}.Marshal(),
			},
		}, nil

	case base.GetParameter:
		ss := sc.currentSession(req)
		return &base.Response{
			StatusCode: base.StatusOK,
			Header: base.Header{
				"Session":      headers.Session{Session: ss.ID()}.Marshal(),
				"Content-Type": base.HeaderValue{contentTypeParameters},
			},
		}, nil

	case base.SetParameter, base.Flush, base.Pause:
		return sessionAck(sc.currentSession(req)), nil

	case base.Teardown:
		ss := sc.currentSession(req)
		res := sessionAck(ss)
		sc.closeSession(liberrors.ErrServerSessionTeardown{Author: sc.nconn.RemoteAddr()}, true)
		return res, nil

	case base.Post:
		switch req.Path() {
		case "/pair-setup":
			sc.currentSession(req)
			return sc.handlePairSetup()

		case "/pair-verify":
			return sc.handlePairVerify(sc.currentSession(req), req)

		case "/fp-setup":
			return sc.handleFairPlaySetup(sc.currentSession(req))

		case "/stream":
			return sessionAck(sc.currentSession(req)), nil
		}
	}

	if pairing.ContainsFairPlayMessage(req.Raw) {
		return sc.handleFairPlayMessage(req)
	}

	return &base.Response{
		StatusCode: base.StatusNotImplemented,
	}, nil
}

func (sc *ServerConn) handleRequestOuter(req *base.Request) error {
	if h, ok := sc.s.Handler.(ServerHandlerOnRequest); ok {
		h.OnRequest(sc, req)
	}

	res, err := sc.handleRequestInner(req)
	if err != nil {
		sc.s.log.Debugf("[%v] %s %s: %v", sc.nconn.RemoteAddr(), req.Method, req.URL, err)
	}

	if res.Header == nil {
		res.Header = make(base.Header)
	}

	if cseq, ok := req.Header["CSeq"]; ok {
		res.Header["CSeq"] = cseq
	}

	res.Header["Server"] = base.HeaderValue{serverHeader}

	if h, ok := sc.s.Handler.(ServerHandlerOnResponse); ok {
		h.OnResponse(sc, res)
	}

	return sc.writeResponse(res)
}

func (sc *ServerConn) readRequest(req readReq) error {
	select {
	case sc.chRequest <- req:
		return <-req.res

	case <-sc.ctx.Done():
		return liberrors.ErrServerTerminated{}
	}
}

func (sc *ServerConn) readError(err error) {
	select {
	case sc.chReadError <- err:
	case <-sc.ctx.Done():
	}
}

func (sc *ServerConn) handleAnnounce(ss *ServerSession, req *base.Request) (*base.Response, error) {
	res := sessionAck(ss)

	ct, ok := req.Header["Content-Type"]
	if !ok || len(ct) != 1 || ct[0] != contentTypeSDP || len(req.Body) == 0 {
		return res, nil
	}

	var audio description.Audio
	err := audio.Unmarshal(req.Body)
	if err != nil {
		sc.s.log.Warnf("[%v] unable to parse announced description: %v", sc.nconn.RemoteAddr(), err)
		return res, nil
	}

	ss.setAudio(&audio)

	return res, nil
}

func (sc *ServerConn) handleSetup(ss *ServerSession, req *base.Request) (*base.Response, error) {
	var inTH headers.Transport
	if v, ok := req.Header["Transport"]; ok {
		err := inTH.Unmarshal(v)
		if err != nil {
			// a broken proposal is replaced by the default transport.
			sc.s.log.Debugf("[%v] invalid transport header: %v", sc.nconn.RemoteAddr(), err)
			inTH = headers.Transport{}
		}
	}

	ss.setTransport(&inTH)

	delivery := headers.TransportDeliveryUnicast
	clientPorts := sc.s.ClientPorts
	if inTH.ClientPorts != nil {
		clientPorts = *inTH.ClientPorts
	}
	serverPorts := sc.s.ServerPorts

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Session": headers.Session{Session: ss.ID()}.Marshal(),
			"Transport": headers.Transport{
				Protocol:    headers.TransportProtocolUDP,
				Delivery:    &delivery,
				ClientPorts: &clientPorts,
				ServerPorts: &serverPorts,
			}.Marshal(),
		},
	}, nil
}

func (sc *ServerConn) handlePairSetup() (*base.Response, error) {
	attempt, err := sc.s.Pairing.PairSetup()
	if err != nil {
		return &base.Response{
			StatusCode: base.StatusInternalServerError,
		}, err
	}

	byts, err := attempt.Marshal()
	if err != nil {
		return &base.Response{
			StatusCode: base.StatusInternalServerError,
		}, err
	}

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Content-Type": base.HeaderValue{contentTypeOctetStream},
		},
		Body: byts,
	}, nil
}

func (sc *ServerConn) handlePairVerify(ss *ServerSession, req *base.Request) (*base.Response, error) {
	if !req.HasSeparator {
		return &base.Response{
			StatusCode: base.StatusBadRequest,
		}, pairing.ErrMissingSeparator
	}

	var vr pairing.VerifyRequest
	err := vr.Unmarshal(req.Body)
	if err != nil {
		return &base.Response{
			StatusCode: base.StatusBadRequest,
		}, err
	}

	material, err := sc.s.Pairing.PairVerify(&vr)
	if err != nil {
		return &base.Response{
			StatusCode: base.StatusInternalServerError,
		}, err
	}

	byts, err := material.Marshal()
	if err != nil {
		return &base.Response{
			StatusCode: base.StatusInternalServerError,
		}, err
	}

	ss.authenticate()

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Content-Type": base.HeaderValue{contentTypeOctetStream},
		},
		Body: byts,
	}, nil
}

func (sc *ServerConn) handleFairPlaySetup(ss *ServerSession) (*base.Response, error) {
	res, err := sc.s.claimStream(sc)
	if err != nil {
		return &base.Response{
			StatusCode: base.StatusInternalServerError,
		}, err
	}

	ss.startStreaming(res.grant)

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Content-Type": base.HeaderValue{contentTypeOctetStream},
		},
		Body: res.publicKey,
	}, nil
}

func (sc *ServerConn) handleFairPlayMessage(req *base.Request) (*base.Response, error) {
	byts, err := sc.s.Pairing.FairPlayMessage(req.Raw)
	if err != nil {
		return &base.Response{
			StatusCode: base.StatusInternalServerError,
		}, err
	}

	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Content-Type": base.HeaderValue{contentTypeOctetStream},
		},
		Body: byts,
	}, nil
}

func sessionAck(ss *ServerSession) *base.Response {
	return &base.Response{
		StatusCode: base.StatusOK,
		Header: base.Header{
			"Session": headers.Session{Session: ss.ID()}.Marshal(),
		},
	}
}
