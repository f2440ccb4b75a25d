// Package airsink is an AirPlay audio receiver.
//
// A Server accepts control connections, performs the pairing handshakes,
// negotiates transports and arbitrates which connection owns the stream:
// when a connection claims the stream, the previous holder receives a
// TEARDOWN request and its session is torn down.
package airsink

import (
	"context"
	"crypto/ed25519"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/bluenviron/airsink/internal/workerpool"
	"github.com/bluenviron/airsink/pkg/base"
	"github.com/bluenviron/airsink/pkg/conn"
	"github.com/bluenviron/airsink/pkg/liberrors"
	"github.com/bluenviron/airsink/pkg/pairing"
)

// KeyGenerationMode is the routine in charge of generating FairPlay keys.
type KeyGenerationMode int

const (
	// KeyGenerationModePool generates keys in a pool of workers.
	// The requesting connection waits for the key, other connections
	// and the stream arbitration are not affected.
	KeyGenerationModePool KeyGenerationMode = iota

	// KeyGenerationModeInline generates keys inside the routine that
	// arbitrates the stream. Claims of other connections wait until
	// generation is complete.
	KeyGenerationModeInline
)

// String implements fmt.Stringer.
func (m KeyGenerationMode) String() string {
	switch m {
	case KeyGenerationModePool:
		return "pool"

	case KeyGenerationModeInline:
		return "inline"
	}
	return "unknown"
}

type claimStreamRes struct {
	publicKey []byte
	grant     uint64
	err       error
}

type claimStreamReq struct {
	sc  *ServerConn
	res chan claimStreamRes
}

type keyGenerationRes struct {
	req       claimStreamReq
	publicKey []byte
	err       error
	duration  time.Duration
}

type releaseStreamReq struct {
	sc    *ServerConn
	grant uint64
}

// Server is an AirPlay receiver.
type Server struct {
	//
	// RTSP parameters (all optional except Address and DeviceKey)
	//
	// the RTSP server calls functions of Handler to notify events.
	Handler ServerHandler
	// address of the control listener.
	Address string
	// device key, used to sign pairing handshakes and to identify the device.
	// It is mandatory when Pairing is nil.
	DeviceKey ed25519.PrivateKey
	// pairing engine.
	// It defaults to an engine that uses DeviceKey.
	Pairing *pairing.Engine
	// timeout of write operations.
	// It defaults to 10 seconds.
	WriteTimeout time.Duration
	// time to wait for the rest of a request whose headers are not terminated.
	// It defaults to 100 milliseconds.
	AssemblyTimeout time.Duration
	// a TLS configuration to accept TLS connections.
	TLSConfig *tls.Config
	// routine in charge of generating FairPlay keys.
	// It defaults to KeyGenerationModePool.
	KeyGenerationMode KeyGenerationMode
	// number of workers that generate FairPlay keys in KeyGenerationModePool.
	// It defaults to 2.
	KeyGenerationWorkers int
	// client ports advertised in SETUP responses when the client doesn't provide them.
	// They default to 5000-5001.
	ClientPorts [2]int
	// server ports advertised in SETUP responses.
	// They default to 5002-5003.
	ServerPorts [2]int

	//
	// system functions (all optional)
	//
	// function used to initialize the TCP listener.
	// It defaults to net.Listen.
	Listen func(network string, address string) (net.Listener, error)
	// logger factory.
	// It defaults to logging.NewDefaultLoggerFactory().
	LoggerFactory logging.LoggerFactory

	ctx         context.Context
	ctxCancel   func()
	wg          sync.WaitGroup
	log         logging.LeveledLogger
	tcpListener *serverTCPListener
	keyPool     *workerpool.Pool
	conns       map[*ServerConn]struct{}
	arbiter     streamArbiter
	closeError  error

	// in
	chNewConn       chan net.Conn
	chAcceptErr     chan error
	chCloseConn     chan *ServerConn
	chClaimStream   chan claimStreamReq
	chKeyGenerated  chan keyGenerationRes
	chReleaseStream chan releaseStreamReq
	chStreamHolder  chan chan *ServerConn
}

// Start starts the server.
func (s *Server) Start() error {
	// RTSP parameters
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 10 * time.Second
	}
	if s.AssemblyTimeout == 0 {
		s.AssemblyTimeout = conn.DefaultAssemblyTimeout
	}
	if s.KeyGenerationWorkers == 0 {
		s.KeyGenerationWorkers = 2
	}
	if s.ClientPorts == [2]int{} {
		s.ClientPorts = [2]int{5000, 5001}
	}
	if s.ServerPorts == [2]int{} {
		s.ServerPorts = [2]int{5002, 5003}
	}

	// system functions
	if s.Listen == nil {
		s.Listen = net.Listen
	}
	if s.LoggerFactory == nil {
		s.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	if s.Address == "" {
		return fmt.Errorf("address not provided")
	}

	switch s.KeyGenerationMode {
	case KeyGenerationModePool, KeyGenerationModeInline:
	default:
		return liberrors.ErrServerInvalidKeyGenerationMode{Mode: s.KeyGenerationMode}
	}

	if s.Pairing == nil {
		s.Pairing = &pairing.Engine{
			DeviceKey: s.DeviceKey,
		}
	}

	err := s.Pairing.Initialize()
	if err != nil {
		if errors.Is(err, pairing.ErrDeviceKeyNotSet) {
			return liberrors.ErrServerDeviceKeyMissing{}
		}
		return err
	}

	s.log = s.LoggerFactory.NewLogger("airsink")

	s.ctx, s.ctxCancel = context.WithCancel(context.Background())

	s.conns = make(map[*ServerConn]struct{})
	s.arbiter = streamArbiter{
		writeDirective: func(sc *ServerConn) error {
			return sc.writeTeardownDirective()
		},
		onDirectiveError: func(sc *ServerConn, err error) {
			s.log.Warnf("unable to send TEARDOWN to %v: %v", sc.NetConn().RemoteAddr(), err)
		},
	}

	s.chNewConn = make(chan net.Conn)
	s.chAcceptErr = make(chan error)
	s.chCloseConn = make(chan *ServerConn)
	s.chClaimStream = make(chan claimStreamReq)
	s.chKeyGenerated = make(chan keyGenerationRes)
	s.chReleaseStream = make(chan releaseStreamReq)
	s.chStreamHolder = make(chan chan *ServerConn)

	if s.KeyGenerationMode == KeyGenerationModePool {
		s.keyPool = &workerpool.Pool{
			Workers: s.KeyGenerationWorkers,
		}
		s.keyPool.Initialize()
		s.keyPool.Start()
	}

	s.tcpListener = &serverTCPListener{
		s: s,
	}
	err = s.tcpListener.initialize()
	if err != nil {
		if s.keyPool != nil {
			s.keyPool.Close()
		}
		s.ctxCancel()
		return err
	}

	s.wg.Add(1)
	go s.run()

	return nil
}

// Close closes all the server resources and waits for them to close.
func (s *Server) Close() {
	s.ctxCancel()
	s.wg.Wait()
}

// Wait waits until all server resources are closed.
// This can happen when a fatal error occurs or when Close() is called.
func (s *Server) Wait() error {
	s.wg.Wait()
	return s.closeError
}

// StartAndWait starts the server and waits until a fatal error.
func (s *Server) StartAndWait() error {
	err := s.Start()
	if err != nil {
		return err
	}

	return s.Wait()
}

// StreamHolder returns the connection that currently holds the stream, if any.
func (s *Server) StreamHolder() *ServerConn {
	res := make(chan *ServerConn, 1)

	select {
	case s.chStreamHolder <- res:
		return <-res
	case <-s.ctx.Done():
		return nil
	}
}

func (s *Server) run() {
	defer s.wg.Done()

	s.closeError = s.runInner()

	s.ctxCancel()

	s.tcpListener.close()

	if s.keyPool != nil {
		s.keyPool.Close()
	}
}

func (s *Server) runInner() error {
	for {
		select {
		case err := <-s.chAcceptErr:
			return err

		case nconn := <-s.chNewConn:
			sc := &ServerConn{
				s:     s,
				nconn: nconn,
			}
			sc.initialize()
			s.conns[sc] = struct{}{}

		case sc := <-s.chCloseConn:
			if _, ok := s.conns[sc]; !ok {
				continue
			}
			delete(s.conns, sc)

			if s.arbiter.releaseConn(sc) {
				s.onStreamRelease(sc)
			}

		case req := <-s.chClaimStream:
			s.handleClaimStream(req)

		case res := <-s.chKeyGenerated:
			s.grantStream(res)

		case req := <-s.chReleaseStream:
			if s.arbiter.release(req.sc, req.grant) {
				s.onStreamRelease(req.sc)
			}

		case res := <-s.chStreamHolder:
			res <- s.arbiter.holder

		case <-s.ctx.Done():
			return liberrors.ErrServerTerminated{}
		}
	}
}

func (s *Server) generateKey(req claimStreamReq) keyGenerationRes {
	start := time.Now()
	publicKey, err := s.Pairing.FairPlaySetup()

	return keyGenerationRes{
		req:       req,
		publicKey: publicKey,
		err:       err,
		duration:  time.Since(start),
	}
}

func (s *Server) handleClaimStream(req claimStreamReq) {
	if s.KeyGenerationMode == KeyGenerationModeInline {
		s.grantStream(s.generateKey(req))
		return
	}

	ok := s.keyPool.Push(func(ctx context.Context) {
		res := s.generateKey(req)

		select {
		case s.chKeyGenerated <- res:
		case <-ctx.Done():
		}
	})
	if !ok {
		req.res <- claimStreamRes{err: fmt.Errorf("key generation queue is full")}
	}
}

func (s *Server) grantStream(res keyGenerationRes) {
	if res.err != nil {
		res.req.res <- claimStreamRes{err: res.err}
		return
	}

	// the connection may have been closed during key generation.
	if _, ok := s.conns[res.req.sc]; !ok {
		res.req.res <- claimStreamRes{err: liberrors.ErrServerTerminated{}}
		return
	}

	grant, evicted, evictedGrant := s.arbiter.claim(res.req.sc)

	if evicted != nil {
		s.log.Infof("stream taken over by %v, evicting %v",
			res.req.sc.NetConn().RemoteAddr(), evicted.NetConn().RemoteAddr())
		evicted.evict(res.req.sc.NetConn().RemoteAddr(), evictedGrant)
	} else {
		s.log.Infof("stream granted to %v", res.req.sc.NetConn().RemoteAddr())
	}

	if h, ok := s.Handler.(ServerHandlerOnStreamGrant); ok {
		h.OnStreamGrant(&ServerHandlerOnStreamGrantCtx{
			Conn:                  res.req.sc,
			Evicted:               evicted,
			KeyGenerationDuration: res.duration,
		})
	}

	res.req.res <- claimStreamRes{
		publicKey: res.publicKey,
		grant:     grant,
	}
}

func (s *Server) onStreamRelease(sc *ServerConn) {
	s.log.Infof("stream released by %v", sc.NetConn().RemoteAddr())

	if h, ok := s.Handler.(ServerHandlerOnStreamRelease); ok {
		h.OnStreamRelease(&ServerHandlerOnStreamReleaseCtx{
			Conn: sc,
		})
	}
}

func (s *Server) newConn(nconn net.Conn) {
	select {
	case s.chNewConn <- nconn:
	case <-s.ctx.Done():
		nconn.Close()
	}
}

func (s *Server) acceptErr(err error) {
	select {
	case s.chAcceptErr <- err:
	case <-s.ctx.Done():
	}
}

func (s *Server) closeConn(sc *ServerConn) {
	select {
	case s.chCloseConn <- sc:
	case <-s.ctx.Done():
	}
}

// claimStream generates a FairPlay key and grants the stream to sc.
func (s *Server) claimStream(sc *ServerConn) (claimStreamRes, error) {
	req := claimStreamReq{
		sc:  sc,
		res: make(chan claimStreamRes, 1),
	}

	select {
	case s.chClaimStream <- req:
	case <-sc.ctx.Done():
		return claimStreamRes{}, liberrors.ErrServerTerminated{}
	}

	select {
	case res := <-req.res:
		return res, res.err
	case <-sc.ctx.Done():
		return claimStreamRes{}, liberrors.ErrServerTerminated{}
	}
}

func (s *Server) releaseStream(sc *ServerConn, grant uint64) {
	select {
	case s.chReleaseStream <- releaseStreamReq{sc: sc, grant: grant}:
	case <-s.ctx.Done():
	}
}

func newTeardownDirective(url string, sessionID string) *base.Request {
	req := &base.Request{
		Method: base.Teardown,
		URL:    url,
		Header: base.Header{
			"CSeq": base.HeaderValue{"0"},
		},
	}

	if sessionID != "" {
		req.Header["Session"] = base.HeaderValue{sessionID}
	}

	return req
}
