package main

import (
	"sync"

	"github.com/pion/logging"

	"github.com/bluenviron/airsink"
	"github.com/bluenviron/airsink/internal/obs"
	"github.com/bluenviron/airsink/pkg/base"
)

// serverHandler turns server events into logs and metrics.
type serverHandler struct {
	log     logging.LeveledLogger
	metrics *obs.Metrics

	// method of the request being processed, by connection.
	methods sync.Map
}

func (h *serverHandler) OnConnOpen(ctx *airsink.ServerHandlerOnConnOpenCtx) {
	h.log.Infof("[%v] connection opened", ctx.Conn.NetConn().RemoteAddr())
	h.metrics.ConnectionsActive.Inc()
}

func (h *serverHandler) OnConnClose(ctx *airsink.ServerHandlerOnConnCloseCtx) {
	h.log.Infof("[%v] connection closed (%d bytes received, %d sent): %v",
		ctx.Conn.NetConn().RemoteAddr(), ctx.Conn.BytesReceived(), ctx.Conn.BytesSent(), ctx.Error)
	h.metrics.ConnectionsActive.Dec()
	h.methods.Delete(ctx.Conn)
}

func (h *serverHandler) OnSessionOpen(ctx *airsink.ServerHandlerOnSessionOpenCtx) {
	h.log.Debugf("[%v] session %s opened", ctx.Conn.NetConn().RemoteAddr(), ctx.Session.ID())
}

func (h *serverHandler) OnSessionClose(ctx *airsink.ServerHandlerOnSessionCloseCtx) {
	h.log.Infof("session %s closed: %v", ctx.Session.ID(), ctx.Error)
}

func (h *serverHandler) OnRequest(sc *airsink.ServerConn, req *base.Request) {
	h.log.Debugf("[%v] [c->s] %s %s", sc.NetConn().RemoteAddr(), req.Method, req.URL)
	h.methods.Store(sc, req.Method)
}

func (h *serverHandler) OnResponse(sc *airsink.ServerConn, res *base.Response) {
	h.log.Debugf("[%v] [s->c] %d", sc.NetConn().RemoteAddr(), res.StatusCode)

	var method string
	if v, ok := h.methods.Load(sc); ok {
		method = string(v.(base.Method))
	}
	h.metrics.ObserveRequest(method, int(res.StatusCode))
}

func (h *serverHandler) OnStreamGrant(ctx *airsink.ServerHandlerOnStreamGrantCtx) {
	h.log.Infof("[%v] stream granted", ctx.Conn.NetConn().RemoteAddr())
	h.metrics.StreamGrantsTotal.Inc()
	h.metrics.KeyGenerationDuration.Observe(ctx.KeyGenerationDuration.Seconds())

	if ctx.Evicted != nil {
		h.metrics.StreamEvictionsTotal.Inc()
	}
}

func (h *serverHandler) OnStreamRelease(ctx *airsink.ServerHandlerOnStreamReleaseCtx) {
	h.log.Infof("[%v] stream released", ctx.Conn.NetConn().RemoteAddr())
}
