package airsink

import (
	"time"

	"github.com/bluenviron/airsink/pkg/base"
)

// ServerHandler is the interface implemented by all the server handlers.
type ServerHandler interface{}

// ServerHandlerOnConnOpenCtx is the context of OnConnOpen.
type ServerHandlerOnConnOpenCtx struct {
	Conn *ServerConn
}

// ServerHandlerOnConnOpen can be implemented by a ServerHandler.
type ServerHandlerOnConnOpen interface {
	// called when a connection is opened.
	OnConnOpen(*ServerHandlerOnConnOpenCtx)
}

// ServerHandlerOnConnCloseCtx is the context of OnConnClose.
type ServerHandlerOnConnCloseCtx struct {
	Conn  *ServerConn
	Error error
}

// ServerHandlerOnConnClose can be implemented by a ServerHandler.
type ServerHandlerOnConnClose interface {
	// called when a connection is closed.
	OnConnClose(*ServerHandlerOnConnCloseCtx)
}

// ServerHandlerOnSessionOpenCtx is the context OnSessionOpen.
type ServerHandlerOnSessionOpenCtx struct {
	Session *ServerSession
	Conn    *ServerConn
}

// ServerHandlerOnSessionOpen can be implemented by a ServerHandler.
type ServerHandlerOnSessionOpen interface {
	// called when a session is opened.
	OnSessionOpen(*ServerHandlerOnSessionOpenCtx)
}

// ServerHandlerOnSessionCloseCtx is the context of ServerHandlerOnSessionClose.
type ServerHandlerOnSessionCloseCtx struct {
	Session *ServerSession
	Error   error
}

// ServerHandlerOnSessionClose can be implemented by a ServerHandler.
type ServerHandlerOnSessionClose interface {
	// called when a session is closed.
	OnSessionClose(*ServerHandlerOnSessionCloseCtx)
}

// ServerHandlerOnRequest can be implemented by a ServerHandler.
type ServerHandlerOnRequest interface {
	// called when receiving a request from a connection.
	OnRequest(*ServerConn, *base.Request)
}

// ServerHandlerOnResponse can be implemented by a ServerHandler.
type ServerHandlerOnResponse interface {
	// called when sending a response to a connection.
	OnResponse(*ServerConn, *base.Response)
}

// ServerHandlerOnStreamGrantCtx is the context of OnStreamGrant.
type ServerHandlerOnStreamGrantCtx struct {
	// new holder of the stream.
	Conn *ServerConn

	// previous holder of the stream, if any.
	Evicted *ServerConn

	// time spent generating the FairPlay key.
	KeyGenerationDuration time.Duration
}

// ServerHandlerOnStreamGrant can be implemented by a ServerHandler.
type ServerHandlerOnStreamGrant interface {
	// called when a connection is granted the stream.
	// It is called by the routine that arbitrates the stream
	// and must not block.
	OnStreamGrant(*ServerHandlerOnStreamGrantCtx)
}

// ServerHandlerOnStreamReleaseCtx is the context of OnStreamRelease.
type ServerHandlerOnStreamReleaseCtx struct {
	Conn *ServerConn
}

// ServerHandlerOnStreamRelease can be implemented by a ServerHandler.
type ServerHandlerOnStreamRelease interface {
	// called when the holder of the stream releases it.
	// It must not block.
	OnStreamRelease(*ServerHandlerOnStreamReleaseCtx)
}
