// Package bytecounter contains a net.Conn wrapper that counts read and written bytes.
package bytecounter

import (
	"net"
	"sync/atomic"
)

// ByteCounter is a net.Conn wrapper that counts read and written bytes.
// Deadlines and addresses are the ones of the wrapped connection.
type ByteCounter struct {
	net.Conn

	received atomic.Uint64
	sent     atomic.Uint64
}

// New allocates a ByteCounter.
func New(nconn net.Conn) *ByteCounter {
	return &ByteCounter{
		Conn: nconn,
	}
}

// Read implements net.Conn.
func (bc *ByteCounter) Read(p []byte) (int, error) {
	n, err := bc.Conn.Read(p)
	bc.received.Add(uint64(n))
	return n, err
}

// Write implements net.Conn.
func (bc *ByteCounter) Write(p []byte) (int, error) {
	n, err := bc.Conn.Write(p)
	bc.sent.Add(uint64(n))
	return n, err
}

// BytesReceived returns the number of bytes received.
func (bc *ByteCounter) BytesReceived() uint64 {
	return bc.received.Load()
}

// BytesSent returns the number of bytes sent.
func (bc *ByteCounter) BytesSent() uint64 {
	return bc.sent.Load()
}
