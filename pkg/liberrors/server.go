// Package liberrors contains errors returned by the library.
package liberrors

import (
	"fmt"
	"net"
)

// ErrServerTerminated is an error that can be returned by a server.
type ErrServerTerminated struct{}

// Error implements the error interface.
func (e ErrServerTerminated) Error() string {
	return "terminated"
}

// ErrServerDeviceKeyMissing is an error that can be returned by a server.
type ErrServerDeviceKeyMissing struct{}

// Error implements the error interface.
func (e ErrServerDeviceKeyMissing) Error() string {
	return "device key is missing"
}

// ErrServerInvalidKeyGenerationMode is an error that can be returned by a server.
type ErrServerInvalidKeyGenerationMode struct {
	Mode fmt.Stringer
}

// Error implements the error interface.
func (e ErrServerInvalidKeyGenerationMode) Error() string {
	return fmt.Sprintf("invalid key generation mode (%v)", e.Mode)
}

// ErrServerRequestTooLarge is an error that can be returned by a server.
type ErrServerRequestTooLarge struct {
	Limit int
}

// Error implements the error interface.
func (e ErrServerRequestTooLarge) Error() string {
	return fmt.Sprintf("request exceeds %d bytes", e.Limit)
}

// ErrServerSessionTeardown is an error that can be returned by a server.
type ErrServerSessionTeardown struct {
	Author net.Addr
}

// Error implements the error interface.
func (e ErrServerSessionTeardown) Error() string {
	return fmt.Sprintf("teared down by %v", e.Author)
}

// ErrServerStreamEvicted is an error that can be returned by a server.
type ErrServerStreamEvicted struct {
	By net.Addr
}

// Error implements the error interface.
func (e ErrServerStreamEvicted) Error() string {
	return fmt.Sprintf("stream taken over by %v", e.By)
}

// ErrServerConnClosed is an error that can be returned by a server.
type ErrServerConnClosed struct {
	Err error
}

// Error implements the error interface.
func (e ErrServerConnClosed) Error() string {
	return fmt.Sprintf("connection closed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e ErrServerConnClosed) Unwrap() error {
	return e.Err
}
