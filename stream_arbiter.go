package airsink

// streamArbiter tracks the connection that is entitled to stream.
// It is owned by the Server routine.
type streamArbiter struct {
	// writes a teardown directive to a connection.
	writeDirective func(*ServerConn) error

	// called when a directive can't be written.
	onDirectiveError func(*ServerConn, error)

	holder    *ServerConn
	grant     uint64
	lastGrant uint64
}

// claim grants the stream to sc.
// If another connection holds the stream, a teardown directive is written
// to it before the grant is recorded. Failing to write the directive
// does not prevent the grant.
// It returns the grant identifier and the evicted connection, if any.
func (a *streamArbiter) claim(sc *ServerConn) (uint64, *ServerConn, uint64) {
	if a.holder == sc {
		return a.grant, nil, 0
	}

	evicted := a.holder
	evictedGrant := a.grant

	if evicted != nil {
		err := a.writeDirective(evicted)
		if err != nil && a.onDirectiveError != nil {
			a.onDirectiveError(evicted, err)
		}
	}

	a.lastGrant++
	a.holder = sc
	a.grant = a.lastGrant

	return a.grant, evicted, evictedGrant
}

// release clears the slot if sc holds it under the given grant.
// Releasing a slot that is not held by sc does nothing.
func (a *streamArbiter) release(sc *ServerConn, grant uint64) bool {
	if a.holder != sc || a.grant != grant {
		return false
	}

	a.holder = nil
	a.grant = 0
	return true
}

// releaseConn clears the slot if sc holds it, whatever the grant.
func (a *streamArbiter) releaseConn(sc *ServerConn) bool {
	if a.holder != sc {
		return false
	}

	a.holder = nil
	a.grant = 0
	return true
}
