package rtpsink

import (
	"github.com/pion/rtp"
)

const (
	reorderBufferSize = 64
)

// reorderer puts packets of a stream back in sequence order
// and drops duplicates.
type reorderer struct {
	initialized    bool
	expectedSeqNum uint16
	buffer         [reorderBufferSize]*rtp.Packet
}

// process returns the packets that can be emitted in order,
// and the number of packets that have been given up on.
func (r *reorderer) process(pkt *rtp.Packet) ([]*rtp.Packet, uint64) {
	if !r.initialized {
		r.initialized = true
		r.expectedSeqNum = pkt.SequenceNumber + 1
		return []*rtp.Packet{pkt}, 0
	}

	relPos := pkt.SequenceNumber - r.expectedSeqNum

	// late or duplicate
	if relPos >= 0x8000 {
		return nil, 0
	}

	// too far ahead: emit whatever is buffered and move on.
	if relPos >= reorderBufferSize {
		var out []*rtp.Packet

		for i := uint16(0); i < reorderBufferSize; i++ {
			p := (r.expectedSeqNum + i) & (reorderBufferSize - 1)
			if r.buffer[p] != nil {
				out = append(out, r.buffer[p])
				r.buffer[p] = nil
			}
		}

		lost := uint64(relPos) - uint64(len(out))
		r.expectedSeqNum = pkt.SequenceNumber + 1

		return append(out, pkt), lost
	}

	if relPos != 0 {
		p := pkt.SequenceNumber & (reorderBufferSize - 1)
		if r.buffer[p] == nil {
			r.buffer[p] = pkt
		}
		return nil, 0
	}

	out := []*rtp.Packet{pkt}
	r.expectedSeqNum++

	for {
		p := r.expectedSeqNum & (reorderBufferSize - 1)
		if r.buffer[p] == nil {
			break
		}

		out = append(out, r.buffer[p])
		r.buffer[p] = nil
		r.expectedSeqNum++
	}

	return out, 0
}
