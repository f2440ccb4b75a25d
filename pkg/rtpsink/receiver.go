// Package rtpsink receives an audio stream over RTP and writes its payloads to disk.
package rtpsink

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
)

// Receiver receives RTP packets on a pair of UDP ports.
// The payload of each packet is appended to a file named after the packet SSRC,
// inside OutputDir.
type Receiver struct {
	//
	// Parameters
	//

	// directory where payloads are written.
	// It defaults to the working directory.
	OutputDir string

	// IP to listen on.
	// It defaults to all interfaces.
	ListenIP string

	// port of RTP packets. RTCP packets are received on the next port.
	// It defaults to a random pair.
	RTPPort int

	// function used to open UDP sockets.
	// It defaults to net.ListenPacket.
	ListenPacket func(network, address string) (net.PacketConn, error)

	// function used to obtain the current time.
	// It defaults to time.Now.
	TimeNow func() time.Time

	// Logger factory.
	// It defaults to logging.NewDefaultLoggerFactory().
	LoggerFactory logging.LoggerFactory

	//
	// Callbacks (all optional)
	//

	// called when a RTP packet is received.
	// The packet is valid only until the callback returns.
	OnPacketRTP func(*rtp.Packet)

	// called when RTCP packets are received.
	OnPacketsRTCP func([]rtcp.Packet)

	// called when packets are considered lost.
	OnPacketsLost func(ssrc uint32, count uint64)

	log   logging.LeveledLogger
	rtpl  *udpListener
	rtcpl *udpListener

	mutex   sync.Mutex
	streams map[uint32]*receiverStream
}

type receiverStream struct {
	f         *os.File
	reorderer reorderer
}

// Initialize binds the listeners and starts receiving.
func (r *Receiver) Initialize() error {
	if r.OutputDir == "" {
		r.OutputDir = "."
	}
	if r.ListenPacket == nil {
		r.ListenPacket = net.ListenPacket
	}
	if r.TimeNow == nil {
		r.TimeNow = time.Now
	}
	if r.LoggerFactory == nil {
		r.LoggerFactory = logging.NewDefaultLoggerFactory()
	}

	r.log = r.LoggerFactory.NewLogger("rtpsink")

	err := os.MkdirAll(r.OutputDir, 0o755)
	if err != nil {
		return err
	}

	r.rtpl, r.rtcpl, err = newUDPListenerPair(r.ListenPacket, r.ListenIP, r.RTPPort)
	if err != nil {
		return err
	}

	r.streams = make(map[uint32]*receiverStream)

	r.rtpl.start(r.readRTP)
	r.rtcpl.start(r.readRTCP)

	r.log.Infof("receiving RTP on port %d, RTCP on port %d", r.rtpl.port(), r.rtcpl.port())

	return nil
}

// Close stops the listeners and closes all files.
func (r *Receiver) Close() {
	r.rtpl.close()
	r.rtcpl.close()

	r.mutex.Lock()
	defer r.mutex.Unlock()

	for ssrc, st := range r.streams {
		err := st.f.Close()
		if err != nil {
			r.log.Warnf("unable to close output of SSRC %d: %v", ssrc, err)
		}
	}
	r.streams = nil
}

// Ports returns the RTP and RTCP ports.
func (r *Receiver) Ports() [2]int {
	return [2]int{r.rtpl.port(), r.rtcpl.port()}
}

func (r *Receiver) readRTP(buf []byte, addr *net.UDPAddr) {
	// packets may be held by the reorderer while the read buffer is reused.
	buf = append([]byte(nil), buf...)

	var pkt rtp.Packet
	err := pkt.Unmarshal(buf)
	if err != nil {
		r.log.Debugf("invalid RTP packet from %v: %v", addr, err)
		return
	}

	out, lost, err := r.process(&pkt)
	if err != nil {
		r.log.Warnf("unable to write RTP payload: %v", err)
		return
	}

	if lost != 0 {
		r.log.Debugf("%d RTP packets lost (SSRC %d)", lost, pkt.SSRC)

		if r.OnPacketsLost != nil {
			r.OnPacketsLost(pkt.SSRC, lost)
		}
	}

	if r.OnPacketRTP != nil {
		for _, p := range out {
			r.OnPacketRTP(p)
		}
	}
}

func (r *Receiver) readRTCP(buf []byte, addr *net.UDPAddr) {
	pkts, err := rtcp.Unmarshal(buf)
	if err != nil {
		r.log.Debugf("invalid RTCP packet from %v: %v", addr, err)
		return
	}

	for _, pkt := range pkts {
		r.log.Debugf("RTCP from %v: %T", addr, pkt)
	}

	if r.OnPacketsRTCP != nil {
		r.OnPacketsRTCP(pkts)
	}
}

func (r *Receiver) process(pkt *rtp.Packet) ([]*rtp.Packet, uint64, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.streams == nil {
		return nil, 0, fmt.Errorf("terminated")
	}

	st, ok := r.streams[pkt.SSRC]
	if !ok {
		fpath := filepath.Join(r.OutputDir,
			strconv.FormatUint(uint64(pkt.SSRC), 10)+"-"+strconv.FormatInt(r.TimeNow().Unix(), 10)+".raw")

		f, err := os.OpenFile(fpath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, 0, err
		}

		r.log.Infof("writing stream %d to %s", pkt.SSRC, fpath)
		st = &receiverStream{f: f}
		r.streams[pkt.SSRC] = st
	}

	out, lost := st.reorderer.process(pkt)

	for _, p := range out {
		_, err := st.f.Write(p.Payload)
		if err != nil {
			return nil, 0, err
		}
	}

	return out, lost, nil
}
