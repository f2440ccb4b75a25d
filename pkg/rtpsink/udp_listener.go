package rtpsink

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"strconv"
)

const (
	udpKernelReadBufferSize = 0x80000
	udpMaxPayloadSize       = 1472
	maxPairAttempts         = 100
)

func randInRange(maxVal int) (int, error) {
	b := big.NewInt(int64(maxVal + 1))
	n, err := rand.Int(rand.Reader, b)
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

type udpListener struct {
	pc      *net.UDPConn
	onData  func(buf []byte, addr *net.UDPAddr)
	done    chan struct{}
	running bool
}

func newUDPListener(
	listenPacket func(network, address string) (net.PacketConn, error),
	address string,
) (*udpListener, error) {
	tmp, err := listenPacket("udp", address)
	if err != nil {
		return nil, err
	}
	pc := tmp.(*net.UDPConn)

	err = pc.SetReadBuffer(udpKernelReadBufferSize)
	if err != nil {
		pc.Close()
		return nil, err
	}

	return &udpListener{
		pc:   pc,
		done: make(chan struct{}),
	}, nil
}

// newUDPListenerPair binds two consecutive ports.
// When firstPort is zero, the pair is picked randomly in range 10000-65535
// and the RTP port is even.
func newUDPListenerPair(
	listenPacket func(network, address string) (net.PacketConn, error),
	ip string,
	firstPort int,
) (*udpListener, *udpListener, error) {
	if firstPort != 0 {
		rtpl, err := newUDPListener(listenPacket, net.JoinHostPort(ip, strconv.Itoa(firstPort)))
		if err != nil {
			return nil, nil, err
		}

		rtcpl, err := newUDPListener(listenPacket, net.JoinHostPort(ip, strconv.Itoa(firstPort+1)))
		if err != nil {
			rtpl.close()
			return nil, nil, err
		}

		return rtpl, rtcpl, nil
	}

	for range maxPairAttempts {
		v, err := randInRange((65535 - 10000) / 2)
		if err != nil {
			return nil, nil, err
		}
		rtpPort := v*2 + 10000

		rtpl, err := newUDPListener(listenPacket, net.JoinHostPort(ip, strconv.Itoa(rtpPort)))
		if err != nil {
			continue
		}

		rtcpl, err := newUDPListener(listenPacket, net.JoinHostPort(ip, strconv.Itoa(rtpPort+1)))
		if err != nil {
			rtpl.close()
			continue
		}

		return rtpl, rtcpl, nil
	}

	return nil, nil, fmt.Errorf("unable to find a free pair of ports")
}

func (u *udpListener) start(onData func(buf []byte, addr *net.UDPAddr)) {
	u.onData = onData
	u.running = true
	go u.run()
}

func (u *udpListener) close() {
	u.pc.Close()
	if u.running {
		<-u.done
	}
}

func (u *udpListener) port() int {
	return u.pc.LocalAddr().(*net.UDPAddr).Port
}

func (u *udpListener) run() {
	defer close(u.done)

	buf := make([]byte, udpMaxPayloadSize+1)

	for {
		n, addr, err := u.pc.ReadFromUDP(buf)
		if err != nil {
			return
		}

		u.onData(buf[:n], addr)
	}
}
