package transport

import (
	"errors"
	"net"
	"sync"
	"time"
)

// maxDatagramFrameLength bounds the largest single read/leftover buffer
// udpConnection keeps around, mirroring the teacher's maxTCPFrameLength
// reuse in udp.go.
const maxDatagramFrameLength = 260

// errNoUDPPeer is returned by an unconnected (listening) udpConnection's
// Write before any datagram has ever been received, since there is no
// peer yet to address a reply to.
var errNoUDPPeer = errors.New("transport: no UDP peer known yet")

// udpConnection adapts a *net.UDPConn to Connection, presenting the same
// byte-stream Read() contract as tcpConnection by buffering any leftover
// bytes of a datagram across calls. Grounded on the teacher's
// udpSockWrapper (udp.go); RemoteAddr here reports the canonical
// net.UDPAddr string form rather than the typo'd `startingAddress` field
// noted in spec.md Design Notes §9.
//
// DialUDP produces a connected socket (connected=true): the OS already
// knows the single peer, so Read/Write use it directly. ListenUDP
// produces an unconnected socket bound only to a local address: Write has
// no implicit destination, so udpConnection tracks the address of the
// last peer it read a datagram from (via ReadFromUDP) and addresses
// replies to it with WriteToUDP.
type udpConnection struct {
	sock      *net.UDPConn
	connected bool

	rxbuf         []byte
	leftoverCount int

	mu   sync.Mutex
	peer *net.UDPAddr
}

func newUDPConnection(sock *net.UDPConn, connected bool) *udpConnection {
	return &udpConnection{sock: sock, connected: connected, rxbuf: make([]byte, maxDatagramFrameLength)}
}

func (c *udpConnection) Read(buf []byte) (int, error) {
	if c.leftoverCount > 0 {
		copied := copy(buf, c.rxbuf[:c.leftoverCount])
		if c.leftoverCount > copied {
			copy(c.rxbuf, c.rxbuf[copied:c.leftoverCount])
		}
		c.leftoverCount -= copied
		return copied, nil
	}

	var n int
	var err error
	if c.connected {
		n, err = c.sock.Read(c.rxbuf)
	} else {
		var from *net.UDPAddr
		n, from, err = c.sock.ReadFromUDP(c.rxbuf)
		if err == nil {
			c.mu.Lock()
			c.peer = from
			c.mu.Unlock()
		}
	}
	if err != nil {
		return 0, err
	}
	copied := copy(buf, c.rxbuf[:n])
	if n > copied {
		copy(c.rxbuf, c.rxbuf[copied:n])
	}
	c.leftoverCount = n - copied
	return copied, nil
}

func (c *udpConnection) Write(buf []byte) (int, error) {
	if c.connected {
		return c.sock.Write(buf)
	}
	c.mu.Lock()
	peer := c.peer
	c.mu.Unlock()
	if peer == nil {
		return 0, errNoUDPPeer
	}
	return c.sock.WriteToUDP(buf, peer)
}

func (c *udpConnection) Close() error                  { return c.sock.Close() }
func (c *udpConnection) SetDeadline(t time.Time) error { return c.sock.SetDeadline(t) }

func (c *udpConnection) RemoteAddr() string {
	if c.connected {
		if addr, ok := c.sock.RemoteAddr().(*net.UDPAddr); ok {
			return addr.String()
		}
		return c.sock.RemoteAddr().String()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peer != nil {
		return c.peer.String()
	}
	return c.sock.LocalAddr().String()
}

// DialUDP connects a UDP socket to addr. UDP has no listener/accept
// concept in this package; the serving side uses ListenUDP, whose single
// Connection replies to whichever peer sent the last datagram.
func DialUDP(addr string) (Connection, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	sock, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, err
	}
	return newUDPConnection(sock, true), nil
}

// ListenUDP opens a UDP socket bound to addr, accepting datagrams from any
// peer; the returned Connection's Write sends to whichever peer last sent
// a datagram it read, matching a single-peer RTU-over-UDP gateway use.
func ListenUDP(addr string) (Connection, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	sock, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return newUDPConnection(sock, false), nil
}
