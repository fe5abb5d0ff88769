package slave

import (
	"sync"

	"github.com/nexusmb/gomodbus/adu"
	"github.com/nexusmb/gomodbus/internal/log"
	"github.com/nexusmb/gomodbus/transport"
)

// RemoteClient is the Slave-side handle for one connected peer: it wraps
// the peer's Connection with the transport's streaming decoder. A
// RequestHandler can read the peer's address and Close it; responses are
// written by the Slave itself through the unexported write. Grounded on the
// teacher's bare net.Conn entries in ModbusServer.tcpClients, generalized
// into its own type to carry remote identity and per-client dispatch
// state (spec.md §3, "RemoteClient").
type RemoteClient struct {
	conn   transport.Connection
	stream *adu.Stream
	codec  adu.Codec
	logger log.Logger

	mu     sync.Mutex
	closed bool
}

func newRemoteClient(conn transport.Connection, mode adu.Mode, logger log.Logger, streamOpts ...adu.StreamOption) *RemoteClient {
	var codec adu.Codec
	switch mode {
	case adu.ModeIP:
		codec = adu.IPCodec{}
	case adu.ModeRTU:
		codec = adu.RTUCodec{}
	case adu.ModeASCII:
		codec = adu.ASCIICodec{}
	}
	c := &RemoteClient{
		conn:   conn,
		stream: adu.NewStream(mode, streamOpts...),
		codec:  codec,
		logger: logger,
	}
	return c
}

// RemoteAddr identifies the peer, as reported by the underlying
// Connection.
func (c *RemoteClient) RemoteAddr() string { return c.conn.RemoteAddr() }

// write sends a pre-framed ADU's wire bytes to the peer.
func (c *RemoteClient) write(wire []byte) error {
	_, err := c.conn.Write(wire)
	return err
}

// Close closes the peer's connection. Safe to call more than once.
func (c *RemoteClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *RemoteClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
