package transport

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsConnection adapts a *websocket.Conn's message-oriented API to the
// byte-stream Connection interface, buffering any unread tail of the
// current message the same way udpConnection buffers a datagram's tail.
// New transport, not present in the teacher; grounded on gorilla/websocket,
// the WebSocket library used across the retrieved example manifests.
type wsConnection struct {
	conn     *websocket.Conn
	leftover []byte
}

func newWSConnection(conn *websocket.Conn) *wsConnection {
	return &wsConnection{conn: conn}
}

func (c *wsConnection) Read(p []byte) (int, error) {
	if len(c.leftover) == 0 {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		c.leftover = data
	}
	n := copy(p, c.leftover)
	c.leftover = c.leftover[n:]
	return n, nil
}

func (c *wsConnection) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *wsConnection) Close() error { return c.conn.Close() }

func (c *wsConnection) SetDeadline(t time.Time) error {
	if err := c.conn.SetReadDeadline(t); err != nil {
		return err
	}
	return c.conn.SetWriteDeadline(t)
}

func (c *wsConnection) RemoteAddr() string { return c.conn.RemoteAddr().String() }

// DialWS opens a WebSocket connection to url (e.g. "ws://host:port/modbus").
func DialWS(url string) (Connection, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return newWSConnection(conn), nil
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsListener accepts WebSocket connections by upgrading incoming HTTP
// requests on a single handler.
type wsListener struct {
	addr     string
	incoming chan Connection
	server   *http.Server
}

// ListenWS starts an HTTP server on addr that upgrades every request on
// path to a WebSocket connection and hands it to Accept.
func ListenWS(addr, path string) (Listener, error) {
	l := &wsListener{
		addr:     addr,
		incoming: make(chan Connection),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		l.incoming <- newWSConnection(conn)
	})
	l.server = &http.Server{Addr: addr, Handler: mux}
	go l.server.ListenAndServe()
	return l, nil
}

func (l *wsListener) Accept() (Connection, error) {
	conn, ok := <-l.incoming
	if !ok {
		return nil, websocket.ErrCloseSent
	}
	return conn, nil
}

func (l *wsListener) Close() error { return l.server.Close() }
func (l *wsListener) Addr() string { return l.addr }
