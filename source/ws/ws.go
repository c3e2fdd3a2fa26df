// Package ws feeds WebSocket messages into a queue.
//
// Server accepts any number of clients and merges their messages into one stream;
// Dial reads the messages a remote endpoint sends to us.
package ws

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lixenwraith/termqueue/source"
)

// Message is one received WebSocket data frame
type Message struct {
	Conn string // Connection id, assigned per accepted or dialed connection
	Type int    // websocket.TextMessage or websocket.BinaryMessage
	Data []byte
}

// Server is an http.Handler whose connections feed a single source
type Server struct {
	*source.Chan[Message]

	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[string]*websocket.Conn
	closed bool
	wg     sync.WaitGroup
}

// NewServer accepts connections from any origin; put it behind a listener that is
// not exposed beyond localhost unless CheckOrigin is tightened
func NewServer(buffer int) *Server {
	return &Server{
		Chan: source.NewChan[Message](buffer),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[string]*websocket.Conn),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conns[id] = conn
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		conn.Close()
	}()

	log.Printf("[ws] client %s connected from %s", id, r.RemoteAddr)
	if err := readMessages(conn, id, s.Chan); err != nil {
		log.Printf("[ws] client %s: %v", id, err)
	}
}

// Clients reports the number of open connections
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Close disconnects all clients and ends the stream
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	for _, conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.Chan.Close()
	s.wg.Wait()
}

// Client reads messages sent by a remote endpoint
type Client struct {
	*source.Chan[Message]

	conn      *websocket.Conn
	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}
}

// Dial connects to url; a remote close ends the stream cleanly, other read errors fault it
func Dial(url string, buffer int) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", url, err)
	}

	c := &Client{
		Chan:    source.NewChan[Message](buffer),
		conn:    conn,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.pump(uuid.NewString())
	return c, nil
}

func (c *Client) pump(id string) {
	defer close(c.done)
	err := readMessages(c.conn, id, c.Chan)

	select {
	case <-c.closing:
		c.Chan.Close()
		return
	default:
	}
	if err != nil {
		c.CloseWithError(fmt.Errorf("ws: read: %w", err))
		return
	}
	c.Chan.Close()
}

// Close sends a close frame, drops the connection and ends the stream
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
		err = c.conn.Close()
		c.Chan.Close()
		<-c.done
	})
	return err
}

// readMessages pushes frames until the connection ends
// Returns nil on a normal close or when the sink stopped accepting
func readMessages(conn *websocket.Conn, id string, sink *source.Chan[Message]) error {
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if !sink.Push(Message{Conn: id, Type: typ, Data: data}) {
			return nil
		}
	}
}
