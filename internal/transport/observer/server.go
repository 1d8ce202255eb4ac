// Package observer serves the websocket stream of sim frames. Clients send a
// HELLO, receive a WELCOME, then get STATE and REPORT frames as the clock
// runs. ACTION frames on the same connection are applied through the facade
// and answered with a RESULT on that connection only.
package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"emberhall/internal/protocol"
)

// Facade is the slice of the game loop the transport needs. Both calls are
// serialized by the loop that implements them.
type Facade interface {
	Welcome() protocol.WelcomeMsg
	Apply(act protocol.ActionMsg) protocol.ResultMsg
}

type Server struct {
	facade Facade
	log    *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu   sync.Mutex
	subs map[uint64]chan []byte
}

func NewServer(facade Facade, logger *log.Logger) *Server {
	return &Server{
		facade: facade,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: make(map[uint64]chan []byte),
	}
}

// Broadcast fans a frame out to every connected observer. Slow readers drop
// frames rather than stall the clock.
func (s *Server) Broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- b:
		default:
		}
	}
}

// Subscribers reports the current connection count.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.handshake(conn) {
			return
		}

		id := s.nextID.Add(1)
		out := make(chan []byte, 256)
		s.mu.Lock()
		s.subs[id] = out
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		}()

		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-done:
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		// Reader loop: ACTION frames get applied, everything else is ignored.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			kind, err := protocol.DecodeBase(msg)
			if err != nil || kind != protocol.TypeAction {
				continue
			}
			var act protocol.ActionMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			res := s.facade.Apply(act)
			b, err := json.Marshal(res)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			default:
				// Result dropped with the rest of a slow client's frames.
			}
		}

		close(done)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
	}
}

func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil || hello.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return false
	}

	welcome := s.facade.Welcome()
	b, err := json.Marshal(welcome)
	if err != nil {
		return false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b) == nil
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
