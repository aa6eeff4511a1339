// Package traceserver implements "vanta serve": a websocket bridge
// that gives each connecting client its own replsrv.Session. Session
// lifecycle is logged with a uuid session id, with uptime and bytes
// transferred humanized in the disconnect line.
package traceserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"vanta/internal/replsrv"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts websocket connections on Addr and runs one
// replsrv.Session per connection.
type Server struct {
	Addr string

	mu       sync.Mutex
	sessions map[string]*trackedSession

	httpServer *http.Server
}

type trackedSession struct {
	id        string
	started   time.Time
	bytesSent int64
}

// New constructs a Server that will listen on addr once ListenAndServe
// is called.
func New(addr string) *Server {
	return &Server{Addr: addr, sessions: map[string]*trackedSession{}}
}

// ListenAndServe starts the HTTP/websocket listener and blocks until
// ctx is cancelled or the listener fails. The errgroup runs the
// listener and a watcher that closes the server when ctx is done.
// Connections are not in the errgroup: net/http handles each one on its
// own goroutine, and a session's evaluation errors are written back to
// its client rather than returned from ListenAndServe.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)
	s.httpServer = &http.Server{Addr: s.Addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("vanta serve: listening on %s", s.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.httpServer.Close()
	})
	return g.Wait()
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("vanta serve: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	tracked := &trackedSession{id: id, started: time.Now()}
	s.mu.Lock()
	s.sessions[id] = tracked
	s.mu.Unlock()
	log.Printf("vanta serve: session %s connected", id)

	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		log.Printf("vanta serve: session %s disconnected after %s, %s sent", id,
			humanize.Time(tracked.started), humanize.Bytes(uint64(tracked.bytesSent)))
	}()

	sink := &connWriter{conn: conn, tracked: tracked}
	session := replsrv.New(&nopReader{}, sink, 0, "")

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := session.Eval(string(msg)); err != nil {
			fmt.Fprintln(sink, err.Error())
		}
	}
}

// connWriter adapts a websocket connection to io.Writer so
// replsrv.Session's PRINT output and error messages go straight back
// to the client as text frames, tallying bytes sent for the
// disconnect log line.
type connWriter struct {
	conn    *websocket.Conn
	tracked *trackedSession
}

func (c *connWriter) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.TextMessage, p); err != nil {
		return 0, err
	}
	c.tracked.bytesSent += int64(len(p))
	return len(p), nil
}

// nopReader satisfies replsrv.New's io.Reader parameter: a
// traceserver session is driven by incoming websocket frames
// (Eval-per-message), not by scanning a local stdin.
type nopReader struct{}

func (nopReader) Read(p []byte) (int, error) { return 0, fmt.Errorf("traceserver: session input is driven by websocket frames, not Read") }
