package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/carrick/snomap/internal/domain/ontology"
)

// Server is the daemon that listens on a Unix socket and serves terminology
// queries over an immutable, fully loaded engine.
type Server struct {
	engine   *ontology.Engine
	listener net.Listener
	sockPath string
	started  time.Time

	staleMu sync.Mutex
	stale   bool

	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server backed by the given query engine.
func NewServer(engine *ontology.Engine, sockPath string) *Server {
	return &Server{
		engine:     engine,
		sockPath:   sockPath,
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first — if the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	// Handle stale socket
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		// Stale socket — remove it
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing
// the socket file. Idempotent — safe to call multiple times (e.g., after
// remote shutdown + signal).
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh returns a channel that is closed when a remote shutdown
// request is received. The daemon's main goroutine should select on this
// alongside OS signals so the process actually exits after a remote stop.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

// MarkStale flags the in-memory tables as out of date with the release
// files on disk. Health reports the flag; queries keep answering from the
// loaded snapshot until the daemon is restarted.
func (s *Server) MarkStale() {
	s.staleMu.Lock()
	s.stale = true
	s.staleMu.Unlock()
}

func (s *Server) isStale() bool {
	s.staleMu.Lock()
	defer s.staleMu.Unlock()
	return s.stale
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, Response{Error: "invalid request JSON"})
			continue
		}

		resp := s.handleRequest(req)
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	switch req.Method {
	case MethodSearch:
		return s.handleSearch(req)
	case MethodUnique:
		return s.handleUnique(req)
	case MethodConcept:
		return s.handleConcept(req)
	case MethodParents:
		return s.handleParents(req)
	case MethodChildren:
		return s.handleChildren(req)
	case MethodAncestors:
		return s.handleAncestors(req)
	case MethodStats:
		return s.handleStats(req)
	case MethodHealth:
		return s.handleHealth(req)
	case MethodShutdown:
		return Response{ID: req.ID, Result: struct{}{}}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

// decodeParams re-marshals the loosely typed params into the expected shape.
func decodeParams(req Request, out interface{}) error {
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return err
	}
	return json.Unmarshal(paramsJSON, out)
}

func (s *Server) handleSearch(req Request) Response {
	var params SearchParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid search params"}
	}

	start := time.Now()
	concepts, err := s.engine.FindConcepts(params.Text)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}

	return Response{
		ID: req.ID,
		Result: SearchResult{
			Concepts: concepts,
			Count:    len(concepts),
			Elapsed:  time.Since(start).String(),
		},
	}
}

func (s *Server) handleUnique(req Request) Response {
	var params SearchParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid unique params"}
	}

	cui, ok, err := s.engine.FindUniqueCUI(params.Text)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: UniqueResult{CUI: cui, OK: ok}}
}

func (s *Server) handleConcept(req Request) Response {
	var params CUIParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid concept params"}
	}

	primary, err := s.engine.PrimaryConcept(params.CUI)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{
		ID: req.ID,
		Result: ConceptResult{
			Primary: primary,
			Rows:    s.engine.Store().ConceptsFor(params.CUI),
		},
	}
}

func (s *Server) handleParents(req Request) Response {
	var params CUIParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid parents params"}
	}

	concepts, err := s.engine.Parents(params.CUI, params.PrimaryOnly)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: ConceptsResult{Concepts: concepts, Count: len(concepts)}}
}

func (s *Server) handleChildren(req Request) Response {
	var params CUIParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid children params"}
	}

	concepts, err := s.engine.Children(params.CUI, params.PrimaryOnly)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: ConceptsResult{Concepts: concepts, Count: len(concepts)}}
}

func (s *Server) handleAncestors(req Request) Response {
	var params CUIParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid ancestors params"}
	}

	ancestors, err := s.engine.Ancestors(params.CUI)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: AncestorsResult{Ancestors: ancestors, Count: len(ancestors)}}
}

func (s *Server) handleStats(req Request) Response {
	store := s.engine.Store()
	return Response{
		ID: req.ID,
		Result: StatsResult{
			Releases:     store.Releases(),
			ConceptCount: store.ConceptCount(),
			CUICount:     store.CUICount(),
			EdgeCount:    store.EdgeCount(),
		},
	}
}

func (s *Server) handleHealth(req Request) Response {
	store := s.engine.Store()
	return Response{
		ID: req.ID,
		Result: HealthResult{
			Status:       "ok",
			Stale:        s.isStale(),
			ConceptCount: store.ConceptCount(),
			EdgeCount:    store.EdgeCount(),
			Uptime:       time.Since(s.started).Round(time.Second).String(),
		},
	}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
