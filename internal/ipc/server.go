package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/winstate/internal/client"
	"github.com/1broseidon/winstate/internal/runtimepath"
	"github.com/1broseidon/winstate/internal/screen"
)

// Server answers state queries over a unix socket.
type Server struct {
	socketPath   string
	listener     net.Listener
	scr          *screen.Screen
	log          *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server serving the given screen's state.
func NewServer(scr *screen.Screen, log *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	if log == nil {
		log = slog.Default()
	}

	return &Server{
		socketPath: socketPath,
		scr:        scr,
		log:        log,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// Serve runs the server until the context is canceled. It satisfies the
// suture service contract.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.log.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.log.Warn("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListClients:
		return s.handleListClients()
	case CommandGetClient:
		return s.handleGetClient(req.Payload)
	case CommandSetDesktop:
		return s.handleSetDesktop(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Desktops:       s.scr.DesktopCount(),
		CurrentDesktop: s.scr.CurrentDesktop(),
		ClientCount:    len(s.scr.Clients()),
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleListClients() *Response {
	data := ClientsData{Clients: s.scr.Snapshots()}
	if data.Clients == nil {
		// Keep JSON as [] rather than null.
		data.Clients = []client.Snapshot{}
	}
	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleGetClient(payload json.RawMessage) *Response {
	var req GetClientPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid get-client payload: %v", err))
	}

	c := s.scr.Lookup(xproto.Window(req.Window))
	if c == nil {
		return NewErrorResponse(fmt.Sprintf("No managed window %d", req.Window))
	}

	resp, _ := NewOKResponse(ClientData{Client: c.Snapshot()})
	return resp
}

func (s *Server) handleSetDesktop(payload json.RawMessage) *Response {
	var req SetDesktopPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid set-desktop payload: %v", err))
	}

	if req.Desktop >= s.scr.DesktopCount() {
		return NewErrorResponse(fmt.Sprintf("Desktop %d out of range", req.Desktop))
	}
	s.scr.SetCurrentDesktop(req.Desktop)

	resp, _ := NewOKResponse(nil)
	return resp
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
