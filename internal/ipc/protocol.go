package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/winstate/internal/client"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandListClients CommandType = "LIST_CLIENTS"
	CommandGetClient   CommandType = "GET_CLIENT"
	CommandSetDesktop  CommandType = "SET_DESKTOP"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Desktops       uint  `json:"desktops"`
	CurrentDesktop uint  `json:"current_desktop"`
	ClientCount    int   `json:"client_count"`
	UptimeSeconds  int64 `json:"uptime_seconds"`
}

// ClientsData represents the data returned by LIST_CLIENTS
type ClientsData struct {
	Clients []client.Snapshot `json:"clients"`
}

// ClientData represents the data returned by GET_CLIENT
type ClientData struct {
	Client client.Snapshot `json:"client"`
}

// GetClientPayload selects the window for GET_CLIENT
type GetClientPayload struct {
	Window uint32 `json:"window"`
}

// SetDesktopPayload carries the target desktop for SET_DESKTOP
type SetDesktopPayload struct {
	Desktop uint `json:"desktop"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
