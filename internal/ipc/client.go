package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/winstate/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// ListClients retrieves the managed client list
func (c *Client) ListClients() (*ClientsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListClients})
	if err != nil {
		return nil, err
	}

	var data ClientsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse clients data: %w", err)
	}

	return &data, nil
}

// GetClient retrieves one managed client's state
func (c *Client) GetClient(window uint32) (*ClientData, error) {
	payload, err := json.Marshal(GetClientPayload{Window: window})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal get-client payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandGetClient, Payload: payload})
	if err != nil {
		return nil, err
	}

	var data ClientData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse client data: %w", err)
	}

	return &data, nil
}

// SetDesktop switches the visible desktop
func (c *Client) SetDesktop(desktop uint) error {
	payload, err := json.Marshal(SetDesktopPayload{Desktop: desktop})
	if err != nil {
		return fmt.Errorf("failed to marshal set-desktop payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandSetDesktop, Payload: payload})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
