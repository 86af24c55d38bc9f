package ipc

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/geometry"
	"github.com/1broseidon/winstate/internal/screen"
)

// stubDisplay serves fixed properties for any window.
type stubDisplay struct{}

func (stubDisplay) Geometry(xproto.Window) (geometry.Rect, int, error) {
	return geometry.Rect{X: 10, Y: 10, Width: 400, Height: 300}, 0, nil
}
func (stubDisplay) NormalHints(xproto.Window) *icccm.NormalHints  { return nil }
func (stubDisplay) WmHints(xproto.Window) *icccm.Hints            { return nil }
func (stubDisplay) MotifHints(xproto.Window) []uint               { return nil }
func (stubDisplay) TypeAtoms(xproto.Window) []string              { return nil }
func (stubDisplay) StateAtoms(xproto.Window) []string             { return nil }
func (stubDisplay) Desktop(xproto.Window) (uint, bool)            { return 0, false }
func (stubDisplay) Protocols(xproto.Window) []string              { return []string{"WM_DELETE_WINDOW"} }
func (stubDisplay) Title(xproto.Window) string                    { return "stub" }
func (stubDisplay) IconTitle(xproto.Window) string                { return "" }
func (stubDisplay) Class(xproto.Window) (string, string)          { return "stub", "Stub" }
func (stubDisplay) Role(xproto.Window) string                     { return "" }
func (stubDisplay) Icons(xproto.Window) []ewmh.WmIcon             { return nil }
func (stubDisplay) TransientFor(xproto.Window) xproto.Window      { return 0 }
func (stubDisplay) Strut(xproto.Window) *ewmh.WmStrutPartial      { return nil }
func (stubDisplay) Shaped(xproto.Window) bool                     { return false }
func (stubDisplay) Configure(xproto.Window, geometry.Rect)        {}
func (stubDisplay) SetBorderWidth(xproto.Window, int)             {}
func (stubDisplay) MapWindow(xproto.Window)                       {}
func (stubDisplay) UnmapWindow(xproto.Window)                     {}
func (stubDisplay) SetWMState(xproto.Window, int)                 {}
func (stubDisplay) SetStateAtoms(xproto.Window, []string)         {}
func (stubDisplay) SetAllowedActions(xproto.Window, []string)     {}
func (stubDisplay) SetDesktopProp(xproto.Window, uint)            {}
func (stubDisplay) SendDelete(xproto.Window)                      {}
func (stubDisplay) FocusWindow(xproto.Window)                     {}
func (stubDisplay) SendTakeFocus(xproto.Window)                   {}
func (stubDisplay) Validate(xproto.Window) bool                   { return true }

type stubRoot struct{}

func (stubRoot) ScreenGeometry() geometry.Rect          { return geometry.Rect{Width: 1280, Height: 1024} }
func (stubRoot) SetClientList([]xproto.Window)          {}
func (stubRoot) SetNumberOfDesktops(uint)               {}
func (stubRoot) SetDesktopNames([]string)               {}
func (stubRoot) SetCurrentDesktop(uint)                 {}
func (stubRoot) SetWorkArea(uint, geometry.Rect)        {}
func (stubRoot) SetActiveWindow(xproto.Window)          {}

func newTestServer(t *testing.T) (*Server, *screen.Screen) {
	t.Helper()
	scr := screen.New(screen.Config{
		Display: stubDisplay{},
		Root:    stubRoot{},
		Conf:    config.Default(),
	})
	s := &Server{
		scr:       scr,
		log:       slog.Default(),
		startTime: time.Now(),
	}
	return s, scr
}

func TestHandleCommand_Status(t *testing.T) {
	s, scr := newTestServer(t)
	if _, err := scr.Manage(1); err != nil {
		t.Fatalf("Manage: %v", err)
	}

	resp := s.handleCommand(&Request{Command: CommandGetStatus})
	if resp.Status != "OK" {
		t.Fatalf("unexpected status %q (%s)", resp.Status, resp.Error)
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		t.Fatalf("data: %v", err)
	}
	if status.Desktops != 4 || status.ClientCount != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestHandleCommand_GetClient(t *testing.T) {
	s, scr := newTestServer(t)
	if _, err := scr.Manage(7); err != nil {
		t.Fatalf("Manage: %v", err)
	}

	payload, _ := json.Marshal(GetClientPayload{Window: 7})
	resp := s.handleCommand(&Request{Command: CommandGetClient, Payload: payload})
	if resp.Status != "OK" {
		t.Fatalf("unexpected status %q (%s)", resp.Status, resp.Error)
	}

	var data ClientData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("data: %v", err)
	}
	if data.Client.Window != 7 || data.Client.Title != "stub" {
		t.Fatalf("unexpected client %+v", data.Client)
	}

	// Unknown window is an error, not a panic.
	payload, _ = json.Marshal(GetClientPayload{Window: 99})
	resp = s.handleCommand(&Request{Command: CommandGetClient, Payload: payload})
	if resp.Status != "ERROR" {
		t.Fatalf("expected error for unknown window")
	}
}

func TestHandleCommand_SetDesktop(t *testing.T) {
	s, scr := newTestServer(t)

	payload, _ := json.Marshal(SetDesktopPayload{Desktop: 2})
	resp := s.handleCommand(&Request{Command: CommandSetDesktop, Payload: payload})
	if resp.Status != "OK" {
		t.Fatalf("unexpected status %q (%s)", resp.Status, resp.Error)
	}
	if scr.CurrentDesktop() != 2 {
		t.Fatalf("desktop switch not applied, got %d", scr.CurrentDesktop())
	}

	payload, _ = json.Marshal(SetDesktopPayload{Desktop: 9})
	resp = s.handleCommand(&Request{Command: CommandSetDesktop, Payload: payload})
	if resp.Status != "ERROR" {
		t.Fatalf("expected error for out-of-range desktop")
	}
}

func TestHandleConnection_RoundTrip(t *testing.T) {
	s, scr := newTestServer(t)
	if _, err := scr.Manage(1); err != nil {
		t.Fatalf("Manage: %v", err)
	}

	cli, srv := net.Pipe()
	go s.handleConnection(srv)

	if _, err := cli.Write([]byte(`{"command":"LIST_CLIENTS"}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err := bufio.NewReader(cli).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	cli.Close()

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("response: %v", err)
	}
	if resp.Status != "OK" {
		t.Fatalf("unexpected status %q (%s)", resp.Status, resp.Error)
	}

	var data ClientsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("data: %v", err)
	}
	if len(data.Clients) != 1 || data.Clients[0].Window != 1 {
		t.Fatalf("unexpected clients %+v", data.Clients)
	}
}

func TestHandleConnection_InvalidRequest(t *testing.T) {
	s, _ := newTestServer(t)

	cli, srv := net.Pipe()
	go s.handleConnection(srv)

	if _, err := cli.Write([]byte("not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	line, err := bufio.NewReader(cli).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	cli.Close()

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("response: %v", err)
	}
	if resp.Status != "ERROR" {
		t.Fatalf("expected parse error response")
	}
}
