package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phsym/console-slog"
	"github.com/thejerf/suture/v4"

	"github.com/1broseidon/winstate/internal/config"
	"github.com/1broseidon/winstate/internal/ipc"
	"github.com/1broseidon/winstate/internal/screen"
	"github.com/1broseidon/winstate/internal/x11"
)

const version = "0.1.0"

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "clients":
		os.Exit(runClients(os.Args[2:]))
	case "client":
		os.Exit(runClient(os.Args[2:]))
	case "desktop":
		os.Exit(runDesktop(os.Args[2:]))
	case "version":
		fmt.Println("winstate", version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winstate <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the window manager (foreground)")
	fmt.Fprintln(w, "  status              Show manager status")
	fmt.Fprintln(w, "  clients             List managed windows")
	fmt.Fprintln(w, "  client <window>     Show one window's state")
	fmt.Fprintln(w, "  desktop <n>         Switch to desktop n")
	fmt.Fprintln(w, "  version             Print version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winstate <command> --help' for command-specific options.")
}

func initLogger(level slog.Level) *slog.Logger {
	log := slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(log)
	return log
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := initLogger(level)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		return 1
	}

	conn, err := x11.NewConnection()
	if err != nil {
		log.Error("failed to connect to X server", "error", err)
		return 1
	}
	defer conn.Close()

	display := x11.NewDisplay(conn, log)
	scr := screen.New(screen.Config{
		Display: display,
		Root:    conn,
		Conf:    cfg,
		Logger:  log,
	})

	conn.AttachHandler(scr, log)
	conn.AdoptExisting(scr, log)

	server, err := ipc.NewServer(scr, log)
	if err != nil {
		log.Error("failed to set up IPC server", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sup := suture.New("winstate", suture.Spec{EventHook: sutureEventHook(log)})
	sup.Add(server)
	sup.Add(serviceFunc{name: "x11-events", fn: func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			conn.Quit()
		}()
		conn.EventLoop()
		return ctx.Err()
	}})

	log.Info("winstate running",
		"version", version, "desktops", cfg.Desktops.Count)

	if err := sup.Serve(ctx); err != nil && ctx.Err() == nil {
		log.Error("supervisor exited", "error", err)
		return 1
	}
	return 0
}

// serviceFunc adapts a plain function to the suture service contract.
type serviceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (s serviceFunc) String() string                  { return s.name }
func (s serviceFunc) Serve(ctx context.Context) error { return s.fn(ctx) }

func sutureEventHook(log *slog.Logger) suture.EventHook {
	return func(ei suture.Event) {
		switch e := ei.(type) {
		case suture.EventServicePanic:
			log.Error("service panicked", "service", e.ServiceName, "panic", e.PanicMsg)
		case suture.EventServiceTerminate:
			log.Error("service failed", "service", e.ServiceName, "error", e.Err)
		case suture.EventBackoff:
			log.Debug("supervisor entering backoff", "supervisor", e.SupervisorName)
		case suture.EventResume:
			log.Debug("supervisor exiting backoff", "supervisor", e.SupervisorName)
		}
	}
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	fmt.Printf("Desktops:        %d\n", status.Desktops)
	fmt.Printf("Current desktop: %d\n", status.CurrentDesktop)
	fmt.Printf("Managed windows: %d\n", status.ClientCount)
	fmt.Printf("Uptime:          %ds\n", status.UptimeSeconds)
	return 0
}

func runClients(args []string) int {
	fs := flag.NewFlagSet("clients", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	data, err := ipc.NewClient().ListClients()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	for _, c := range data.Clients {
		desktop := strconv.FormatUint(uint64(c.Desktop), 10)
		if c.Desktop == 0xFFFFFFFF {
			desktop = "all"
		}
		fmt.Printf("0x%08x  desk=%-4s layer=%-10s %s\n",
			uint32(c.Window), desktop, c.Layer, c.Title)
	}
	return 0
}

func runClient(args []string) int {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: winstate client <window-id>")
		return 2
	}

	win, err := strconv.ParseUint(fs.Arg(0), 0, 32)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid window id:", fs.Arg(0))
		return 2
	}

	data, err := ipc.NewClient().GetClient(uint32(win))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	c := data.Client
	fmt.Printf("Window:  0x%08x\n", uint32(c.Window))
	fmt.Printf("Title:   %s\n", c.Title)
	fmt.Printf("Class:   %s.%s\n", c.AppName, c.AppClass)
	fmt.Printf("Type:    %s\n", c.Type)
	fmt.Printf("Desktop: %d\n", c.Desktop)
	fmt.Printf("Layer:   %s\n", c.Layer)
	fmt.Printf("Area:    %dx%d+%d+%d\n", c.Area.Width, c.Area.Height, c.Area.X, c.Area.Y)
	fmt.Printf("States:  iconic=%v shaded=%v maxH=%v maxV=%v fullscreen=%v urgent=%v\n",
		c.Iconic, c.Shaded, c.MaxHorz, c.MaxVert, c.Fullscreen, c.Urgent)
	return 0
}

func runDesktop(args []string) int {
	fs := flag.NewFlagSet("desktop", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: winstate desktop <n>")
		return 2
	}

	d, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid desktop:", fs.Arg(0))
		return 2
	}

	if err := ipc.NewClient().SetDesktop(uint(d)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
