// Command bsremote is a terminal client for remote-described UI pages.
// It can browse the built-in demo site or connect to a server over HTTP
// or the message bus.
package main

import (
	"fmt"
	"net"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/efroemling/ballistica-sub005/cmd/bsremote/tui"
	"github.com/efroemling/ballistica-sub005/internal/config"
	"github.com/efroemling/ballistica-sub005/internal/controller"
	"github.com/efroemling/ballistica-sub005/internal/dispatch"
	"github.com/efroemling/ballistica-sub005/internal/executor"
	"github.com/efroemling/ballistica-sub005/internal/fulfill"
	"github.com/efroemling/ballistica-sub005/internal/logging"
	"github.com/efroemling/ballistica-sub005/internal/pagecache"
	"github.com/efroemling/ballistica-sub005/internal/protocol"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "bsremote",
		Short:         "Remote-described UI client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "bsremote.yaml", "config file path")

	open := &cobra.Command{
		Use:   "open [path]",
		Short: "Open a page (default /)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cfg, path)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bsremote %s\n", version)
		},
	}

	root.AddCommand(open, versionCmd)
	return root
}

func run(cfg config.Config, path string) error {
	if err := logging.Initialize(logging.Options{
		Level:      cfg.Logging.Level,
		Debug:      cfg.Logging.Debug,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return err
	}
	defer logging.Sync()

	backend, cleanup, err := buildBackend(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := &fulfill.Pipeline{
		F:    fulfill.NewDeduper(backend),
		Gate: fulfill.NewGate(cfg.Client.BuildNumber),
	}

	var store *pagecache.Store
	if cfg.Cache.Enabled {
		store, err = pagecache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	pool := executor.NewPool(cfg.Executor.Workers, cfg.Executor.QueueSize)
	defer pool.Stop()

	app := tui.NewApp()
	program := tea.NewProgram(tui.NewModel(app), tea.WithAltScreen())
	poster := tui.NewProgramPoster(program)

	ctrl := controller.New(controller.Options{
		Pipeline: pipeline,
		Pool:     pool,
		UI:       poster,
		Renderer: tui.Renderer{},
		Effects:  app,
		Local:    app.HandleLocalAction,
		Store:    store,
	})
	app.Ctrl = ctrl
	app.Disp = dispatch.New(ctrl, app, app, app.HandleLocalAction)

	poster.Post(func() {
		app.OpenRoot(protocol.NewRequest(path, protocol.MethodGet, nil))
	})

	_, err = program.Run()
	return err
}

// buildBackend constructs the fulfiller for the configured transport.
func buildBackend(cfg config.Config) (fulfill.Fulfiller, func(), error) {
	switch cfg.Transport.Kind {
	case config.TransportLocal:
		return fulfill.NewLocalFulfiller(demoSite), func() {}, nil

	case config.TransportHTTP:
		if cfg.Transport.Endpoint == "" {
			return nil, nil, fmt.Errorf("http transport requires an endpoint")
		}
		return fulfill.NewHTTPBridge(cfg.Transport.Endpoint, cfg.HTTPTimeout()), func() {}, nil

	case config.TransportBus:
		if cfg.Transport.Endpoint == "" {
			return nil, nil, fmt.Errorf("bus transport requires an endpoint")
		}
		conn, err := net.Dial("tcp", cfg.Transport.Endpoint)
		if err != nil {
			return nil, nil, fmt.Errorf("dial bus: %w", err)
		}
		bridge := fulfill.NewBusBridge(conn)
		return bridge, func() { _ = bridge.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown transport kind %q", cfg.Transport.Kind)
	}
}
