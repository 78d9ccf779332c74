package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/TFMV/graphsurface/config"
	"github.com/TFMV/graphsurface/ingest"
	"github.com/TFMV/graphsurface/logging"
	"github.com/TFMV/graphsurface/models"
	"github.com/TFMV/graphsurface/physics"
	"github.com/TFMV/graphsurface/render"
	"github.com/TFMV/graphsurface/server"
	"github.com/TFMV/graphsurface/surface"
	"github.com/TFMV/graphsurface/tui"
)

// Configuration represents the command-line settings
type Configuration struct {
	Mode       string
	ConfigFile string
	ScriptFile string
	OutputFile string
	Format     string
	Addr       string
	Ticks      int
	DebugMode  bool
}

func main() {
	// Create a context that can be canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := parseConfig()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, opts)

	logger, closer, err := newLogger(cfg, opts.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	// Handle OS signals for graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("received shutdown signal, gracefully shutting down")
		cancel()
	}()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("exiting", "mode", opts.Mode, "error", err)
		closer.Close()
		os.Exit(1)
	}
}

// parseConfig parses command-line flags and returns a Configuration object
func parseConfig() *Configuration {
	opts := &Configuration{}

	flag.StringVar(&opts.Mode, "mode", "window", "Run mode: window, tui, server, replay")
	flag.StringVar(&opts.ConfigFile, "config", "", "Path to YAML configuration file")
	flag.StringVar(&opts.ScriptFile, "script", "", "Path to event script (JSON or CSV) for replay mode")
	flag.StringVar(&opts.OutputFile, "output", "", "Path to output file (defaults to 'output.[format]')")
	flag.StringVar(&opts.Format, "format", "svg", "Replay output format: svg, ascii, json, dot")
	flag.StringVar(&opts.Addr, "addr", "", "Listen address for server mode (overrides config)")
	flag.IntVar(&opts.Ticks, "ticks", -1, "Settle ticks after a replay (defaults to physics.settle_ticks)")
	flag.BoolVar(&opts.DebugMode, "debug", false, "Enable debug logging")

	flag.Parse()

	if opts.Mode == "replay" && opts.ScriptFile == "" {
		fmt.Fprintln(os.Stderr, "Please provide an event script using -script flag")
		flag.Usage()
		os.Exit(1)
	}

	if opts.OutputFile == "" {
		opts.OutputFile = "output." + outputExtension(opts.Format)
	}

	return opts
}

// applyFlags overlays command-line settings onto the file configuration
func applyFlags(cfg *config.Config, opts *Configuration) {
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Ticks >= 0 {
		cfg.Physics.SettleTicks = opts.Ticks
	}
	if opts.DebugMode {
		cfg.Log.Level = "debug"
	}
}

// newLogger builds the process logger. The terminal surface owns stderr,
// so its logs are dropped unless a log file is configured.
func newLogger(cfg *config.Config, mode string) (*slog.Logger, io.Closer, error) {
	if mode == "tui" && cfg.Log.File == "" {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, nil, err
		}
		return logging.NewWithWriter(io.Discard, cfg.Log.Format, level), logging.NopCloser, nil
	}
	return logging.New(cfg.Log)
}

func run(ctx context.Context, cfg *config.Config, opts *Configuration, logger *slog.Logger) error {
	switch opts.Mode {
	case "window":
		sim := newSimulation(cfg, logger)
		return surface.Run(cfg.Window, sim, logger)
	case "tui":
		sim := newSimulation(cfg, logger)
		return tui.Run(ctx, cfg.Window, sim, logger)
	case "server":
		return server.New(cfg, logger).Start(ctx)
	case "replay":
		return replay(ctx, cfg, opts, logger)
	default:
		return fmt.Errorf("unsupported mode: %s", opts.Mode)
	}
}

func newSimulation(cfg *config.Config, logger *slog.Logger) *physics.Simulation {
	sim := physics.New(cfg.Physics.Settings())
	sim.SetLogger(logger)
	return sim
}

// replay plays an event script, settles the layout and renders the final
// frame to the output file
func replay(ctx context.Context, cfg *config.Config, opts *Configuration, logger *slog.Logger) error {
	script, err := loadScript(opts.ScriptFile)
	if err != nil {
		return err
	}

	renderer, err := render.GetRenderer(opts.Format)
	if err != nil {
		return err
	}

	session := models.NewSession(script.Name)
	sim := newSimulation(cfg, logger)

	res, err := ingest.Play(ctx, sim, script)
	if err != nil {
		return fmt.Errorf("replay %s: %w", opts.ScriptFile, err)
	}
	logger.Info("script replayed", "steps", len(script.Steps), "vertices", len(res.Vertices), "tick", res.Stats.Tick)

	if cfg.Physics.SettleTicks > 0 {
		ticks, err := sim.Settle(ctx, cfg.Physics.SettleTicks)
		if err != nil {
			return fmt.Errorf("settle: %w", err)
		}
		logger.Info("layout settled", "ticks", ticks, "stable", sim.Last().Stable)
		if ticks > 0 {
			res = physics.Result{Stats: sim.Last(), Vertices: sim.Snapshot()}
		}
	}

	options := render.NewDefaultOptions(opts.Format)
	options.Width = float64(cfg.Window.Width)
	options.Height = float64(cfg.Window.Height)
	options.FgRadius = cfg.Window.FgRadius
	options.BgRadius = cfg.Window.BgRadius

	output, err := renderer.Render(models.NewFrame(session.ID, res), options)
	if err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputFile, output, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	logger.Info("processing complete", "output", opts.OutputFile, "format", opts.Format)
	return nil
}

// loadScript reads and parses the script file based on its extension
func loadScript(path string) (*models.Script, error) {
	processor, err := ingest.GetProcessor(strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	script, err := processor.ProcessData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", path, err)
	}
	return script, nil
}

func outputExtension(format string) string {
	switch format {
	case "ascii":
		return "txt"
	default:
		return format
	}
}
