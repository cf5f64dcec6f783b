package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/schedview/internal/config"
	"github.com/me/schedview/internal/logging"
	"github.com/me/schedview/internal/server"
	"github.com/me/schedview/internal/simulator"
)

func main() {
	var (
		configFile   = flag.String("config", "", "Config file (default ./schedview.yaml or ~/.schedview/schedview.yaml)")
		addr         = flag.String("addr", "", "Listen address (default :8080)")
		processors   = flag.Int("processors", 0, "Number of processors")
		maxProcesses = flag.Int("max-processes", 0, "Ready plus running capacity before processes go to backup")
		memorySize   = flag.Int("memory", 0, "Total memory size")
		osSize       = flag.Int("os-size", 0, "Memory reserved for the operating system")
		logLevel     = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		logFormat    = flag.String("log-format", "", "Log format (text, json)")
		debug        = flag.Bool("debug", false, "Shorthand for --log-level=debug")
		autoStep     = flag.Duration("auto-step", 0, "Run a scheduling step on this interval (0 = only on request)")
		cors         = flag.Bool("cors", false, "Allow cross-origin requests from browser front ends")
	)
	flag.Parse()

	cfg, err := config.LoadSim(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over file and env.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "processors":
			cfg.Processors = *processors
		case "max-processes":
			cfg.MaxProcesses = *maxProcesses
		case "memory":
			cfg.MemorySize = *memorySize
		case "os-size":
			cfg.OSSize = *osSize
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "auto-step":
			cfg.AutoStep = *autoStep
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.FromFlags(*debug, cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sched := simulator.New(simulator.Params{
		Processors:   cfg.Processors,
		MaxProcesses: cfg.MaxProcesses,
		MemorySize:   cfg.MemorySize,
		OSSize:       cfg.OSSize,
	})

	var opts []server.Option
	if *cors {
		opts = append(opts, server.WithCORS())
	}
	srv := server.New(cfg, sched, logger, opts...)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var clock *simulator.Clock
	if cfg.AutoStep > 0 {
		clock = simulator.NewClock(sched, cfg.AutoStep, logger)
		go clock.Start(ctx)
	}

	go func() {
		logger.Info("simulator starting", "addr", cfg.Addr,
			"processors", cfg.Processors, "max_processes", cfg.MaxProcesses,
			"memory", cfg.MemorySize, "os_size", cfg.OSSize)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop the clock before the HTTP server.
	if clock != nil {
		clock.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
