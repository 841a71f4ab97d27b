// Command paritybuf runs the parity producers and consumers on a shared
// ring for a while and reports what the admission policy let through.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mandelsoft/handoff/internal/config"
	"github.com/mandelsoft/handoff/pkg/admission"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file (optional)")
	capacity := flag.Int("capacity", 0, "Ring capacity (overrides config)")
	duration := flag.Duration("duration", 0, "Run time (overrides config)")
	roles := flag.String("roles", "", "Comma separated roles (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging (logs every item)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	if *capacity != 0 {
		cfg.Capacity = *capacity
	}
	if *duration != 0 {
		cfg.DurationS = int((*duration + time.Second - 1) / time.Second)
	}
	if *roles != "" {
		cfg.Roles = strings.Split(*roles, ",")
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, err := cfg.Level()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	sys, err := admission.New(cfg.Options(logger))
	if err != nil {
		log.Fatalf("Failed to create system: %v", err)
	}
	parsed, err := cfg.ParsedRoles()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sys.Start(ctx, parsed...); err != nil {
		log.Fatalf("Failed to start actors: %v", err)
	}

	select {
	case <-ctx.Done():
		slog.Info("paritybuf: interrupted")
	case <-time.After(cfg.Duration()):
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.StopTimeout())
	defer cancel()
	stopErr := sys.Stop(stopCtx)
	if stopErr != nil {
		slog.Info("paritybuf: not all actors returned", "error", stopErr)
	}

	report(sys.Snapshot())
}

func report(s admission.Snapshot) {
	fmt.Printf("\n")
	fmt.Printf("Ring:      %d/%d items (%d even, %d odd)\n", s.Len, s.Cap, s.Even, s.Odd)
	fmt.Printf("Items:     %v\n", s.Items)
	fmt.Printf("Hand-offs: %d   Releases: %d   Peak holders: %d\n", s.Handoffs, s.Releases, s.Peak)
	fmt.Printf("\n")
	for _, r := range admission.Roles {
		fmt.Printf("  %-14s done=%-6d waiting=%d\n", r, s.Done[r], s.Waiters[r])
	}
}
