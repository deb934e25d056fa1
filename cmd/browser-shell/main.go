// Package main runs the interactive shell against a browser daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/channel"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/config"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/shell"
)

func main() {
	cfg, natural, err := parseFlags()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cfg, natural); err != nil && err != context.Canceled {
		log.Fatalf("Shell error: %v", err)
	}
}

func parseFlags() (*config.Config, bool, error) {
	configPath := flag.String("config", os.Getenv("BROWSERD_CONFIG"), "Path to YAML config file (or set BROWSERD_CONFIG)")
	transport := flag.String("transport", "", "Transport: file or socket (overrides config)")
	dir := flag.String("dir", "", "Directory holding the file transport's command/result slots")
	socket := flag.String("socket", "", "Unix socket path for the socket transport")
	natural := flag.Bool("natural", false, "Accept loose English phrases instead of structured commands")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "browser-shell - interactive shell for the browser daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: browser-shell [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nStart browserd first, then drive it from here:\n")
		fmt.Fprintf(os.Stderr, "  browser-shell\n")
		fmt.Fprintf(os.Stderr, "  browser-shell -natural\n")
		fmt.Fprintf(os.Stderr, "  browser-shell -transport socket -socket /tmp/browserd.sock\n")
	}

	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, false, err
		}
		cfg = loaded
	}
	if *transport != "" {
		cfg.Transport = *transport
	}
	if *dir != "" {
		cfg.ChannelDir = *dir
	}
	if *socket != "" {
		cfg.SocketPath = *socket
	}
	return cfg, *natural, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, natural bool) error {
	client, err := channel.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to open transport: %w", err)
	}

	return shell.New(client, shell.WithNaturalMode(natural)).Run(ctx)
}
