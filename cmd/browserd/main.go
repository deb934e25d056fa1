// Package main runs the persistent browser daemon. The daemon owns a
// single Chromium session and serves navigation, interaction, and tab
// commands sent by browserctl, the interactive shell, or any process
// that speaks the command channel.
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
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/daemon"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/logging"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		cancel()
		log.Fatalf("Daemon error: %v", err)
	}
}

// parseFlags resolves the daemon configuration from the optional YAML
// file first, then explicit flags on top.
func parseFlags() (*config.Config, error) {
	configPath := flag.String("config", os.Getenv("BROWSERD_CONFIG"), "Path to YAML config file (or set BROWSERD_CONFIG)")
	transport := flag.String("transport", "", "Transport to serve: file or socket (overrides config)")
	dir := flag.String("dir", "", "Directory holding the file transport's command/result slots")
	socket := flag.String("socket", "", "Unix socket path for the socket transport")
	headless := flag.Bool("headless", false, "Run the browser without a visible window")
	screenshotDir := flag.String("screenshot-dir", "", "Directory that anchors relative screenshot paths")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "browserd - persistent browser daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: browserd [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  BROWSERD_CONFIG   Path to YAML config file\n")
		fmt.Fprintf(os.Stderr, "  BROWSERD_LOG_DIR  Directory for session logs (default ~/.browserd/logs)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  browserd                                 # file transport in the current directory\n")
		fmt.Fprintf(os.Stderr, "  browserd -headless -dir /tmp/browserd\n")
		fmt.Fprintf(os.Stderr, "  browserd -transport socket -socket /tmp/browserd.sock\n")
	}

	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return nil, err
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
	if *screenshotDir != "" {
		cfg.ScreenshotDir = *screenshotDir
	}
	// A bool flag's default is indistinguishable from an explicit
	// false, so only an explicitly passed -headless overrides the file.
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cfg.Headless = *headless
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, _ := logging.NewLogger("daemon")
	defer logger.Close()

	if cfg.Transport == config.TransportFile {
		if err := channel.ClearFileSlots(cfg.ChannelDir); err != nil {
			logger.Warnf("failed to clear stale slots: %v", err)
		}
	}

	listener, err := channel.NewListener(cfg)
	if err != nil {
		return fmt.Errorf("failed to open transport: %w", err)
	}
	defer listener.Close()

	logger.Infof("starting browser daemon (transport=%s, session=%s)", cfg.Transport, logger.SessionID())
	return daemon.New(cfg, listener, logger).Run(ctx)
}
