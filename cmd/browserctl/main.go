// Package main sends one command to a running browser daemon and
// prints the result, for scripts and one-off driving from a terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/channel"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/config"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

// readyCommand is handled client-side: it blocks until the daemon
// announces readiness instead of sending anything.
const readyCommand = "ready"

type options struct {
	cmd      string
	url      string
	selector string
	text     string
	file     string
	script   string
	purpose  string
	index    int
	timeout  float64

	configPath string
	transport  string
	dir        string
	socket     string
}

func main() {
	o := parseFlags()

	cfg, err := o.resolveConfig()
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

	res, err := execute(ctx, cfg, o)
	if err != nil {
		log.Fatalf("Command error: %v", err)
	}

	fmt.Printf("Status: %s\n", res.Status)
	fmt.Printf("Message: %s\n", res.Message)
	if res.Data != nil {
		if data, err := json.Marshal(res.Data); err == nil {
			fmt.Printf("Data: %s\n", data)
		}
	}

	if res.Status != protocol.StatusSuccess && res.Status != protocol.StatusStarted {
		os.Exit(1)
	}
}

func parseFlags() *options {
	o := &options{}

	flag.StringVar(&o.cmd, "cmd", "", "Command to send: navigate, click, fill, screenshot, title, wait, js, new_tab, switch_tab, list_tabs, current_tab, stop, or ready")
	flag.StringVar(&o.url, "url", "", "Target URL (navigate, new_tab)")
	flag.StringVar(&o.selector, "selector", "", "CSS selector (click, fill, wait)")
	flag.StringVar(&o.text, "text", "", "Text to type (fill)")
	flag.StringVar(&o.file, "file", "", "Screenshot filename (default screenshot.png)")
	flag.StringVar(&o.script, "script", "", "JavaScript to evaluate (js)")
	flag.StringVar(&o.purpose, "purpose", "", "Tab purpose label (new_tab)")
	flag.IntVar(&o.index, "index", -1, "Tab index (switch_tab)")
	flag.Float64Var(&o.timeout, "timeout", 0, "Wait timeout in milliseconds (wait; default 30000)")

	flag.StringVar(&o.configPath, "config", os.Getenv("BROWSERD_CONFIG"), "Path to YAML config file (or set BROWSERD_CONFIG)")
	flag.StringVar(&o.transport, "transport", "", "Transport: file or socket (overrides config)")
	flag.StringVar(&o.dir, "dir", "", "Directory holding the file transport's command/result slots")
	flag.StringVar(&o.socket, "socket", "", "Unix socket path for the socket transport")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "browserctl - one-shot browser daemon client\n\n")
		fmt.Fprintf(os.Stderr, "Usage: browserctl -cmd <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  browserctl -cmd ready\n")
		fmt.Fprintf(os.Stderr, "  browserctl -cmd navigate -url example.com\n")
		fmt.Fprintf(os.Stderr, "  browserctl -cmd fill -selector 'input[name=\"q\"]' -text 'mclaren vale shiraz'\n")
		fmt.Fprintf(os.Stderr, "  browserctl -cmd new_tab -purpose search -url duckduckgo.com\n")
		fmt.Fprintf(os.Stderr, "  browserctl -cmd switch_tab -index 0\n")
		fmt.Fprintf(os.Stderr, "  browserctl -cmd stop\n")
	}

	flag.Parse()
	return o
}

func (o *options) resolveConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.transport != "" {
		cfg.Transport = o.transport
	}
	if o.dir != "" {
		cfg.ChannelDir = o.dir
	}
	if o.socket != "" {
		cfg.SocketPath = o.socket
	}
	return cfg, cfg.Validate()
}

func execute(ctx context.Context, cfg *config.Config, o *options) (protocol.Result, error) {
	client, err := channel.NewClient(cfg)
	if err != nil {
		return protocol.Result{}, err
	}

	if o.cmd == readyCommand {
		return client.WaitReady(ctx)
	}

	cmd, err := buildCommand(o)
	if err != nil {
		return protocol.Result{}, err
	}
	return client.Send(ctx, cmd)
}

// buildCommand validates the flag combination for the requested
// command. The daemon validates again on decode; failing here saves a
// round trip with a clearer message.
func buildCommand(o *options) (protocol.Command, error) {
	switch o.cmd {
	case "":
		return protocol.Command{}, fmt.Errorf("no command given, use -cmd (see -h)")

	case protocol.TypeNavigate:
		if o.url == "" {
			return protocol.Command{}, fmt.Errorf("navigate requires -url")
		}
		return protocol.Command{Type: o.cmd, Args: protocol.NavigateArgs{URL: o.url}}, nil

	case protocol.TypeClick:
		if o.selector == "" {
			return protocol.Command{}, fmt.Errorf("click requires -selector")
		}
		return protocol.Command{Type: o.cmd, Args: protocol.ClickArgs{Selector: o.selector}}, nil

	case protocol.TypeFill:
		if o.selector == "" || o.text == "" {
			return protocol.Command{}, fmt.Errorf("fill requires -selector and -text")
		}
		return protocol.Command{Type: o.cmd, Args: protocol.FillArgs{Selector: o.selector, Text: o.text}}, nil

	case protocol.TypeScreenshot:
		return protocol.Command{Type: o.cmd, Args: protocol.ScreenshotArgs{Filename: o.file}}, nil

	case protocol.TypeWait:
		if o.selector == "" {
			return protocol.Command{}, fmt.Errorf("wait requires -selector")
		}
		return protocol.Command{Type: o.cmd, Args: protocol.WaitArgs{Selector: o.selector, Timeout: o.timeout}}, nil

	case protocol.TypeJS:
		if o.script == "" {
			return protocol.Command{}, fmt.Errorf("js requires -script")
		}
		return protocol.Command{Type: o.cmd, Args: protocol.JSArgs{Script: o.script}}, nil

	case protocol.TypeNewTab:
		return protocol.Command{Type: o.cmd, Args: protocol.NewTabArgs{Purpose: o.purpose, URL: o.url}}, nil

	case protocol.TypeSwitchTab:
		if o.index < 0 {
			return protocol.Command{}, fmt.Errorf("switch_tab requires -index")
		}
		return protocol.Command{Type: o.cmd, Args: protocol.SwitchTabArgs{Index: o.index}}, nil

	case protocol.TypeTitle, protocol.TypeListTabs, protocol.TypeCurrentTab, protocol.TypeStop:
		return protocol.Command{Type: o.cmd}, nil
	}

	return protocol.Command{}, fmt.Errorf("unknown command %q", o.cmd)
}
