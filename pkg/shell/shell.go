// Package shell provides an interactive command shell over a running
// browser daemon.
//
// Example usage:
//
//	client, _ := channel.NewClient(cfg)
//	sh := shell.New(client,
//	    shell.WithNaturalMode(false),
//	)
//	if err := sh.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/channel"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/extract"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

// pageHTMLScript fetches the full document for client-side extraction.
const pageHTMLScript = "document.documentElement.outerHTML"

// Shell reads commands line by line and relays them to the daemon.
type Shell struct {
	client  channel.Client
	reader  *bufio.Reader
	writer  io.Writer
	natural bool
}

// Option is a function that configures a Shell.
type Option func(*Shell)

// WithReader sets a custom input source (default is os.Stdin).
func WithReader(r io.Reader) Option {
	return func(s *Shell) {
		s.reader = bufio.NewReader(r)
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) Option {
	return func(s *Shell) {
		s.writer = w
	}
}

// WithNaturalMode switches the shell from structured commands to
// phrase matching.
func WithNaturalMode(enabled bool) Option {
	return func(s *Shell) {
		s.natural = enabled
	}
}

// New creates a shell speaking to the daemon behind client.
func New(client channel.Client, opts ...Option) *Shell {
	s := &Shell{
		client: client,
		reader: bufio.NewReader(os.Stdin),
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run starts the command loop. Returns when the user exits, input
// reaches EOF, or ctx is canceled.
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.writer, "browser shell")
	if s.natural {
		fmt.Fprintln(s.writer, "Type what you want the browser to do. Type 'exit' to leave.")
	} else {
		fmt.Fprintln(s.writer, "Type 'help' for commands or 'quit' to exit.")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(s.writer, "> ")
		input, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			return nil
		}

		if s.natural {
			s.executePhrase(ctx, input)
		} else {
			s.execute(ctx, input)
		}
	}
}

// execute parses one structured command line and relays it.
func (s *Shell) execute(ctx context.Context, input string) {
	parts := strings.Fields(input)
	name := strings.ToLower(parts[0])
	args := parts[1:]

	switch name {
	case "help":
		s.printHelp()

	case "open", "go", "goto":
		if len(args) < 1 {
			s.usage("open <url>")
			return
		}
		s.send(ctx, protocol.Command{
			Type: protocol.TypeNavigate,
			Args: protocol.NavigateArgs{URL: args[0]},
		})

	case "click":
		if len(args) < 1 {
			s.usage("click <selector>")
			return
		}
		s.send(ctx, protocol.Command{
			Type: protocol.TypeClick,
			Args: protocol.ClickArgs{Selector: args[0]},
		})

	case "fill":
		if len(args) < 2 {
			s.usage("fill <selector> <text>")
			return
		}
		s.send(ctx, protocol.Command{
			Type: protocol.TypeFill,
			Args: protocol.FillArgs{Selector: args[0], Text: strings.Join(args[1:], " ")},
		})

	case "shot", "screenshot":
		var filename string
		if len(args) > 0 {
			filename = args[0]
		}
		s.send(ctx, protocol.Command{
			Type: protocol.TypeScreenshot,
			Args: protocol.ScreenshotArgs{Filename: filename},
		})

	case "title":
		s.send(ctx, protocol.Command{Type: protocol.TypeTitle})

	case "wait":
		if len(args) < 1 {
			s.usage("wait <selector>")
			return
		}
		s.send(ctx, protocol.Command{
			Type: protocol.TypeWait,
			Args: protocol.WaitArgs{Selector: args[0]},
		})

	case "js":
		if len(args) < 1 {
			s.usage("js <script>")
			return
		}
		s.send(ctx, protocol.Command{
			Type: protocol.TypeJS,
			Args: protocol.JSArgs{Script: strings.Join(args, " ")},
		})

	case "tab":
		s.executeTab(ctx, args)

	case "content":
		s.showContent(ctx)

	case "links":
		s.showLinks(ctx)

	case "stop":
		s.send(ctx, protocol.Command{Type: protocol.TypeStop})

	default:
		fmt.Fprintf(s.writer, "Unknown command: %s\n", name)
		fmt.Fprintln(s.writer, "Type 'help' for available commands")
	}
}

// executeTab handles the tab subcommands.
func (s *Shell) executeTab(ctx context.Context, args []string) {
	if len(args) < 1 {
		s.usage("tab new|switch|list|current")
		return
	}

	switch strings.ToLower(args[0]) {
	case "new":
		var newArgs protocol.NewTabArgs
		if len(args) > 1 {
			newArgs.Purpose = args[1]
		}
		if len(args) > 2 {
			newArgs.URL = args[2]
		}
		s.send(ctx, protocol.Command{Type: protocol.TypeNewTab, Args: newArgs})

	case "switch":
		if len(args) < 2 {
			s.usage("tab switch <index>")
			return
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			s.usage("tab switch <index>")
			return
		}
		s.send(ctx, protocol.Command{
			Type: protocol.TypeSwitchTab,
			Args: protocol.SwitchTabArgs{Index: index},
		})

	case "list":
		res, ok := s.query(ctx, protocol.Command{Type: protocol.TypeListTabs})
		if !ok {
			return
		}
		var list protocol.TabListData
		if err := protocol.DecodeData(res.Data, &list); err != nil {
			fmt.Fprintf(s.writer, "error: %v\n", err)
			return
		}
		fmt.Fprintln(s.writer, res.Message)
		for _, tab := range list.Tabs {
			marker := " "
			if tab.Index == list.CurrentTab {
				marker = "*"
			}
			fmt.Fprintf(s.writer, "%s Tab %d [%s] %s (%s)\n", marker, tab.Index+1, tab.Purpose, tab.Title, tab.URL)
		}

	case "current":
		s.send(ctx, protocol.Command{Type: protocol.TypeCurrentTab})

	default:
		s.usage("tab new|switch|list|current")
	}
}

// executePhrase matches one natural-language line and relays the
// resulting commands, stopping at the first failure.
func (s *Shell) executePhrase(ctx context.Context, input string) {
	cmds := ParsePhrase(input)
	if len(cmds) == 0 {
		fmt.Fprintf(s.writer, "Unknown command: %s\n", input)
		return
	}
	for _, cmd := range cmds {
		if !s.send(ctx, cmd) {
			return
		}
	}
}

// showContent fetches the page and prints its readable article view.
func (s *Shell) showContent(ctx context.Context) {
	html, pageURL, ok := s.pageHTML(ctx)
	if !ok {
		return
	}
	out, err := extract.Readable(html, pageURL, 0)
	if err != nil {
		fmt.Fprintf(s.writer, "error: %v\n", err)
		return
	}
	fmt.Fprintln(s.writer, out)
}

// showLinks fetches the page and prints its links with resolved
// targets.
func (s *Shell) showLinks(ctx context.Context) {
	html, pageURL, ok := s.pageHTML(ctx)
	if !ok {
		return
	}
	links, err := extract.Links(html, pageURL, extract.MaxLinks)
	if err != nil {
		fmt.Fprintf(s.writer, "error: %v\n", err)
		return
	}
	if len(links) == 0 {
		fmt.Fprintln(s.writer, "no links found")
		return
	}
	for _, link := range links {
		if link.Text == "" {
			fmt.Fprintln(s.writer, link.Href)
			continue
		}
		fmt.Fprintf(s.writer, "%s -> %s\n", link.Text, link.Href)
	}
}

// pageHTML pulls the current document and its address from the
// daemon. The address lookup is best effort; extraction still works
// with unresolved relative links.
func (s *Shell) pageHTML(ctx context.Context) (html, pageURL string, ok bool) {
	res, queried := s.query(ctx, protocol.Command{
		Type: protocol.TypeJS,
		Args: protocol.JSArgs{Script: pageHTMLScript},
	})
	if !queried {
		return "", "", false
	}
	var eval protocol.EvalData
	if err := protocol.DecodeData(res.Data, &eval); err != nil {
		fmt.Fprintf(s.writer, "error: %v\n", err)
		return "", "", false
	}
	html, isString := eval.Result.(string)
	if !isString {
		fmt.Fprintln(s.writer, "error: page did not return HTML")
		return "", "", false
	}

	if res, queried = s.query(ctx, protocol.Command{Type: protocol.TypeCurrentTab}); queried {
		var tab protocol.TabData
		if err := protocol.DecodeData(res.Data, &tab); err == nil {
			pageURL = tab.URL
		}
	}
	return html, pageURL, true
}

// send relays a command and prints its result message.
func (s *Shell) send(ctx context.Context, cmd protocol.Command) bool {
	res, ok := s.query(ctx, cmd)
	if !ok {
		return false
	}
	fmt.Fprintln(s.writer, res.Message)
	return true
}

// query relays a command, reporting transport errors and error
// results on the writer. Printing the success message is the
// caller's concern.
func (s *Shell) query(ctx context.Context, cmd protocol.Command) (protocol.Result, bool) {
	res, err := s.client.Send(ctx, cmd)
	if err != nil {
		fmt.Fprintf(s.writer, "error: %v\n", err)
		return protocol.Result{}, false
	}
	if !res.OK() {
		fmt.Fprintf(s.writer, "error: %s\n", res.Message)
		return res, false
	}
	return res, true
}

func (s *Shell) usage(u string) {
	fmt.Fprintf(s.writer, "usage: %s\n", u)
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.writer, `Commands:
  open <url>               navigate to a URL (go and goto work too)
  click <selector>         click an element by CSS selector
  fill <selector> <text>   fill a form field
  shot [filename]          save a screenshot (default screenshot.png)
  title                    print the page title
  wait <selector>          wait for an element to appear
  js <script>              evaluate JavaScript on the page
  tab new [purpose] [url]  open a new tab
  tab switch <index>       switch to a tab by index
  tab list                 list open tabs
  tab current              show the current tab
  content                  readable view of the current page
  links                    list links on the current page
  stop                     stop the daemon
  help                     show this help
  quit                     exit the shell
`)
}
