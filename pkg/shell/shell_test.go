package shell

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/channel"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

// fakeClient records sent commands and plays back queued results.
type fakeClient struct {
	commands []protocol.Command
	results  []protocol.Result
	err      error
}

func (c *fakeClient) Send(_ context.Context, cmd protocol.Command) (protocol.Result, error) {
	c.commands = append(c.commands, cmd)
	if c.err != nil {
		return protocol.Result{}, c.err
	}
	if len(c.results) == 0 {
		return protocol.Success("ok", nil), nil
	}
	res := c.results[0]
	c.results = c.results[1:]
	return res, nil
}

func (c *fakeClient) WaitReady(context.Context) (protocol.Result, error) {
	return protocol.Started(), nil
}

func runShell(t *testing.T, client channel.Client, script string, opts ...Option) string {
	t.Helper()
	var out bytes.Buffer
	allOpts := append([]Option{WithReader(strings.NewReader(script)), WithWriter(&out)}, opts...)
	require.NoError(t, New(client, allOpts...).Run(context.Background()))
	return out.String()
}

func TestShell_RelaysCommands(t *testing.T) {
	client := &fakeClient{results: []protocol.Result{
		protocol.Success("Navigated to https://example.com", nil),
		protocol.Success("Clicked #submit", nil),
		protocol.Success("Page title: Example Domain", "Example Domain"),
	}}

	out := runShell(t, client, "open example.com\nclick #submit\ntitle\nquit\n")

	require.Len(t, client.commands, 3)
	assert.Equal(t, protocol.Command{
		Type: protocol.TypeNavigate,
		Args: protocol.NavigateArgs{URL: "example.com"},
	}, client.commands[0])
	assert.Equal(t, protocol.Command{
		Type: protocol.TypeClick,
		Args: protocol.ClickArgs{Selector: "#submit"},
	}, client.commands[1])
	assert.Equal(t, protocol.Command{Type: protocol.TypeTitle}, client.commands[2])

	assert.Contains(t, out, "Navigated to https://example.com")
	assert.Contains(t, out, "Clicked #submit")
	assert.Contains(t, out, "Page title: Example Domain")
}

func TestShell_FillJoinsText(t *testing.T) {
	client := &fakeClient{}

	runShell(t, client, "fill input[name='q'] mclaren vale shiraz\nquit\n")

	require.Len(t, client.commands, 1)
	assert.Equal(t, protocol.FillArgs{
		Selector: "input[name='q']",
		Text:     "mclaren vale shiraz",
	}, client.commands[0].Args)
}

func TestShell_ScreenshotFilenameOptional(t *testing.T) {
	client := &fakeClient{}

	runShell(t, client, "shot\nshot cellar.png\nquit\n")

	require.Len(t, client.commands, 2)
	assert.Equal(t, protocol.ScreenshotArgs{Filename: ""}, client.commands[0].Args)
	assert.Equal(t, protocol.ScreenshotArgs{Filename: "cellar.png"}, client.commands[1].Args)
}

func TestShell_TabCommands(t *testing.T) {
	client := &fakeClient{}

	runShell(t, client, "tab new search example.com\ntab switch 1\ntab current\nquit\n")

	require.Len(t, client.commands, 3)
	assert.Equal(t, protocol.NewTabArgs{Purpose: "search", URL: "example.com"}, client.commands[0].Args)
	assert.Equal(t, protocol.SwitchTabArgs{Index: 1}, client.commands[1].Args)
	assert.Equal(t, protocol.TypeCurrentTab, client.commands[2].Type)
}

func TestShell_TabList(t *testing.T) {
	client := &fakeClient{results: []protocol.Result{
		protocol.Success("Found 2 tabs", protocol.TabListData{
			Tabs: []protocol.TabInfo{
				{Index: 0, Title: "Example", URL: "https://example.com", Purpose: "general"},
				{Index: 1, Title: "Cellar Door", URL: "https://winery.example.com", Purpose: "search", Active: true},
			},
			CurrentTab: 1,
		}),
	}}

	out := runShell(t, client, "tab list\nquit\n")

	assert.Contains(t, out, "Found 2 tabs")
	assert.Contains(t, out, "  Tab 1 [general] Example (https://example.com)")
	assert.Contains(t, out, "* Tab 2 [search] Cellar Door (https://winery.example.com)")
}

func TestShell_UsageErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"open", "usage: open <url>"},
		{"click", "usage: click <selector>"},
		{"fill onlyselector", "usage: fill <selector> <text>"},
		{"wait", "usage: wait <selector>"},
		{"js", "usage: js <script>"},
		{"tab", "usage: tab new|switch|list|current"},
		{"tab switch nope", "usage: tab switch <index>"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			client := &fakeClient{}
			out := runShell(t, client, tt.input+"\nquit\n")

			assert.Contains(t, out, tt.want)
			assert.Empty(t, client.commands)
		})
	}
}

func TestShell_UnknownCommand(t *testing.T) {
	client := &fakeClient{}

	out := runShell(t, client, "dance\nquit\n")

	assert.Contains(t, out, "Unknown command: dance")
	assert.Contains(t, out, "Type 'help' for available commands")
	assert.Empty(t, client.commands)
}

func TestShell_Help(t *testing.T) {
	out := runShell(t, &fakeClient{}, "help\nquit\n")

	assert.Contains(t, out, "open <url>")
	assert.Contains(t, out, "tab new [purpose] [url]")
	assert.Contains(t, out, "quit")
}

func TestShell_ExitsOnEOF(t *testing.T) {
	client := &fakeClient{}

	out := runShell(t, client, "title\n")

	require.Len(t, client.commands, 1)
	assert.Contains(t, out, "browser shell")
}

func TestShell_ErrorResultPrinted(t *testing.T) {
	client := &fakeClient{results: []protocol.Result{
		protocol.Errorf("Tab index 5 not found"),
	}}

	out := runShell(t, client, "tab switch 5\nquit\n")

	assert.Contains(t, out, "error: Tab index 5 not found")
}

func TestShell_TransportErrorPrinted(t *testing.T) {
	client := &fakeClient{err: errors.New("failed to connect to daemon")}

	out := runShell(t, client, "title\nquit\n")

	assert.Contains(t, out, "error: failed to connect to daemon")
}

func TestShell_Links(t *testing.T) {
	pageHTML := `<html><body><a href="/wines">Wines</a><a href="https://other.example.com/club">Club</a></body></html>`
	client := &fakeClient{results: []protocol.Result{
		protocol.Success("JavaScript executed", protocol.EvalData{Result: pageHTML}),
		protocol.Success("Current tab info", protocol.TabData{
			TabIndex: 0, Title: "Cellar Door", URL: "https://winery.example.com/home", Purpose: "general",
		}),
	}}

	out := runShell(t, client, "links\nquit\n")

	require.Len(t, client.commands, 2)
	assert.Equal(t, protocol.JSArgs{Script: pageHTMLScript}, client.commands[0].Args)
	assert.Equal(t, protocol.TypeCurrentTab, client.commands[1].Type)

	assert.Contains(t, out, "Wines -> https://winery.example.com/wines")
	assert.Contains(t, out, "Club -> https://other.example.com/club")
	assert.NotContains(t, out, "JavaScript executed")
}

func TestShell_LinksEmptyPage(t *testing.T) {
	client := &fakeClient{results: []protocol.Result{
		protocol.Success("JavaScript executed", protocol.EvalData{Result: "<html><body></body></html>"}),
		protocol.Success("Current tab info", protocol.TabData{}),
	}}

	out := runShell(t, client, "links\nquit\n")

	assert.Contains(t, out, "no links found")
}

func TestShell_Content(t *testing.T) {
	article := `<html><head><title>Harvest Notes</title></head><body><article><h1>Harvest Notes</h1><p>` +
		strings.Repeat("The pick started before dawn and ran long into the morning. ", 20) +
		`</p><p>` +
		strings.Repeat("Ferments are tracking dry with bright aromatics across the board. ", 20) +
		`</p></article></body></html>`
	client := &fakeClient{results: []protocol.Result{
		protocol.Success("JavaScript executed", protocol.EvalData{Result: article}),
		protocol.Success("Current tab info", protocol.TabData{URL: "https://winery.example.com/notes"}),
	}}

	out := runShell(t, client, "content\nquit\n")

	assert.Contains(t, out, "Title: Harvest Notes")
	assert.Contains(t, out, "The pick started before dawn")
}

func TestShell_ContentNonStringResult(t *testing.T) {
	client := &fakeClient{results: []protocol.Result{
		protocol.Success("JavaScript executed", protocol.EvalData{Result: float64(42)}),
	}}

	out := runShell(t, client, "content\nquit\n")

	assert.Contains(t, out, "error: page did not return HTML")
}

func TestShell_NaturalMode(t *testing.T) {
	client := &fakeClient{}

	out := runShell(t, client,
		"go to Example.COM\nsearch for mclaren vale shiraz\nmake me a sandwich\nexit\n",
		WithNaturalMode(true))

	require.Len(t, client.commands, 3)
	assert.Equal(t, protocol.NavigateArgs{URL: "Example.COM"}, client.commands[0].Args)
	assert.Equal(t, protocol.FillArgs{Selector: searchInputSelector, Text: "mclaren vale shiraz"}, client.commands[1].Args)
	assert.Equal(t, protocol.ClickArgs{Selector: searchSubmitSelector}, client.commands[2].Args)

	assert.Contains(t, out, "Unknown command: make me a sandwich")
}

func TestShell_NaturalModeStopsPhraseOnFailure(t *testing.T) {
	client := &fakeClient{results: []protocol.Result{
		protocol.Errorf("fill failed: no search box"),
	}}

	runShell(t, client, "search for pinot\nexit\n", WithNaturalMode(true))

	// The click half of the pair is skipped once the fill fails.
	require.Len(t, client.commands, 1)
	assert.Equal(t, protocol.TypeFill, client.commands[0].Type)
}

func TestParsePhrase(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []protocol.Command
	}{
		{
			name:  "go to",
			input: "go to example.com",
			want: []protocol.Command{
				{Type: protocol.TypeNavigate, Args: protocol.NavigateArgs{URL: "example.com"}},
			},
		},
		{
			name:  "open",
			input: "open winery.example.com",
			want: []protocol.Command{
				{Type: protocol.TypeNavigate, Args: protocol.NavigateArgs{URL: "winery.example.com"}},
			},
		},
		{
			name:  "open a new tab is not navigation",
			input: "open a new tab",
			want: []protocol.Command{
				{Type: protocol.TypeNewTab, Args: protocol.NewTabArgs{}},
			},
		},
		{
			name:  "search pair",
			input: "search for pinot noir",
			want: []protocol.Command{
				{Type: protocol.TypeFill, Args: protocol.FillArgs{Selector: searchInputSelector, Text: "pinot noir"}},
				{Type: protocol.TypeClick, Args: protocol.ClickArgs{Selector: searchSubmitSelector}},
			},
		},
		{
			name:  "screenshot",
			input: "take a screenshot",
			want: []protocol.Command{
				{Type: protocol.TypeScreenshot, Args: protocol.ScreenshotArgs{}},
			},
		},
		{
			name:  "list tabs",
			input: "what tabs are open",
			want:  []protocol.Command{{Type: protocol.TypeListTabs}},
		},
		{
			name:  "switch to tab is one-based",
			input: "switch to tab 2",
			want: []protocol.Command{
				{Type: protocol.TypeSwitchTab, Args: protocol.SwitchTabArgs{Index: 1}},
			},
		},
		{
			name:  "switch to tab zero",
			input: "switch to tab 0",
			want:  nil,
		},
		{
			name:  "switch to tab gibberish",
			input: "switch to tab nope",
			want:  nil,
		},
		{
			name:  "title",
			input: "what's the title",
			want:  []protocol.Command{{Type: protocol.TypeTitle}},
		},
		{
			name:  "stop",
			input: "stop the browser",
			want:  []protocol.Command{{Type: protocol.TypeStop}},
		},
		{
			name:  "unknown",
			input: "make me a sandwich",
			want:  nil,
		},
		{
			name:  "empty",
			input: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePhrase(tt.input))
		})
	}
}
