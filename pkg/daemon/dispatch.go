package daemon

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/automation"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/config"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/logging"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/tabs"
)

// Dispatcher executes decoded commands against the tab registry and
// produces wire results. It holds no loop state; the daemon loop feeds
// it one command at a time.
type Dispatcher struct {
	registry *tabs.Registry
	rules    *config.HostRules
	shotDir  string
	log      *logging.Logger
}

// NewDispatcher creates a dispatcher over registry. rules may be nil
// (no host restrictions); shotDir, when set, anchors relative
// screenshot filenames; log may be nil.
func NewDispatcher(registry *tabs.Registry, rules *config.HostRules, shotDir string, log *logging.Logger) *Dispatcher {
	if log == nil {
		log = logging.Discard("dispatch")
	}
	return &Dispatcher{
		registry: registry,
		rules:    rules,
		shotDir:  shotDir,
		log:      log,
	}
}

// Dispatch executes one decoded command and returns its result. It
// never panics; a panicking browser call becomes an error result so
// the daemon loop survives.
func (d *Dispatcher) Dispatch(cmd protocol.Command) (res protocol.Result) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf("panic dispatching %s: %v", cmd.Type, r)
			res = protocol.Errorf("internal error: %v", r)
		}
	}()

	switch args := cmd.Args.(type) {
	case protocol.NavigateArgs:
		return d.navigate(args)
	case protocol.ClickArgs:
		return d.click(args)
	case protocol.FillArgs:
		return d.fill(args)
	case protocol.ScreenshotArgs:
		return d.screenshot(args)
	case protocol.WaitArgs:
		return d.wait(args)
	case protocol.JSArgs:
		return d.js(args)
	case protocol.NewTabArgs:
		return d.newTab(args)
	case protocol.SwitchTabArgs:
		return d.switchTab(args)
	}

	switch cmd.Type {
	case protocol.TypeTitle:
		return d.title()
	case protocol.TypeListTabs:
		return d.listTabs()
	case protocol.TypeCurrentTab:
		return d.currentTab()
	case protocol.TypeStop:
		return protocol.Success("Stopping daemon", nil)
	}

	return protocol.Errorf("Unknown command: %s", cmd.Type)
}

func (d *Dispatcher) navigate(args protocol.NavigateArgs) protocol.Result {
	target := automation.NormalizeURL(args.URL)
	if res, ok := d.checkHost(target); !ok {
		return res
	}

	tab, err := d.registry.Current()
	if err != nil {
		return registryError(err)
	}
	if err := tab.Page.Navigate(target); err != nil {
		return protocol.Error(err)
	}
	title, err := tab.Page.Title()
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.Success(
		fmt.Sprintf("Navigated to %s", target),
		protocol.NavigateData{URL: target, Title: title},
	)
}

func (d *Dispatcher) click(args protocol.ClickArgs) protocol.Result {
	tab, err := d.registry.Current()
	if err != nil {
		return registryError(err)
	}
	if err := tab.Page.Click(args.Selector); err != nil {
		return protocol.Error(err)
	}
	return protocol.Success(
		fmt.Sprintf("Clicked %s", args.Selector),
		protocol.SelectorData{Selector: args.Selector},
	)
}

func (d *Dispatcher) fill(args protocol.FillArgs) protocol.Result {
	tab, err := d.registry.Current()
	if err != nil {
		return registryError(err)
	}
	if err := tab.Page.Fill(args.Selector, args.Text); err != nil {
		return protocol.Error(err)
	}
	return protocol.Success(
		fmt.Sprintf("Filled %s with '%s'", args.Selector, args.Text),
		protocol.SelectorData{Selector: args.Selector},
	)
}

func (d *Dispatcher) screenshot(args protocol.ScreenshotArgs) protocol.Result {
	tab, err := d.registry.Current()
	if err != nil {
		return registryError(err)
	}

	path := args.Filename
	if d.shotDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(d.shotDir, path)
	}
	if err := tab.Page.Screenshot(path); err != nil {
		return protocol.Error(err)
	}
	return protocol.Success(
		fmt.Sprintf("Screenshot saved as %s", args.Filename),
		protocol.ScreenshotData{Filename: args.Filename},
	)
}

func (d *Dispatcher) title() protocol.Result {
	tab, err := d.registry.Current()
	if err != nil {
		return registryError(err)
	}
	title, err := tab.Page.Title()
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.Success(fmt.Sprintf("Page title: %s", title), title)
}

func (d *Dispatcher) wait(args protocol.WaitArgs) protocol.Result {
	tab, err := d.registry.Current()
	if err != nil {
		return registryError(err)
	}
	if err := tab.Page.WaitForSelector(args.Selector, args.Timeout); err != nil {
		return protocol.Error(err)
	}
	return protocol.Success(
		fmt.Sprintf("Waited for %s", args.Selector),
		protocol.SelectorData{Selector: args.Selector},
	)
}

func (d *Dispatcher) js(args protocol.JSArgs) protocol.Result {
	tab, err := d.registry.Current()
	if err != nil {
		return registryError(err)
	}
	value, err := tab.Page.Evaluate(args.Script)
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.Success("JavaScript executed", protocol.EvalData{Result: value})
}

func (d *Dispatcher) newTab(args protocol.NewTabArgs) protocol.Result {
	target := args.URL
	if target != "" {
		target = automation.NormalizeURL(target)
		if res, ok := d.checkHost(target); !ok {
			return res
		}
	}

	tab, err := d.registry.CreateTab(args.Purpose, target)
	if err != nil {
		return protocol.Error(err)
	}
	return protocol.Success(
		fmt.Sprintf("New tab opened (Tab %d)", tab.Index+1),
		protocol.NewTabData{TabIndex: tab.Index, Purpose: tab.Purpose, URL: tab.URL},
	)
}

func (d *Dispatcher) switchTab(args protocol.SwitchTabArgs) protocol.Result {
	tab, err := d.registry.SwitchTab(args.Index)
	if err != nil {
		if errors.Is(err, tabs.ErrTabNotFound) {
			return protocol.Errorf("Tab index %d not found", args.Index)
		}
		return protocol.Error(err)
	}

	// Foregrounding is best effort; the switch already happened.
	if err := tab.Page.BringToFront(); err != nil {
		d.log.Warnf("bring to front failed for tab %d: %v", tab.Index, err)
	}

	return protocol.Success(
		fmt.Sprintf("Switched to Tab %d", tab.Index+1),
		protocol.TabData{TabIndex: tab.Index, Title: tab.Title, URL: tab.URL, Purpose: tab.Purpose},
	)
}

func (d *Dispatcher) listTabs() protocol.Result {
	snaps, current := d.registry.ListTabs()
	infos := make([]protocol.TabInfo, 0, len(snaps))
	for _, s := range snaps {
		infos = append(infos, protocol.TabInfo{
			Index:   s.Index,
			Title:   s.Title,
			URL:     s.URL,
			Purpose: s.Purpose,
			Active:  s.Active,
		})
	}
	return protocol.Success(
		fmt.Sprintf("Found %d tabs", len(infos)),
		protocol.TabListData{Tabs: infos, CurrentTab: current},
	)
}

func (d *Dispatcher) currentTab() protocol.Result {
	snap, err := d.registry.CurrentTab()
	if err != nil {
		return registryError(err)
	}
	return protocol.Success(
		"Current tab info",
		protocol.TabData{TabIndex: snap.Index, Title: snap.Title, URL: snap.URL, Purpose: snap.Purpose},
	)
}

// checkHost enforces the configured allow/deny patterns on a
// navigation target. The second return is false when navigation must
// not proceed.
func (d *Dispatcher) checkHost(target string) (protocol.Result, bool) {
	if d.rules == nil {
		return protocol.Result{}, true
	}
	u, err := url.Parse(target)
	if err != nil {
		return protocol.Errorf("invalid url %q: %v", target, err), false
	}
	host := u.Hostname()
	if !d.rules.Allows(host) {
		d.log.Warnf("navigation to %s denied by host rules", host)
		return protocol.Errorf("Navigation to host '%s' not allowed", host), false
	}
	return protocol.Result{}, true
}

func registryError(err error) protocol.Result {
	if errors.Is(err, tabs.ErrNoTabs) {
		return protocol.Errorf("No tabs available")
	}
	return protocol.Error(err)
}
