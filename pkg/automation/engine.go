package automation

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Default values applied when Options leave a field unset.
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Options configures the browser engine.
type Options struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// Viewport sets the browser context viewport size.
	Viewport *Viewport

	// TimeoutMs is the default timeout for page operations (milliseconds).
	TimeoutMs float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Engine owns the Playwright driver, one browser, and the single shared
// context all tabs live in.
type Engine struct {
	mu      sync.Mutex
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	closed  bool
}

// NewEngine creates an engine with defaults filled in. Call Start before
// opening pages.
func NewEngine(opts Options) *Engine {
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.TimeoutMs == 0 {
		opts.TimeoutMs = DefaultTimeout
	}
	return &Engine{opts: opts}
}

// Start launches the browser and returns the initial page. The Playwright
// driver is installed on first use; its output is discarded so it cannot
// interleave with the daemon's own logging.
func (e *Engine) Start() (Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pw != nil {
		return nil, fmt.Errorf("engine already started")
	}
	if e.closed {
		return nil, fmt.Errorf("engine is closed")
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  e.opts.Viewport.Width,
			Height: e.opts.Viewport.Height,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	e.pw = pw
	e.browser = browser
	e.context = context

	return e.newPageLocked()
}

// NewPage opens another page in the shared context.
func (e *Engine) NewPage() (Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.context == nil {
		return nil, fmt.Errorf("engine not started")
	}
	return e.newPageLocked()
}

func (e *Engine) newPageLocked() (Page, error) {
	page, err := e.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(e.opts.TimeoutMs)
	return &enginePage{page: page}, nil
}

// Close tears down the context, then the browser, then the driver. Pages
// close with their context. Safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	if e.context != nil {
		if err := e.context.Close(); err != nil {
			errs = append(errs, err)
		}
		e.context = nil
	}
	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		e.browser = nil
	}
	if e.pw != nil {
		if err := e.pw.Stop(); err != nil {
			errs = append(errs, err)
		}
		e.pw = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing engine: %v", errs)
	}
	return nil
}
