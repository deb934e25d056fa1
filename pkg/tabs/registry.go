package tabs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/automation"
)

// Placeholder metadata for freshly opened tabs and sentinel metadata
// reported for tabs whose page has been closed out from under us.
const (
	NewTabTitle = "New Tab"
	BlankURL    = "about:blank"
	ClosedTitle = "Closed Tab"
	ClosedURL   = "about:blank"

	// DefaultPurpose labels tabs opened without an explicit purpose.
	DefaultPurpose = "general"
)

// Sentinel errors returned by registry lookups.
var (
	ErrNoTabs      = errors.New("no tabs available")
	ErrTabNotFound = errors.New("tab not found")
)

// Tab is one open page tracked by the registry. Title and URL are
// cached copies of the last observed page metadata; ListTabs and
// CurrentTab refresh them from the live page.
type Tab struct {
	Index   int
	Page    automation.Page
	Purpose string
	Title   string
	URL     string
}

// Snapshot is a point-in-time view of a tab as reported to clients.
// Active is true only for the current tab when its page is still live.
type Snapshot struct {
	Index   int
	Title   string
	URL     string
	Purpose string
	Active  bool
}

// Registry tracks every tab opened during a browser session and which
// one commands act on. Tabs keep their index for the lifetime of the
// session; a page closed outside the registry leaves a dead entry that
// reports sentinel metadata.
type Registry struct {
	mu      sync.Mutex
	tabs    []*Tab
	current int
	newPage func() (automation.Page, error)
}

// NewRegistry creates an empty registry. newPage opens a fresh page in
// the running browser context and is called by CreateTab.
func NewRegistry(newPage func() (automation.Page, error)) *Registry {
	return &Registry{newPage: newPage}
}

// Register adds an existing page as the newest tab and makes it
// current. The daemon uses it to seed the registry with the initial
// page.
func (r *Registry) Register(page automation.Page, purpose string) *Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(page, purpose)
}

func (r *Registry) registerLocked(page automation.Page, purpose string) *Tab {
	if purpose == "" {
		purpose = DefaultPurpose
	}
	tab := &Tab{
		Index:   len(r.tabs),
		Page:    page,
		Purpose: purpose,
		Title:   NewTabTitle,
		URL:     BlankURL,
	}
	r.tabs = append(r.tabs, tab)
	r.current = tab.Index
	return tab
}

// CreateTab opens a new page, registers it as the current tab, and
// navigates to url when one is given. The tab stays registered and
// current even when navigation fails.
func (r *Registry) CreateTab(purpose, url string) (*Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, err := r.newPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	tab := r.registerLocked(page, purpose)

	if url != "" {
		if err := page.Navigate(url); err != nil {
			return nil, err
		}
		tab.URL = url
		title, err := page.Title()
		if err != nil {
			return nil, err
		}
		tab.Title = title
	}
	return tab, nil
}

// SwitchTab makes the tab at index current. The returned tab carries
// cached metadata, not a fresh read; foregrounding the page is the
// caller's concern.
func (r *Registry) SwitchTab(index int) (*Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 0 || index >= len(r.tabs) {
		return nil, ErrTabNotFound
	}
	r.current = index
	return r.tabs[index], nil
}

// ListTabs reports a snapshot of every tab plus the current index.
// Live tabs have their cached title and URL refreshed; dead tabs
// report sentinel metadata and are never active.
func (r *Registry) ListTabs() ([]Snapshot, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snaps := make([]Snapshot, 0, len(r.tabs))
	for _, tab := range r.tabs {
		snaps = append(snaps, r.refreshLocked(tab))
	}
	return snaps, r.current
}

// CurrentTab reports a refreshed snapshot of the current tab, or
// ErrNoTabs when the registry is empty.
func (r *Registry) CurrentTab() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.tabs) == 0 {
		return Snapshot{}, ErrNoTabs
	}
	return r.refreshLocked(r.tabs[r.current]), nil
}

// Current returns the tab commands act on, or ErrNoTabs when the
// registry is empty.
func (r *Registry) Current() (*Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.tabs) == 0 {
		return nil, ErrNoTabs
	}
	return r.tabs[r.current], nil
}

// Len reports how many tabs are registered, dead entries included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// refreshLocked re-reads a tab's metadata from its page. A failed read
// means the page is gone: the snapshot gets sentinel metadata and the
// cache is left untouched.
func (r *Registry) refreshLocked(tab *Tab) Snapshot {
	title, err := tab.Page.Title()
	if err != nil {
		return Snapshot{
			Index:   tab.Index,
			Title:   ClosedTitle,
			URL:     ClosedURL,
			Purpose: tab.Purpose,
			Active:  false,
		}
	}
	tab.Title = title
	tab.URL = tab.Page.URL()
	return Snapshot{
		Index:   tab.Index,
		Title:   tab.Title,
		URL:     tab.URL,
		Purpose: tab.Purpose,
		Active:  tab.Index == r.current,
	}
}
