package automation

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Page is the surface of one browser tab. The daemon's registry and
// dispatcher depend on this interface rather than on Playwright directly.
//
// A page whose underlying browser target has gone away reports errors from
// Title and the interaction methods; callers treat that as the tab being
// dead rather than as a daemon fault.
type Page interface {
	// Navigate loads the URL and waits for network idle.
	Navigate(url string) error

	// Click clicks the first element matching the CSS selector.
	Click(selector string) error

	// Fill sets the value of the input matching the CSS selector.
	Fill(selector, text string) error

	// Screenshot captures the full page to the given file path.
	Screenshot(path string) error

	// Title returns the current document title.
	Title() (string, error)

	// URL returns the page's current URL.
	URL() string

	// Evaluate runs JavaScript in the page and returns its value.
	Evaluate(script string) (interface{}, error)

	// WaitForSelector waits until an element matching the selector
	// appears, up to timeoutMs milliseconds.
	WaitForSelector(selector string, timeoutMs float64) error

	// BringToFront moves the page's tab to the foreground.
	BringToFront() error
}

// NormalizeURL prepends https:// when the URL carries neither an http nor
// an https scheme. Bare hostnames like "example.com" become
// "https://example.com".
func NormalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// enginePage adapts a Playwright page to the Page interface.
type enginePage struct {
	page playwright.Page
}

func (p *enginePage) Navigate(url string) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *enginePage) Click(selector string) error {
	if err := p.page.Click(selector); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *enginePage) Fill(selector, text string) error {
	if err := p.page.Fill(selector, text); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (p *enginePage) Screenshot(path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

func (p *enginePage) Title() (string, error) {
	return p.page.Title()
}

func (p *enginePage) URL() string {
	return p.page.URL()
}

func (p *enginePage) Evaluate(script string) (interface{}, error) {
	result, err := p.page.Evaluate(script)
	if err != nil {
		return nil, fmt.Errorf("javascript execution failed: %w", err)
	}
	return result, nil
}

func (p *enginePage) WaitForSelector(selector string, timeoutMs float64) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	if err != nil {
		return fmt.Errorf("wait failed: %w", err)
	}
	return nil
}

func (p *enginePage) BringToFront() error {
	return p.page.BringToFront()
}
