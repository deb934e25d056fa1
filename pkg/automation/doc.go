// Package automation drives a single browser session through Playwright.
//
// The package wraps one Chromium instance with one shared browser context.
// Every tab the daemon opens is a page inside that context, exposed through
// the narrow Page interface so the tab registry and the command dispatcher
// can be exercised without a real browser.
//
// # Lifecycle
//
// An Engine moves through three phases:
//
//  1. Start: install the Playwright driver if needed, launch Chromium,
//     create the shared context, and open the initial page
//  2. NewPage: open additional pages (tabs) in the same context
//  3. Close: tear down in dependency order, context first, then the
//     browser, then the driver
//
// Close is idempotent; pages are closed implicitly with their context and
// are never closed individually, matching the append-only tab model of the
// daemon.
//
// # URL normalization
//
// Bare hostnames are accepted everywhere a URL is: NormalizeURL prepends
// https:// to anything that does not already carry an http or https
// scheme. Callers normalize before navigating so results and logs always
// show the URL that was actually requested.
//
// # Example usage
//
//	engine := automation.NewEngine(automation.Options{
//	    Headless: true,
//	})
//	page, err := engine.Start()
//	if err != nil {
//	    return err
//	}
//	defer engine.Close()
//
//	err = page.Navigate(automation.NormalizeURL("example.com"))
//	title, err := page.Title()
package automation
