package winecat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Duyfrom/browser-automation-with-LLM/pkg/channel"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/logging"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/protocol"
)

// defaultWaitSelector is waited on after navigation so extraction runs
// against a rendered page.
const defaultWaitSelector = "body"

// Each strategy runs in the page and returns a JSON array of raw
// candidates. Product links first, then anything priced, then wine
// names recognized in free text.
const (
	linkStrategyScript = `JSON.stringify(Array.from(document.querySelectorAll('a')).filter(link => {
    const href = link.href.toLowerCase();
    const text = link.textContent.toLowerCase();
    return (href.includes('/wine') || href.includes('/product') ||
            text.includes('shiraz') || text.includes('cabernet') ||
            text.includes('chardonnay') || text.includes('merlot') ||
            text.includes('vintage') || text.includes('bottle')) &&
           !href.includes('#') && href !== window.location.href;
}).slice(0, 20).map(link => ({name: link.textContent.trim(), url: link.href})))`

	priceStrategyScript = `JSON.stringify(Array.from(document.querySelectorAll('*')).filter(el => {
    const text = el.textContent;
    return text && (text.includes('$') || text.includes('AUD') || /\d+\.\d{2}/.test(text)) &&
           text.length < 50;
}).slice(0, 10).map(el => {
    const parent = el.closest('.product, .item, .card, article, .wine') || el.parentElement;
    const nameEl = parent.querySelector('h1, h2, h3, h4, .title, .name') || parent;
    return {name: nameEl.textContent.trim(), price: el.textContent.trim()};
}))`

	textStrategyScript = `JSON.stringify((document.body.innerText.match(/[A-Z][a-z]+ (Shiraz|Cabernet|Merlot|Chardonnay|Pinot|Riesling)[^\n]*/gi) || []).slice(0, 15).map(m => ({name: m.trim()})))`
)

// strategyDef pairs an extraction script with its reporting labels.
type strategyDef struct {
	method string
	number int
	script string
}

func strategies() []strategyDef {
	return []strategyDef{
		{method: "link_based", number: 1, script: linkStrategyScript},
		{method: "price_based", number: 2, script: priceStrategyScript},
		{method: "text_based", number: 3, script: textStrategyScript},
	}
}

// Scraper extracts wine listings from pages served by a browser daemon.
type Scraper struct {
	client       channel.Client
	log          *logging.Logger
	waitSelector string
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithLogger sets the logger used for scrape progress.
func WithLogger(log *logging.Logger) ScraperOption {
	return func(s *Scraper) {
		s.log = log
	}
}

// WithWaitSelector changes the selector waited on after navigation.
// An empty selector disables the wait.
func WithWaitSelector(selector string) ScraperOption {
	return func(s *Scraper) {
		s.waitSelector = selector
	}
}

// NewScraper creates a scraper speaking to a daemon through client.
func NewScraper(client channel.Client, opts ...ScraperOption) *Scraper {
	s := &Scraper{
		client:       client,
		waitSelector: defaultWaitSelector,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logging.Discard("winescrape")
	}
	return s
}

// Scrape navigates to url (when non-empty), waits for the page, runs
// every extraction strategy, and returns the merged unique wines. A
// failing strategy is logged and skipped; Scrape fails only when
// navigation does or when no strategy could run.
func (s *Scraper) Scrape(ctx context.Context, url string) ([]Wine, error) {
	if url != "" {
		if err := s.navigate(ctx, url); err != nil {
			return nil, err
		}
	}

	var all []candidate
	failures := 0
	for _, st := range strategies() {
		found, err := s.runStrategy(ctx, st)
		if err != nil {
			s.log.Warnf("%s strategy failed: %v", st.method, err)
			failures++
			continue
		}
		s.log.Infof("%s strategy found %d candidates", st.method, len(found))
		all = append(all, found...)
	}
	if failures == len(strategies()) {
		return nil, fmt.Errorf("all extraction strategies failed")
	}

	wines := merge(all)
	s.log.Infof("merged %d candidates into %d unique wines", len(all), len(wines))
	return wines, nil
}

func (s *Scraper) navigate(ctx context.Context, url string) error {
	res, err := s.client.Send(ctx, protocol.Command{
		Type: protocol.TypeNavigate,
		Args: protocol.NavigateArgs{URL: url},
	})
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("navigation failed: %s", res.Message)
	}
	s.log.Infof("%s", res.Message)

	if s.waitSelector == "" {
		return nil
	}
	res, err = s.client.Send(ctx, protocol.Command{
		Type: protocol.TypeWait,
		Args: protocol.WaitArgs{Selector: s.waitSelector, Timeout: protocol.DefaultWaitTimeout},
	})
	if err != nil {
		return fmt.Errorf("failed to wait for page: %w", err)
	}
	if !res.OK() {
		return fmt.Errorf("page did not settle: %s", res.Message)
	}
	return nil
}

// runStrategy executes one extraction script and decodes its JSON
// payload into labeled candidates.
func (s *Scraper) runStrategy(ctx context.Context, st strategyDef) ([]candidate, error) {
	res, err := s.client.Send(ctx, protocol.Command{
		Type: protocol.TypeJS,
		Args: protocol.JSArgs{Script: st.script},
	})
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, errors.New(res.Message)
	}

	var eval protocol.EvalData
	if err := protocol.DecodeData(res.Data, &eval); err != nil {
		return nil, err
	}
	raw, ok := eval.Result.(string)
	if !ok {
		return nil, fmt.Errorf("strategy returned %T, want a JSON string", eval.Result)
	}

	var found []candidate
	if err := json.Unmarshal([]byte(raw), &found); err != nil {
		return nil, fmt.Errorf("failed to decode strategy output: %w", err)
	}
	for i := range found {
		found[i].method = st.method
		found[i].strategy = st.number
	}
	return found, nil
}
