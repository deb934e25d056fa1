// winescrape exports wine catalog data to CSV. It either drives a
// running browser daemon through its extraction strategies or parses a
// saved catalog text dump offline.
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
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/logging"
	"github.com/Duyfrom/browser-automation-with-LLM/pkg/winecat"
)

type options struct {
	url       string
	out       string
	parseFile string
	wait      string

	configPath string
	transport  string
	dir        string
	socket     string
}

func main() {
	o := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, o); err != nil {
		log.Fatalf("Scrape error: %v", err)
	}
}

func parseFlags() *options {
	o := &options{}

	flag.StringVar(&o.url, "url", "", "Catalog URL to scrape (empty scrapes the daemon's current page)")
	flag.StringVar(&o.out, "out", "wines.csv", "CSV output path")
	flag.StringVar(&o.parseFile, "parse", "", "Parse a saved catalog text dump instead of scraping")
	flag.StringVar(&o.wait, "wait", "body", "Selector to wait for after navigation (empty disables)")

	flag.StringVar(&o.configPath, "config", os.Getenv("BROWSERD_CONFIG"), "Path to YAML config file (or set BROWSERD_CONFIG)")
	flag.StringVar(&o.transport, "transport", "", "Transport: file or socket (overrides config)")
	flag.StringVar(&o.dir, "dir", "", "Directory holding the file transport's command/result slots")
	flag.StringVar(&o.socket, "socket", "", "Unix socket path for the socket transport")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "winescrape - wine catalog CSV exporter\n\n")
		fmt.Fprintf(os.Stderr, "Usage: winescrape [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  winescrape -url mollydooker.com/shop -out wines.csv\n")
		fmt.Fprintf(os.Stderr, "  winescrape -parse catalog.txt -out catalog.csv\n")
		fmt.Fprintf(os.Stderr, "\nScraping needs a running browserd; -parse works offline.\n")
	}

	flag.Parse()
	return o
}

func run(ctx context.Context, o *options) error {
	if o.parseFile != "" {
		return runParse(o.parseFile, o.out)
	}
	return runScrape(ctx, o)
}

// runParse converts a saved catalog text dump to CSV.
func runParse(path, out string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog dump: %w", err)
	}

	entries := winecat.ParseCatalog(string(text))
	if len(entries) == 0 {
		return fmt.Errorf("no wine entries found in %s", path)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := winecat.WriteCatalog(f, entries); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	fmt.Printf("Exported %d wine entries to %s\n", len(entries), out)
	printCategorySummary(entries)
	return nil
}

// runScrape drives a running daemon through the extraction strategies
// and writes the merged wines to CSV.
func runScrape(ctx context.Context, o *options) error {
	cfg, err := resolveConfig(o)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	client, err := channel.NewClient(cfg)
	if err != nil {
		return err
	}

	logger, _ := logging.NewLogger("winescrape")
	defer logger.Close()

	scraper := winecat.NewScraper(client,
		winecat.WithLogger(logger),
		winecat.WithWaitSelector(o.wait),
	)

	wines, err := scraper.Scrape(ctx, o.url)
	if err != nil {
		return err
	}
	if len(wines) == 0 {
		return fmt.Errorf("no wines extracted, the page may not be a catalog")
	}

	f, err := os.Create(o.out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := winecat.WriteScraped(f, wines); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	fmt.Printf("Exported %d wines to %s\n", len(wines), o.out)
	for i, wine := range wines {
		if i >= 5 {
			fmt.Printf("  ... and %d more\n", len(wines)-5)
			break
		}
		fmt.Printf("  %s (%s)\n", wine.Name, wine.Method)
	}
	return nil
}

func resolveConfig(o *options) (*config.Config, error) {
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

func printCategorySummary(entries []winecat.CatalogEntry) {
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		cat := e.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		if _, seen := counts[cat]; !seen {
			order = append(order, cat)
		}
		counts[cat]++
	}

	fmt.Println("Wines by category:")
	for _, cat := range order {
		fmt.Printf("  %s: %d\n", cat, counts[cat])
	}
}
