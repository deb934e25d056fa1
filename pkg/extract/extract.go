// Package extract pulls text, links, and images out of raw page HTML.
// The daemon ships HTML over the wire as a JavaScript evaluation
// result; clients parse it locally so the browser process never grows
// a scraping vocabulary.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Default caps applied by Content. Pages routinely carry hundreds of
// links and megabytes of text; clients that want more pass their own
// limits to Text, Links, and Images.
const (
	MaxTextLength = 5000
	MaxLinks      = 20
	MaxImages     = 10
)

// Link is an anchor with its visible text and href.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image is an img element's alt text and source.
type Image struct {
	Alt string `json:"alt"`
	Src string `json:"src"`
}

// PageContent is the capped summary of a page: its title, visible
// text, and the first links and images in document order.
type PageContent struct {
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Text   string  `json:"text"`
	Links  []Link  `json:"links"`
	Images []Image `json:"images"`
}

// Content parses rawHTML once and returns the capped page summary.
// pageURL is recorded as-is and used to resolve relative link and
// image targets.
func Content(rawHTML, pageURL string) (*PageContent, error) {
	doc, err := parse(rawHTML)
	if err != nil {
		return nil, err
	}

	base := parseBase(pageURL)
	return &PageContent{
		Title:  documentTitle(doc),
		URL:    pageURL,
		Text:   truncate(collectText(doc), MaxTextLength),
		Links:  collectLinks(doc, base, MaxLinks),
		Images: collectImages(doc, base, MaxImages),
	}, nil
}

// Text returns the page's visible text with scripts, styles, and
// other non-content elements removed. maxLen caps the result in
// bytes; zero or negative means no cap.
func Text(rawHTML string, maxLen int) (string, error) {
	doc, err := parse(rawHTML)
	if err != nil {
		return "", err
	}
	return truncate(collectText(doc), maxLen), nil
}

// Links returns up to max anchors that carry an href, in document
// order. Relative hrefs are resolved against baseURL when it parses;
// zero or negative max means no cap.
func Links(rawHTML, baseURL string, max int) ([]Link, error) {
	doc, err := parse(rawHTML)
	if err != nil {
		return nil, err
	}
	return collectLinks(doc, parseBase(baseURL), max), nil
}

// Images returns up to max img elements in document order. Relative
// sources are resolved against baseURL when it parses; zero or
// negative max means no cap.
func Images(rawHTML, baseURL string, max int) ([]Image, error) {
	doc, err := parse(rawHTML)
	if err != nil {
		return nil, err
	}
	return collectImages(doc, parseBase(baseURL), max), nil
}

func parse(rawHTML string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func parseBase(baseURL string) *url.URL {
	if baseURL == "" {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	return base
}

// collectText walks the document gathering trimmed text nodes joined
// by single spaces, skipping non-content elements.
func collectText(doc *html.Node) string {
	var parts []string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && isSkippedElement(strings.ToLower(n.Data)) {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return strings.Join(parts, " ")
}

func collectLinks(doc *html.Node, base *url.URL, max int) []Link {
	var links []Link
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if max > 0 && len(links) >= max {
			return
		}
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == "a" {
			if href, ok := attrValue(n, "href"); ok {
				links = append(links, Link{
					Text: collectText(n),
					Href: resolveRef(base, href),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return links
}

func collectImages(doc *html.Node, base *url.URL, max int) []Image {
	var images []Image
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if max > 0 && len(images) >= max {
			return
		}
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == "img" {
			alt, _ := attrValue(n, "alt")
			src, _ := attrValue(n, "src")
			images = append(images, Image{Alt: alt, Src: resolveRef(base, src)})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return images
}

// documentTitle returns the first title element's text.
func documentTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

func attrValue(n *html.Node, name string) (string, bool) {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val, true
		}
	}
	return "", false
}

// resolveRef resolves ref against base. Absolute refs and anything
// that fails to parse pass through unchanged.
func resolveRef(base *url.URL, ref string) string {
	if base == nil || ref == "" {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

// truncate caps s at max bytes without splitting a rune.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}

// isSkippedElement returns true for elements whose text is never page
// content.
func isSkippedElement(tagName string) bool {
	skipped := map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"iframe":   true,
		"embed":    true,
		"object":   true,
		"svg":      true,
	}
	return skipped[tagName]
}
