// Package winecat extracts wine catalog data from a winery site. It
// drives a browser daemon with JavaScript extraction strategies,
// parses raw catalog text dumps, and exports both shapes to CSV.
package winecat

import (
	"regexp"
	"strings"
)

// DefaultRegion labels rows that carry no region of their own.
const DefaultRegion = "McLaren Vale, South Australia"

// Wine is one scraped product candidate after merging.
type Wine struct {
	Name        string
	Price       string
	Description string
	Vintage     string
	Variety     string
	Region      string
	URL         string
	Method      string
	Strategy    int
}

// CatalogEntry is one product block parsed from raw catalog text.
type CatalogEntry struct {
	Name     string
	FullName string
	Vintage  string
	Variety  string
	Price    string
	Status   string
	Category string
	Region   string
}

var (
	vintageInNameRE = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	// varieties are matched in order inside candidate names.
	varieties = []string{"shiraz", "cabernet", "merlot", "chardonnay", "pinot", "riesling"}
)

// candidate is a raw strategy hit before merging.
type candidate struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	URL   string `json:"url"`

	method   string
	strategy int
}

// merge collapses strategy hits into unique wines. Names are
// whitespace-normalized, length-filtered, and deduplicated
// case-insensitively keeping the first hit; vintage and variety are
// read out of the name.
func merge(all []candidate) []Wine {
	seen := make(map[string]bool)
	var wines []Wine

	for _, c := range all {
		name := strings.Join(strings.Fields(c.Name), " ")
		if len(name) <= 3 || len(name) >= 200 {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		wines = append(wines, Wine{
			Name:     name,
			Price:    c.Price,
			Vintage:  findVintage(name),
			Variety:  findVariety(name),
			Region:   DefaultRegion,
			URL:      c.URL,
			Method:   c.method,
			Strategy: c.strategy,
		})
	}
	return wines
}

// findVintage returns the first plausible vintage year in name.
func findVintage(name string) string {
	return vintageInNameRE.FindString(name)
}

// findVariety returns the first known grape variety mentioned in name.
func findVariety(name string) string {
	lower := strings.ToLower(name)
	for _, v := range varieties {
		if strings.Contains(lower, v) {
			return v
		}
	}
	return ""
}
