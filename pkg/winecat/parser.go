package winecat

import (
	"regexp"
	"strings"
)

// Wine availability states as the catalog page prints them.
const (
	StatusAvailable = "Available"
	StatusSoldOut   = "SOLD OUT"
)

const (
	quickViewPrefix = "Quick View - "
	addToCartLine   = "ADD TO CART"

	// A product block's details sit within a few lines of its
	// Quick View heading; the category heading sits above it.
	detailLookahead  = 9
	categoryLookback = 20
)

// categoryHeadings are the section headings a block can sit under,
// nearest heading above the block wins.
var categoryHeadings = []string{
	"LEFTY WINES",
	"FUN WINES",
	"FAMILY WINES",
	"LOVE WINES",
	"VELVET GLOVE",
	"LARGE FORMAT",
}

var (
	vintageLineRE = regexp.MustCompile(`^\d{4}$`)
	priceLineRE   = regexp.MustCompile(`^\$\d+`)
)

// ParseCatalog extracts wine entries from raw catalog page text, one
// entry per "Quick View - <name>" product block. Gift cards and
// event listings are skipped, and a block is kept only when it shows
// a price or is marked sold out.
func ParseCatalog(text string) []CatalogEntry {
	lines := strings.Split(text, "\n")
	var entries []CatalogEntry

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, quickViewPrefix) || strings.HasSuffix(line, "Gift Card") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(line, quickViewPrefix))
		upper := strings.ToUpper(name)
		if strings.Contains(upper, "FEST") || strings.Contains(upper, "EVENT") {
			continue
		}

		entry := CatalogEntry{
			Name:   name,
			Status: StatusAvailable,
			Region: DefaultRegion,
		}
		scanBlock(lines, i, &entry)
		entry.Category = findCategory(lines, i)

		if entry.Name != "" && (entry.Price != "" || entry.Status == StatusSoldOut) {
			entries = append(entries, entry)
		}
	}
	return entries
}

// scanBlock reads the detail lines following a Quick View heading into
// entry. Scanning stops at the block's cart line, its sold-out marker,
// or the next product heading, whichever comes first.
func scanBlock(lines []string, start int, entry *CatalogEntry) {
	end := start + detailLookahead
	if end > len(lines)-1 {
		end = len(lines) - 1
	}

	for j := start + 1; j <= end; j++ {
		line := strings.TrimSpace(lines[j])
		switch {
		case strings.HasPrefix(line, quickViewPrefix):
			return
		case line == StatusSoldOut:
			entry.Status = StatusSoldOut
			return
		case line == addToCartLine:
			return
		case vintageLineRE.MatchString(line):
			entry.Vintage = line
		case priceLineRE.MatchString(line):
			entry.Price = line
		case isAllCaps(line) && len(line) > 3 && !strings.HasPrefix(line, "$"):
			// The shouted name comes first, the variety after it.
			if entry.FullName == "" {
				entry.FullName = line
			} else if entry.Variety == "" {
				entry.Variety = line
			}
		}
	}
}

// findCategory walks backwards from a block heading to the nearest
// section heading above it.
func findCategory(lines []string, start int) string {
	stop := start - categoryLookback
	if stop < -1 {
		stop = -1
	}
	for k := start; k > stop; k-- {
		line := strings.TrimSpace(lines[k])
		for _, heading := range categoryHeadings {
			if line == heading {
				return heading
			}
		}
	}
	return ""
}

// isAllCaps reports whether s contains letters and none of them are
// lowercase.
func isAllCaps(s string) bool {
	return s != strings.ToLower(s) && s == strings.ToUpper(s)
}
