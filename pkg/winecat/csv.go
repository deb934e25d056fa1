package winecat

import (
	"encoding/csv"
	"io"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var scrapedHeader = []string{
	"name", "price", "description", "vintage", "variety", "region",
	"url", "extraction_method", "strategy_used",
}

var catalogHeader = []string{
	"name", "full_name", "vintage", "variety", "price", "status",
	"category", "region",
}

var varietyCaser = cases.Title(language.English)

// WriteScraped writes scraped wines as CSV, one row per wine plus a
// header. Varieties are title-cased on the way out.
func WriteScraped(w io.Writer, wines []Wine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(scrapedHeader); err != nil {
		return err
	}
	for _, wine := range wines {
		row := []string{
			wine.Name,
			wine.Price,
			wine.Description,
			wine.Vintage,
			varietyCaser.String(wine.Variety),
			wine.Region,
			wine.URL,
			wine.Method,
			strconv.Itoa(wine.Strategy),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCatalog writes parsed catalog entries as CSV, one row per entry
// plus a header. Fields are written as they appear on the page.
func WriteCatalog(w io.Writer, entries []CatalogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(catalogHeader); err != nil {
		return err
	}
	for _, entry := range entries {
		row := []string{
			entry.Name,
			entry.FullName,
			entry.Vintage,
			entry.Variety,
			entry.Price,
			entry.Status,
			entry.Category,
			entry.Region,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
