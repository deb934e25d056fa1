package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ReadableMaxLength is the default cap for Readable output.
const ReadableMaxLength = 10000

// truncationMarker is appended when readable output is cut short.
const truncationMarker = "\n\n[Content truncated...]"

// Readable runs readability extraction over rawHTML and returns the
// article as a plain-text block with a short metadata header. maxLen
// caps the result in bytes; zero or negative applies
// ReadableMaxLength.
func Readable(rawHTML, pageURL string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = ReadableMaxLength
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Title: %s\n", article.Title)
	if article.Byline != "" {
		fmt.Fprintf(&result, "Author: %s\n", article.Byline)
	}
	if article.SiteName != "" {
		fmt.Fprintf(&result, "Site: %s\n", article.SiteName)
	}
	if pageURL != "" {
		fmt.Fprintf(&result, "URL: %s\n", pageURL)
	}
	result.WriteString("\n---\n\n")
	result.WriteString(article.TextContent)

	content := result.String()
	if len(content) > maxLen {
		content = truncate(content, maxLen) + truncationMarker
	}
	return content, nil
}
