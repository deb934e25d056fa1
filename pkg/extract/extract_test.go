package extract

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Cellar Door</title>
  <style>body { color: red; }</style>
</head>
<body>
  <nav>
    <a href="/wines">Our <strong>Wines</strong></a>
    <a href="https://other.example.com/club">Wine Club</a>
    <a name="top">Plain anchor</a>
  </nav>
  <script>console.log("tracking");</script>
  <p>Estate grown Shiraz from McLaren Vale.</p>
  <img src="/img/bottle.png" alt="Bottle shot">
  <img src="banner.jpg">
</body>
</html>`

func TestContent(t *testing.T) {
	content, err := Content(sampleHTML, "https://winery.example.com/cellar")
	require.NoError(t, err)

	assert.Equal(t, "Cellar Door", content.Title)
	assert.Equal(t, "https://winery.example.com/cellar", content.URL)

	assert.Contains(t, content.Text, "Estate grown Shiraz from McLaren Vale.")
	assert.NotContains(t, content.Text, "tracking")
	assert.NotContains(t, content.Text, "color: red")

	assert.Equal(t, []Link{
		{Text: "Our Wines", Href: "https://winery.example.com/wines"},
		{Text: "Wine Club", Href: "https://other.example.com/club"},
	}, content.Links)

	assert.Equal(t, []Image{
		{Alt: "Bottle shot", Src: "https://winery.example.com/img/bottle.png"},
		{Alt: "", Src: "https://winery.example.com/banner.jpg"},
	}, content.Images)
}

func TestText_JoinsTrimmedNodes(t *testing.T) {
	text, err := Text("<p>  Hello  </p><p>World</p>", 0)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", text)
}

func TestText_Truncates(t *testing.T) {
	text, err := Text("<p>"+strings.Repeat("a", 6000)+"</p>", 5000)
	require.NoError(t, err)
	assert.Len(t, text, 5000)
}

func TestTruncate_RespectsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("é", 10)

	got := truncate(s, 5)

	assert.Equal(t, strings.Repeat("é", 2), got)
	assert.True(t, utf8.ValidString(got))
}

func TestLinks_SkipsAnchorsWithoutHref(t *testing.T) {
	links, err := Links(sampleHTML, "", 0)
	require.NoError(t, err)

	require.Len(t, links, 2)
	assert.Equal(t, "/wines", links[0].Href)
	assert.Equal(t, "https://other.example.com/club", links[1].Href)
}

func TestLinks_CapsResults(t *testing.T) {
	var page strings.Builder
	page.WriteString("<body>")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&page, `<a href="/link-%d">Link %d</a>`, i, i)
	}
	page.WriteString("</body>")

	links, err := Links(page.String(), "", MaxLinks)
	require.NoError(t, err)

	assert.Len(t, links, MaxLinks)
	assert.Equal(t, "/link-0", links[0].Href)
	assert.Equal(t, "/link-19", links[19].Href)
}

func TestImages_MissingAttributes(t *testing.T) {
	images, err := Images("<body><img></body>", "https://winery.example.com/", 0)
	require.NoError(t, err)

	assert.Equal(t, []Image{{Alt: "", Src: ""}}, images)
}

func TestImages_CapsResults(t *testing.T) {
	var page strings.Builder
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&page, `<img src="/img-%d.png">`, i)
	}

	images, err := Images(page.String(), "", MaxImages)
	require.NoError(t, err)
	assert.Len(t, images, MaxImages)
}

func articleFixture() string {
	return `<html><head><title>Harvest Notes</title></head><body><article><h1>Harvest Notes</h1><p>` +
		strings.Repeat("The pick started before dawn and ran long into the morning. ", 20) +
		`</p><p>` +
		strings.Repeat("Ferments are tracking dry with bright aromatics across the board. ", 20) +
		`</p></article></body></html>`
}

func TestReadable(t *testing.T) {
	out, err := Readable(articleFixture(), "https://winery.example.com/notes", 0)
	require.NoError(t, err)

	assert.Contains(t, out, "Title: Harvest Notes")
	assert.Contains(t, out, "URL: https://winery.example.com/notes")
	assert.Contains(t, out, "The pick started before dawn")
}

func TestReadable_Truncates(t *testing.T) {
	out, err := Readable(articleFixture(), "https://winery.example.com/notes", 200)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(out, "[Content truncated...]"))
	assert.LessOrEqual(t, len(out), 200+len(truncationMarker))
}
