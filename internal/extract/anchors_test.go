package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `
<html>
<body>
	<nav><a href="/">Home</a><a href="#top">Top</a></nav>
	<ul class="tenders">
		<li><a href="/tender/1">ERP   System
			Tender</a></li>
		<li><a href="https://other.example/t/2"><span>Web</span> <b>Portal</b></a></li>
		<li><a href="javascript:void(0)">Mobile App</a></li>
		<li><a href="mailto:bids@example.com">Email us</a></li>
		<li><a>No href</a></li>
		<li><a href="/tender/3">   </a></li>
	</ul>
</body>
</html>`

func parse(t *testing.T, body string) []Anchor {
	t.Helper()
	doc, err := ParseHTML([]byte(body))
	require.NoError(t, err)
	anchors, err := Anchors(doc, "https://www.example.com/list/", "a")
	require.NoError(t, err)
	return anchors
}

func TestAnchors_DefaultSelector(t *testing.T) {
	anchors := parse(t, listingPage)

	assert.Equal(t, []Anchor{
		{Text: "Home", URL: "https://www.example.com/"},
		{Text: "ERP System Tender", URL: "https://www.example.com/tender/1"},
		{Text: "Web Portal", URL: "https://other.example/t/2"},
	}, anchors)
}

func TestAnchors_ContainerSelector(t *testing.T) {
	doc, err := ParseHTML([]byte(listingPage))
	require.NoError(t, err)

	anchors, err := Anchors(doc, "https://www.example.com/list/", "ul.tenders li")
	require.NoError(t, err)

	require.Len(t, anchors, 2)
	assert.Equal(t, "ERP System Tender", anchors[0].Text)
	assert.Equal(t, "Web Portal", anchors[1].Text)
}

func TestAnchors_RelativeToPage(t *testing.T) {
	doc, err := ParseHTML([]byte(`<a href="detail?id=7">Cloud migration</a>`))
	require.NoError(t, err)

	anchors, err := Anchors(doc, "https://www.example.com/list/", "")
	require.NoError(t, err)

	require.Len(t, anchors, 1)
	assert.Equal(t, "https://www.example.com/list/detail?id=7", anchors[0].URL)
}

func TestAnchors_InvalidSelector(t *testing.T) {
	doc, err := ParseHTML([]byte(listingPage))
	require.NoError(t, err)

	_, err = Anchors(doc, "https://www.example.com/", "a[")
	assert.Error(t, err)
}

func TestAnchors_InvalidPageURL(t *testing.T) {
	doc, err := ParseHTML([]byte(listingPage))
	require.NoError(t, err)

	_, err = Anchors(doc, "://bad", "a")
	assert.Error(t, err)
}

func TestValidateSelector(t *testing.T) {
	assert.NoError(t, ValidateSelector("div.listing > a"))
	assert.Error(t, ValidateSelector("div[unterminated"))
}
