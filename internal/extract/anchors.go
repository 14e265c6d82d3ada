// Package extract pulls listing anchors out of fetched HTML pages.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// DefaultSelector scans every anchor on the page
const DefaultSelector = "a"

// Anchor is a link with visible text, resolved to an absolute URL
type Anchor struct {
	Text string
	URL  string
}

// ValidateSelector reports whether selector is a valid CSS selector
func ValidateSelector(selector string) error {
	if _, err := cascadia.Compile(selector); err != nil {
		return fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return nil
}

// ParseHTML parses a page body into a node tree
func ParseHTML(body []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Anchors returns every element matched by selector that has visible text and
// an href resolvable to an http(s) URL against pageURL, in document order.
// Matched elements that are not anchors are searched for nested anchors.
func Anchors(doc *html.Node, pageURL string, selector string) ([]Anchor, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if selector == "" {
		selector = DefaultSelector
	}
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}

	root := goquery.NewDocumentFromNode(doc)
	seen := make(map[*html.Node]bool)
	var anchors []Anchor

	collect := func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if seen[node] {
			return
		}
		seen[node] = true

		text := normalizeText(s.Text())
		href, ok := s.Attr("href")
		if text == "" || !ok {
			return
		}
		resolved := resolveURL(base, strings.TrimSpace(href))
		if resolved == "" {
			return
		}
		anchors = append(anchors, Anchor{Text: text, URL: resolved})
	}

	root.Find(selector).Each(func(i int, s *goquery.Selection) {
		if goquery.NodeName(s) == "a" {
			collect(i, s)
			return
		}
		s.Find("a").Each(collect)
	})

	return anchors, nil
}

// normalizeText collapses runs of whitespace into single spaces
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// resolveURL resolves a relative URL against a base URL
func resolveURL(base *url.URL, href string) string {
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}
