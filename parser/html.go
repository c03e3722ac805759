package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// skipTags never contribute visible text.
var skipTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"svg":      {},
}

// LinesFromHTML returns the visible text of the first element matching
// selector, one line per non-empty text node, in document order. It lets a
// saved results page go through the same pipeline as a live browser fetch.
//
// If nothing matches the selector the whole <body> is used.
func LinesFromHTML(rawHTML, selector string) ([]string, error) {
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return nil, fmt.Errorf("invalid results selector %q: %w", selector, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	root := doc.FindMatcher(goquery.Single(selector))
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		return nil, nil
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if _, skip := skipTags[n.Data]; skip {
				return
			}
		case html.TextNode:
			for _, l := range strings.Split(n.Data, "\n") {
				if t := strings.TrimSpace(l); t != "" {
					lines = append(lines, t)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range root.Nodes {
		walk(n)
	}
	return lines, nil
}
