package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// cleanText strips markup and entities and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		s = stripHTML(s)
	}
	return strings.Join(strings.Fields(s), " ")
}

func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find("br, p, div, li").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return doc.Text()
}
