package crawler

import (
	"regexp"
	"strings"

	"capellawish/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

// ogPropertyPattern matches any meta property in the OpenGraph namespace
var ogPropertyPattern = regexp.MustCompile(`(?i)^og:`)

// ExtractOpenGraph scans the document for meta tags whose property matches
// the pattern (the og: namespace by default) and folds them into a property
// map. Repeated properties are promoted to ordered lists in encounter order.
// Keys or content empty after trimming are skipped entirely.
//
// Fails with ErrExtraction when doc is nil: the caller must supply a valid
// parse result.
func ExtractOpenGraph(doc *Document, pattern *regexp.Regexp) (domain.PropertyMap, error) {
	if doc == nil {
		return nil, ErrExtraction
	}
	if pattern == nil {
		pattern = ogPropertyPattern
	}

	properties := make(domain.PropertyMap)
	doc.doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		property, ok := s.Attr("property")
		if !ok || !pattern.MatchString(property) {
			return
		}
		content, ok := s.Attr("content")
		if !ok {
			return
		}

		// The prefix strip is deliberately case-sensitive while the match is
		// not: an OG:title tag matches but keeps its prefix.
		property = strings.TrimPrefix(strings.TrimSpace(property), "og:")
		content = strings.TrimSpace(content)
		if property == "" || content == "" {
			return
		}

		properties.Add(property, content)
	})

	return properties, nil
}
