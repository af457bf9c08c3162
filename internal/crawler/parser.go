package crawler

import (
	"bytes"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Parser backends. The goquery backend is the default; the net/html backend
// parses with the tokenizer-level tree directly.
const (
	BackendGoquery = "goquery"
	BackendNetHTML = "net/html"

	DefaultBackend = BackendGoquery
)

// Document is a navigable parsed HTML page
type Document struct {
	doc *goquery.Document
}

type parseFunc func(raw []byte) (*Document, error)

var backends = map[string]parseFunc{
	BackendGoquery: parseGoquery,
	BackendNetHTML: parseNetHTML,
}

func parseGoquery(raw []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

func parseNetHTML(raw []byte) (*Document, error) {
	node, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &Document{doc: goquery.NewDocumentFromNode(node)}, nil
}

// Parse parses HTML bytes with the named backend. An unknown backend falls
// back to the default with a warning; a parse failure yields nil and is
// logged, never returned. Same bytes and backend always yield an equivalent
// tree.
func Parse(raw []byte, backend string, logger *slog.Logger) *Document {
	if backend == "" {
		backend = DefaultBackend
	}

	parse, ok := backends[backend]
	if !ok {
		logger.Warn("Parser backend not found, falling back to default",
			"backend", backend,
			"fallback", DefaultBackend,
		)
		parse = backends[DefaultBackend]
	}

	doc, err := parse(raw)
	if err != nil {
		logger.Error("Unexpected error while parsing the page", "error", err)
		return nil
	}
	return doc
}
