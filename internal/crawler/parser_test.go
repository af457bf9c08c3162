package crawler

import "testing"

func TestParseBackendsAgree(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Same Everywhere" />
		<meta property="og:image" content="https://shop.example/a.jpg" />
	</head></html>`

	for _, backend := range []string{BackendGoquery, BackendNetHTML} {
		t.Run(backend, func(t *testing.T) {
			doc := Parse([]byte(html), backend, testLogger())
			if doc == nil {
				t.Fatal("Parse() = nil")
			}

			properties, err := ExtractOpenGraph(doc, nil)
			if err != nil {
				t.Fatalf("ExtractOpenGraph() error = %v", err)
			}
			if properties.Get("title") != "Same Everywhere" {
				t.Errorf("Get(title) = %q, want %q", properties.Get("title"), "Same Everywhere")
			}
			if properties.Get("image") != "https://shop.example/a.jpg" {
				t.Errorf("Get(image) = %q, want %q", properties.Get("image"), "https://shop.example/a.jpg")
			}
		})
	}
}

func TestParseUnknownBackendFallsBack(t *testing.T) {
	html := `<html><head><meta property="og:title" content="Still Parsed" /></head></html>`

	doc := Parse([]byte(html), "lxml", testLogger())
	if doc == nil {
		t.Fatal("Parse() with unknown backend = nil, want fallback to default")
	}

	properties, err := ExtractOpenGraph(doc, nil)
	if err != nil {
		t.Fatalf("ExtractOpenGraph() error = %v", err)
	}
	if properties.Get("title") != "Still Parsed" {
		t.Errorf("Get(title) = %q, want %q", properties.Get("title"), "Still Parsed")
	}
}

func TestParseEmptyBackendUsesDefault(t *testing.T) {
	doc := Parse([]byte("<html></html>"), "", testLogger())
	if doc == nil {
		t.Fatal("Parse() with empty backend = nil")
	}
}
