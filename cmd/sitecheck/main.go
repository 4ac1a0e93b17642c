package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/SweSweUI/groningen-rentals/internal/config"
	"github.com/SweSweUI/groningen-rentals/internal/logger"
	"github.com/SweSweUI/groningen-rentals/internal/scraper"
)

// Selector audit tool. Loads each source's search page in the scraping
// browser and reports what every configured selector matches, so selector
// rot shows up here instead of as a silently empty scrape.
func main() {
	source := flag.String("source", "", "audit a single source by slug instead of all of them")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("Failed to create logger: %v", err)
	}
	defer log.Sync()

	srcs := scraper.Sources()
	if *source != "" {
		src, ok := scraper.SourceBySlug(*source)
		if !ok {
			log.Fatalw("unknown source", "slug", *source)
		}
		srcs = []scraper.Source{src}
	}

	s := scraper.New(scraper.Options{
		Headless:       cfg.Headless,
		ChromeBin:      cfg.ChromeBin,
		NavTimeout:     cfg.NavTimeout,
		ConsentTimeout: cfg.ConsentTimeout,
		ListingWait:    cfg.ListingWait,
		ElementDelay:   cfg.ElementDelay,
	}, nil, log, nil)
	defer s.CloseBrowser()

	broken := 0
	for _, src := range srcs {
		broken += auditSource(s, src)
	}

	fmt.Println()
	if broken > 0 {
		fmt.Printf("❌ %d selector(s) matched nothing\n", broken)
		os.Exit(1)
	}
	fmt.Println("✅ All selectors match!")
}

// auditSource loads one source's live search page and audits its selectors
// against the rendered HTML. Returns the number of broken selectors.
func auditSource(s *scraper.Scraper, src scraper.Source) int {
	fmt.Printf("\n=== %s ===\n%s\n", src.Name, src.SearchURL)

	html, err := s.PageHTML(src)
	if err != nil {
		fmt.Printf("❌ could not load page: %v\n", err)
		return 1
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		fmt.Printf("❌ could not parse page: %v\n", err)
		return 1
	}

	return auditSelectors(doc, src)
}

// auditSelectors checks every selector of one source against a parsed page
// and returns how many matched nothing. The item selector is checked against
// the whole document, the sub-selectors inside the first matched item.
func auditSelectors(doc *goquery.Document, src scraper.Source) int {
	items := doc.Find(src.Selectors.Item)
	if items.Length() == 0 {
		fmt.Printf("❌ item      0 matches  %s\n", src.Selectors.Item)
		return 1
	}
	fmt.Printf("✅ item      %d matches  %s\n", items.Length(), src.Selectors.Item)

	first := items.First()
	broken := 0
	checks := []struct {
		name     string
		selector string
	}{
		{"title", src.Selectors.Title},
		{"price", src.Selectors.Price},
		{"location", src.Selectors.Location},
		{"size", src.Selectors.Size},
		{"rooms", src.Selectors.Rooms},
		{"link", src.Selectors.Link},
		{"image", src.Selectors.Image},
	}
	for _, check := range checks {
		found := first.Find(check.selector)
		if found.Length() == 0 {
			fmt.Printf("❌ %-9s 0 matches  %s\n", check.name, check.selector)
			broken++
			continue
		}
		fmt.Printf("✅ %-9s %d matches  %q\n", check.name, found.Length(), truncate(sampleOf(found), 50))
	}
	return broken
}

// sampleOf extracts a short preview from the first matched node: its text,
// or an href/src attribute for link and image nodes.
func sampleOf(sel *goquery.Selection) string {
	if text := strings.TrimSpace(sel.First().Text()); text != "" {
		return text
	}
	if href, ok := sel.First().Attr("href"); ok {
		return href
	}
	if src, ok := sel.First().Attr("src"); ok {
		return src
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
