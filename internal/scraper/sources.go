package scraper

import "github.com/SweSweUI/groningen-rentals/internal/models"

// SelectorSet names the CSS selectors used to pull one listing apart.
// Selectors track the sites' current markup and break silently when it
// changes; cmd/sitecheck audits them against the live pages.
type SelectorSet struct {
	Item     string
	Title    string
	Price    string
	Location string
	Size     string
	Rooms    string
	Link     string
	Image    string
}

// Source describes one listing site: where to look and how to read it.
type Source struct {
	Name          string
	Slug          string
	BaseURL       string
	SearchURL     string
	ConsentText   string // cookie banner button label
	MaxListings   int    // per-run cap on listings and screenshot I/O
	MaxListedDays int    // upper bound for the synthesized freshness value
	Selectors     SelectorSet
}

// Pararius is scraped first, capped at 20 listings per run.
func Pararius() Source {
	return Source{
		Name:          models.SourcePararius,
		Slug:          "pararius",
		BaseURL:       "https://www.pararius.com",
		SearchURL:     "https://www.pararius.com/apartments/groningen",
		ConsentText:   "Agree",
		MaxListings:   20,
		MaxListedDays: 3,
		Selectors: SelectorSet{
			Item:     "section.listing-search-item",
			Title:    ".listing-search-item__title a",
			Price:    ".listing-search-item__price",
			Location: ".listing-search-item__sub-title",
			Size:     ".illustrated-features__item--surface-area",
			Rooms:    ".illustrated-features__item--number-of-rooms",
			Link:     "a.listing-search-item__link--title",
			Image:    ".picture--listing-search-item img",
		},
	}
}

// Funda is scraped second, capped at 15 listings per run.
func Funda() Source {
	return Source{
		Name:          models.SourceFunda,
		Slug:          "funda",
		BaseURL:       "https://www.funda.nl",
		SearchURL:     "https://www.funda.nl/huur/groningen/",
		ConsentText:   "Akkoord",
		MaxListings:   15,
		MaxListedDays: 7,
		Selectors: SelectorSet{
			Item:     "[data-test-id='search-result-item']",
			Title:    "[data-test-id='street-name-house-number']",
			Price:    "[data-test-id='price-rent']",
			Location: "[data-test-id='postal-code-city']",
			Size:     "[data-test-id='object-features'] li:first-child",
			Rooms:    "[data-test-id='object-features'] li:nth-child(2)",
			Link:     "a[data-test-id='object-image-link']",
			Image:    "a[data-test-id='object-image-link'] img",
		},
	}
}

// Sources returns every configured source in scraping order.
func Sources() []Source {
	return []Source{Pararius(), Funda()}
}

// SourceBySlug looks a source up by its slug ("pararius", "funda").
func SourceBySlug(slug string) (Source, bool) {
	for _, src := range Sources() {
		if src.Slug == slug {
			return src, true
		}
	}
	return Source{}, false
}
