package scraper

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/SweSweUI/groningen-rentals/internal/models"
	"github.com/SweSweUI/groningen-rentals/internal/synth"
)

const (
	defaultLocation = "Groningen"
	defaultSize     = "N/A"
	defaultRooms    = 2
)

// listingFields holds the raw values pulled from one search-result element
// before assembly. Empty strings mean the selector matched nothing.
type listingFields struct {
	Index     int
	Title     string
	PriceText string
	Location  string
	SizeText  string
	RoomsText string
	Href      string
	ImagePath string
}

// elementText returns the trimmed text of the first sub-element matching
// selector, or fallback when the sub-element is missing or empty.
func elementText(el *rod.Element, selector, fallback string) string {
	sub, err := el.Element(selector)
	if err != nil {
		return fallback
	}
	text, err := sub.Text()
	if err != nil {
		return fallback
	}
	if text = strings.TrimSpace(text); text == "" {
		return fallback
	}
	return text
}

// elementAttr returns the named attribute of the first sub-element matching
// selector, or "" when absent.
func elementAttr(el *rod.Element, selector, attr string) string {
	sub, err := el.Element(selector)
	if err != nil {
		return ""
	}
	val, err := sub.Attribute(attr)
	if err != nil || val == nil {
		return ""
	}
	return strings.TrimSpace(*val)
}

var priceRe = regexp.MustCompile(`\d[\d.,]*`)

// parsePrice pulls the monthly amount out of price text like "€1,250 per
// month" or "€ 1.250 /mnd". Text without digits parses to 0.
func parsePrice(text string) int {
	match := priceRe.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.NewReplacer(",", "", ".", "").Replace(match)
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return n
}

var roomsRe = regexp.MustCompile(`\d+`)

// parseRooms reads the first integer out of room text like "3 rooms" or
// "3 kamers"; unmatched text defaults to 2.
func parseRooms(text string) int {
	match := roomsRe.FindString(text)
	if match == "" {
		return defaultRooms
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return defaultRooms
	}
	return n
}

// resolveURL makes href absolute against the source's base URL when the page
// used a relative link.
func resolveURL(base, href string) string {
	switch {
	case href == "":
		return ""
	case strings.HasPrefix(href, "/"):
		return base + href
	default:
		return href
	}
}

// buildProperty assembles the outgoing record from extracted fields plus
// synthesized filler. now provides the id timestamp.
func buildProperty(src Source, f listingFields, gen synth.Generator, now time.Time) models.Property {
	title := f.Title
	if title == "" {
		title = fmt.Sprintf("%s Property %d", src.Name, f.Index+1)
	}

	location := f.Location
	if location == "" {
		location = defaultLocation
	}

	size := f.SizeText
	if size == "" {
		size = defaultSize
	}

	price := parsePrice(f.PriceText)
	rooms := parseRooms(f.RoomsText)

	sourceURL := resolveURL(src.BaseURL, f.Href)
	if sourceURL == "" {
		sourceURL = src.SearchURL
	}

	images := []string{}
	if f.ImagePath != "" {
		images = append(images, f.ImagePath)
	}

	neighborhood, found := synth.NeighborhoodFrom(location)
	if !found {
		neighborhood = gen.Neighborhood()
	}

	p := models.Property{
		ID:           fmt.Sprintf("%s-%d-%d", src.Slug, now.UnixMilli(), f.Index),
		Title:        title,
		Location:     location,
		Size:         size,
		Price:        price,
		Rooms:        rooms,
		Source:       src.Name,
		SourceURL:    sourceURL,
		ListedDays:   gen.ListedDays(src.MaxListedDays),
		Image:        f.ImagePath,
		Images:       images,
		Type:         models.TypeForRooms(rooms),
		BuildYear:    gen.BuildYear(),
		Interior:     gen.Interior(),
		EnergyLabel:  gen.EnergyLabel(),
		Features:     gen.Features(),
		Deposit:      synth.Deposit(price),
		Neighborhood: neighborhood,
	}
	p.FullDescription = synth.Describe(p)
	return p
}

// SortByFreshness orders records ascending by listedDays, a newest-first
// heuristic over the synthesized freshness value.
func SortByFreshness(props []models.Property) {
	sort.SliceStable(props, func(i, j int) bool {
		return props[i].ListedDays < props[j].ListedDays
	})
}
