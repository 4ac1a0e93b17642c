package main

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/SweSweUI/groningen-rentals/internal/scraper"
)

// parariusPage mirrors the markup the Pararius selectors expect.
const parariusPage = `<html><body>
<section class="listing-search-item">
  <h2 class="listing-search-item__title"><a href="/apartment-for-rent/groningen/1">Apartment Oosterstraat</a></h2>
  <a class="listing-search-item__link--title" href="/apartment-for-rent/groningen/1">Apartment Oosterstraat</a>
  <div class="listing-search-item__price">&euro;1,250 per month</div>
  <div class="listing-search-item__sub-title">9711 NR Groningen (Binnenstad)</div>
  <ul>
    <li class="illustrated-features__item--surface-area">75 m&sup2;</li>
    <li class="illustrated-features__item--number-of-rooms">3 rooms</li>
  </ul>
  <div class="picture--listing-search-item"><img src="/img/1.jpg"></div>
</section>
<section class="listing-search-item">
  <h2 class="listing-search-item__title"><a href="/apartment-for-rent/groningen/2">Studio Zernike</a></h2>
</section>
</body></html>`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return doc
}

func TestAuditSelectorsAllMatch(t *testing.T) {
	doc := parseDoc(t, parariusPage)

	if broken := auditSelectors(doc, scraper.Pararius()); broken != 0 {
		t.Fatalf("expected all selectors to match the fixture, %d broken", broken)
	}
}

func TestAuditSelectorsReportsMissing(t *testing.T) {
	// Items exist but carry none of the expected sub-elements.
	doc := parseDoc(t, `<html><body><section class="listing-search-item"><p>moved markup</p></section></body></html>`)

	if broken := auditSelectors(doc, scraper.Pararius()); broken != 7 {
		t.Fatalf("expected all 7 sub-selectors broken, got %d", broken)
	}
}

func TestAuditSelectorsNoItems(t *testing.T) {
	doc := parseDoc(t, `<html><body><div class="totally-different"></div></body></html>`)

	if broken := auditSelectors(doc, scraper.Pararius()); broken != 1 {
		t.Fatalf("expected a single broken item selector, got %d", broken)
	}
}

func TestSampleOf(t *testing.T) {
	doc := parseDoc(t, `<html><body><a href="/x">label</a><img src="/y.png"></body></html>`)

	if got := sampleOf(doc.Find("a")); got != "label" {
		t.Errorf("sampleOf(a) = %q, want text content", got)
	}
	if got := sampleOf(doc.Find("img")); got != "/y.png" {
		t.Errorf("sampleOf(img) = %q, want src attribute", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 50); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	long := strings.Repeat("a", 60)
	got := truncate(long, 50)
	if len(got) != 50 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate kept %d chars: %q", len(got), got)
	}
}
