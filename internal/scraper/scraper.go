package scraper

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/SweSweUI/groningen-rentals/internal/models"
	"github.com/SweSweUI/groningen-rentals/internal/synth"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options control browser behavior and scrape pacing.
type Options struct {
	ScreenshotDir  string
	Headless       bool
	ChromeBin      string
	NavTimeout     time.Duration // navigation + settle budget per source
	ConsentTimeout time.Duration // cookie banner lookup budget
	ListingWait    time.Duration // wait for the first listing element
	ElementDelay   time.Duration // courtesy pause between listing elements
}

// DefaultOptions returns the production settings.
func DefaultOptions() Options {
	return Options{
		ScreenshotDir:  "static/screenshots",
		Headless:       true,
		NavTimeout:     30 * time.Second,
		ConsentTimeout: 3 * time.Second,
		ListingWait:    10 * time.Second,
		ElementDelay:   500 * time.Millisecond,
	}
}

// Recorder receives scrape lifecycle events, typically for metrics.
// Implementations must be safe for concurrent use.
type Recorder interface {
	SourceScraped(source string, listings int, duration time.Duration)
	SourceFailed(source string)
	ListingSkipped(source string)
	ScreenshotFailed(source string)
}

type nopRecorder struct{}

func (nopRecorder) SourceScraped(string, int, time.Duration) {}
func (nopRecorder) SourceFailed(string)                      {}
func (nopRecorder) ListingSkipped(string)                    {}
func (nopRecorder) ScreenshotFailed(string)                  {}

// Scraper owns a single browser session and produces Property records from
// the configured listing sources. It is not safe for concurrent use; callers
// serialize scraping runs.
type Scraper struct {
	browser *rod.Browser
	opts    Options
	gen     synth.Generator
	log     *zap.SugaredLogger
	rec     Recorder
}

// New creates a Scraper. The browser session is launched lazily by the first
// scrape. A nil generator gets a clock-seeded one, a nil logger is discarded
// and a nil recorder records nothing.
func New(opts Options, gen synth.Generator, log *zap.SugaredLogger, rec Recorder) *Scraper {
	if gen == nil {
		gen = synth.New(0)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Scraper{opts: opts, gen: gen, log: log, rec: rec}
}

// InitBrowser launches and connects the shared browser session. Calling it
// while a session is already live is a no-op.
func (s *Scraper) InitBrowser() error {
	if s.browser != nil {
		return nil
	}

	l := launcher.New().
		Headless(s.opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("window-size", "1920,1080").
		Set("user-agent", userAgent)

	if bin := findChromiumPath(s.opts.ChromeBin); bin != "" {
		s.log.Infow("using chromium binary", "path", bin)
		l = l.Bin(bin)
	}

	if isDockerEnvironment() {
		s.log.Info("docker environment detected, applying container settings")
		l = l.Set("disable-setuid-sandbox").
			Set("no-first-run").
			Set("disable-default-apps").
			Set("single-process")
	}

	url, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	s.browser = browser
	s.log.Info("browser session ready")
	return nil
}

// CloseBrowser terminates the session if one exists. Safe to call twice.
func (s *Scraper) CloseBrowser() {
	if s.browser == nil {
		return
	}
	if err := s.browser.Close(); err != nil {
		s.log.Warnw("browser close failed", "error", err)
	}
	s.browser = nil
}

// ScrapeAll scrapes every configured source in fixed order and returns the
// merged result sorted newest-first. The session is always closed before
// returning; the only error a caller sees is a failed browser launch.
func (s *Scraper) ScrapeAll() ([]models.Property, error) {
	if err := s.InitBrowser(); err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer s.CloseBrowser()

	all := make([]models.Property, 0, 35)
	for _, src := range Sources() {
		props := s.ScrapeSource(src)
		s.log.Infow("source finished", "source", src.Name, "listings", len(props))
		all = append(all, props...)
	}

	SortByFreshness(all)
	return all, nil
}

// ScrapeSource scrapes a single source. Failures never propagate: a source
// that cannot be loaded yields an empty result and the session stays usable
// for the next one.
func (s *Scraper) ScrapeSource(src Source) (props []models.Property) {
	if err := s.InitBrowser(); err != nil {
		s.log.Errorw("browser unavailable", "source", src.Name, "error", err)
		s.rec.SourceFailed(src.Slug)
		return nil
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("source scrape panicked", "source", src.Name, "panic", r)
			s.rec.SourceFailed(src.Slug)
			props = nil
		}
	}()

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		s.log.Errorw("could not open page", "source", src.Name, "error", err)
		s.rec.SourceFailed(src.Slug)
		return nil
	}
	defer page.Close()

	s.log.Infow("navigating", "source", src.Name, "url", src.SearchURL)
	nav := page.Timeout(s.opts.NavTimeout)
	if err := nav.Navigate(src.SearchURL); err != nil {
		s.log.Warnw("navigation failed", "source", src.Name, "error", err)
		s.rec.SourceFailed(src.Slug)
		return nil
	}
	if err := nav.WaitLoad(); err != nil {
		s.log.Warnw("page never finished loading", "source", src.Name, "error", err)
		s.rec.SourceFailed(src.Slug)
		return nil
	}
	if err := nav.WaitDOMStable(500*time.Millisecond, 0.1); err != nil {
		s.log.Warnw("page never settled", "source", src.Name, "error", err)
		s.rec.SourceFailed(src.Slug)
		return nil
	}

	s.dismissCookieConsent(page, src)

	if _, err := page.Timeout(s.opts.ListingWait).Element(src.Selectors.Item); err != nil {
		s.log.Warnw("no listings appeared", "source", src.Name, "selector", src.Selectors.Item, "error", err)
		s.rec.SourceFailed(src.Slug)
		return nil
	}

	elements, err := page.Elements(src.Selectors.Item)
	if err != nil {
		s.log.Warnw("listing enumeration failed", "source", src.Name, "error", err)
		s.rec.SourceFailed(src.Slug)
		return nil
	}
	s.log.Infow("found listings", "source", src.Name, "count", len(elements), "cap", src.MaxListings)

	for i, el := range elements {
		if i >= src.MaxListings {
			break
		}
		if prop, ok := s.extractListing(el, src, i); ok {
			props = append(props, prop)
		}
		time.Sleep(s.opts.ElementDelay)
	}

	s.rec.SourceScraped(src.Slug, len(props), time.Since(start))
	return props
}

// PageHTML loads a source's search page in the shared session and returns
// its HTML once the DOM has settled, with the cookie banner dismissed.
// cmd/sitecheck parses this to audit the configured selectors.
func (s *Scraper) PageHTML(src Source) (string, error) {
	if err := s.InitBrowser(); err != nil {
		return "", err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return "", fmt.Errorf("could not open page: %w", err)
	}
	defer page.Close()

	nav := page.Timeout(s.opts.NavTimeout)
	if err := nav.Navigate(src.SearchURL); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	if err := nav.WaitLoad(); err != nil {
		return "", fmt.Errorf("page never finished loading: %w", err)
	}
	if err := nav.WaitDOMStable(500*time.Millisecond, 0.1); err != nil {
		return "", fmt.Errorf("page never settled: %w", err)
	}

	s.dismissCookieConsent(page, src)

	return page.HTML()
}

// dismissCookieConsent clicks the consent button when the banner shows up.
// Absence of the banner is not an error.
func (s *Scraper) dismissCookieConsent(page *rod.Page, src Source) {
	btn, err := page.Timeout(s.opts.ConsentTimeout).ElementR("button", "/"+src.ConsentText+"/i")
	if err != nil {
		s.log.Debugw("no cookie banner", "source", src.Name)
		return
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		s.log.Debugw("cookie consent click failed", "source", src.Name, "error", err)
		return
	}
	s.log.Infow("cookie consent dismissed", "source", src.Name)
	time.Sleep(s.opts.ElementDelay)
}

// extractListing builds one Property from a search-result element. Every
// failure is contained here: a panic skips the element, a missing
// sub-element substitutes its default, a failed screenshot leaves the image
// fields empty.
func (s *Scraper) extractListing(el *rod.Element, src Source, index int) (prop models.Property, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warnw("listing skipped", "source", src.Name, "index", index, "panic", r)
			s.rec.ListingSkipped(src.Slug)
			ok = false
		}
	}()

	fields := listingFields{
		Index:     index,
		Title:     elementText(el, src.Selectors.Title, ""),
		PriceText: elementText(el, src.Selectors.Price, ""),
		Location:  elementText(el, src.Selectors.Location, ""),
		SizeText:  elementText(el, src.Selectors.Size, ""),
		RoomsText: elementText(el, src.Selectors.Rooms, ""),
		Href:      elementAttr(el, src.Selectors.Link, "href"),
	}

	imagePath, err := s.captureListingImage(el, src, index)
	if err != nil {
		s.log.Warnw("screenshot failed", "source", src.Name, "index", index, "error", err)
		s.rec.ScreenshotFailed(src.Slug)
	}
	fields.ImagePath = imagePath

	return buildProperty(src, fields, s.gen, time.Now()), true
}

// findChromiumPath looks for a Chromium/Chrome binary, preferring the
// configured path, then CHROME_BIN, then common install locations.
func findChromiumPath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	if chromeBin := os.Getenv("CHROME_BIN"); chromeBin != "" {
		if _, err := os.Stat(chromeBin); err == nil {
			return chromeBin
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
		"/opt/google/chrome/chrome",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// isDockerEnvironment checks if the process runs inside a container.
func isDockerEnvironment() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
		return strings.Contains(string(data), "docker") || strings.Contains(string(data), "containerd")
	}

	return false
}
