package listings

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SweSweUI/groningen-rentals/internal/cache"
	"github.com/SweSweUI/groningen-rentals/internal/logger"
	"github.com/SweSweUI/groningen-rentals/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubScraper struct {
	listings []models.Property
	err      error
	called   chan struct{}
}

func (s *stubScraper) ScrapeAll() ([]models.Property, error) {
	if s.called != nil {
		close(s.called)
	}
	return s.listings, s.err
}

func testListings() []models.Property {
	return []models.Property{
		{
			ID:         "pararius-100-0",
			Title:      "Apartment Oosterstraat",
			Location:   "Groningen (Binnenstad)",
			Price:      1400,
			Rooms:      2,
			Source:     models.SourcePararius,
			ListedDays: 1,
			Images:     []string{},
			Features:   []string{},
		},
		{
			ID:         "pararius-100-1",
			Title:      "Studio Zernike",
			Price:      0,
			Rooms:      1,
			Source:     models.SourcePararius,
			ListedDays: 0,
			Images:     []string{},
			Features:   []string{},
		},
		{
			ID:         "funda-100-0",
			Title:      "House Helpman",
			Price:      1900,
			Rooms:      4,
			Source:     models.SourceFunda,
			ListedDays: 5,
			Images:     []string{},
			Features:   []string{},
		},
	}
}

// newTestHandler builds a handler with pre-set listings and no background
// refresh, database or cache.
func newTestHandler(listings []models.Property) *Handler {
	h := &Handler{log: logger.Nop(), startedAt: time.Now()}
	h.setListings(listings, nil)
	return h
}

func testRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.GET("/api/listings", h.GetListings)
	r.GET("/api/listings/:id", h.GetListing)
	r.GET("/api/sources", h.GetSources)
	r.GET("/api/stats", h.GetStats)
	r.GET("/api/cache-status", h.GetCacheStatus)
	r.GET("/api/health", h.Health)
	r.POST("/api/refresh", h.RefreshListings)
	return r
}

func performRequest(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type listingsResponse struct {
	Count    int               `json:"count"`
	Listings []models.Property `json:"listings"`
}

func TestGetListings(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	rec := performRequest(r, http.MethodGet, "/api/listings")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp listingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 3 {
		t.Fatalf("expected 3 listings, got %d", resp.Count)
	}

	// Sorted by freshness, newest first.
	for i := 1; i < len(resp.Listings); i++ {
		if resp.Listings[i-1].ListedDays > resp.Listings[i].ListedDays {
			t.Errorf("listings out of order at %d", i)
		}
	}
}

func TestGetListingsSourceFilter(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	rec := performRequest(r, http.MethodGet, "/api/listings?source=funda")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp listingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Listings[0].Source != models.SourceFunda {
		t.Fatalf("unexpected funda filter result: %+v", resp)
	}
}

func TestGetListingsPriceFilterExcludesUnpriced(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	rec := performRequest(r, http.MethodGet, "/api/listings?max_price=1500")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp listingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// Only the 1400 listing: 1900 is above the cap and the zero-price
	// studio has unknown affordability.
	if resp.Count != 1 || resp.Listings[0].ID != "pararius-100-0" {
		t.Fatalf("unexpected price filter result: %+v", resp)
	}
}

func TestGetListingsRoomsFilter(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	rec := performRequest(r, http.MethodGet, "/api/listings?min_rooms=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp listingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Listings[0].ID != "funda-100-0" {
		t.Fatalf("unexpected rooms filter result: %+v", resp)
	}
}

func TestGetListingsRejectsBadFilters(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	cases := []string{
		"/api/listings?source=Funda",
		"/api/listings?source=kamernet",
		"/api/listings?max_price=cheap",
		"/api/listings?max_price=-5",
		"/api/listings?min_rooms=many",
	}
	for _, path := range cases {
		rec := performRequest(r, http.MethodGet, path)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for %s, got %d", path, rec.Code)
		}
	}
}

func TestGetListing(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	rec := performRequest(r, http.MethodGet, "/api/listings/funda-100-0")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var p models.Property
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if p.Title != "House Helpman" {
		t.Fatalf("unexpected listing: %+v", p)
	}

	recBad := performRequest(r, http.MethodGet, "/api/listings/not..valid")
	if recBad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", recBad.Code)
	}

	recMissing := performRequest(r, http.MethodGet, "/api/listings/funda-100-99")
	if recMissing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", recMissing.Code)
	}
}

func TestGetSources(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	rec := performRequest(r, http.MethodGet, "/api/sources")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Sources []struct {
			Name        string `json:"name"`
			Slug        string `json:"slug"`
			MaxListings int    `json:"maxListings"`
			Listings    int    `json:"listings"`
		} `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp.Sources))
	}
	if resp.Sources[0].Slug != "pararius" || resp.Sources[0].Listings != 2 {
		t.Errorf("unexpected pararius entry: %+v", resp.Sources[0])
	}
	if resp.Sources[1].Slug != "funda" || resp.Sources[1].Listings != 1 {
		t.Errorf("unexpected funda entry: %+v", resp.Sources[1])
	}
}

func TestGetStatsFromMemory(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	rec := performRequest(r, http.MethodGet, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		TotalListings int                  `json:"totalListings"`
		Sources       []models.SourceStats `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalListings != 3 {
		t.Fatalf("expected 3 total, got %d", resp.TotalListings)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 source stats, got %d", len(resp.Sources))
	}

	pararius := resp.Sources[0]
	if pararius.Source != models.SourcePararius || pararius.Listings != 2 {
		t.Fatalf("unexpected pararius stats: %+v", pararius)
	}
	// The zero-price studio is excluded from price aggregates.
	if pararius.AvgPrice != 1400 || pararius.MinPrice != 1400 || pararius.MaxPrice != 1400 {
		t.Errorf("unexpected pararius price stats: %+v", pararius)
	}
}

func TestHealth(t *testing.T) {
	r := testRouter(newTestHandler(testListings()))

	rec := performRequest(r, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Status   string `json:"status"`
		Listings int    `json:"listings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Listings != 3 {
		t.Fatalf("unexpected health response: %+v", resp)
	}
}

func TestRefreshConflictWhileRunning(t *testing.T) {
	h := newTestHandler(testListings())
	h.scraper = &stubScraper{}
	h.mu.Lock()
	h.refreshing = true
	h.mu.Unlock()

	rec := performRequest(testRouter(h), http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while refreshing, got %d", rec.Code)
	}
}

func TestRefreshSwapsListings(t *testing.T) {
	h := newTestHandler(testListings())
	fresh := []models.Property{{
		ID:         "funda-200-0",
		Title:      "Apartment Korreweg",
		Source:     models.SourceFunda,
		Price:      1100,
		ListedDays: 0,
		Images:     []string{},
		Features:   []string{},
	}}
	stub := &stubScraper{listings: fresh, called: make(chan struct{})}
	h.scraper = stub

	rec := performRequest(testRouter(h), http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	select {
	case <-stub.called:
	case <-time.After(2 * time.Second):
		t.Fatal("scrape was never triggered")
	}

	// The swap happens after ScrapeAll returns; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := h.snapshot(); len(got) == 1 && got[0].ID == "funda-200-0" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("listings were not swapped, got %+v", h.snapshot())
}

func TestRefreshKeepsDataWhenScrapeEmpty(t *testing.T) {
	h := newTestHandler(testListings())
	h.scraper = &stubScraper{listings: nil}

	h.refresh("manual")

	if got := h.snapshot(); len(got) != 3 {
		t.Fatalf("empty scrape should keep previous listings, got %d", len(got))
	}
}

func TestRefreshKeepsDataWhenScrapeFails(t *testing.T) {
	h := newTestHandler(testListings())
	h.scraper = &stubScraper{err: errors.New("failed to initialize browser: no chrome")}

	h.refresh("manual")

	if got := h.snapshot(); len(got) != 3 {
		t.Fatalf("failed scrape should keep previous listings, got %d", len(got))
	}
}

func TestPrimeFromCache(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewStore(filepath.Join(dir, "listings_cache.json"), time.Hour, nil)
	if err := store.Save(testListings()); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	h := NewHandler(nil, store, nil, nil, nil, Options{ScrapeOnStart: false})
	defer h.StopAutoRefresh()

	if got := h.snapshot(); len(got) != 3 {
		t.Fatalf("expected 3 primed listings, got %d", len(got))
	}
}

func TestPrimeWithNothingAvailable(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, Options{ScrapeOnStart: false})
	defer h.StopAutoRefresh()

	if got := h.snapshot(); len(got) != 0 {
		t.Fatalf("expected no listings, got %d", len(got))
	}

	rec := performRequest(testRouter(h), http.MethodGet, "/api/listings")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with empty data, got %d", rec.Code)
	}
}

func TestCacheStatus(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewStore(filepath.Join(dir, "listings_cache.json"), time.Hour, nil)
	if err := store.Save(testListings()); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	h := NewHandler(nil, store, nil, nil, nil, Options{ScrapeOnStart: false})
	defer h.StopAutoRefresh()

	rec := performRequest(testRouter(h), http.MethodGet, "/api/cache-status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["listings"].(float64) != 3 {
		t.Errorf("unexpected listings count: %v", resp["listings"])
	}
	if resp["cacheExpired"].(bool) {
		t.Error("fresh cache should not be expired")
	}
	if resp["refreshing"].(bool) {
		t.Error("no refresh should be running")
	}
}

func TestApplyFilters(t *testing.T) {
	listings := testListings()

	cases := []struct {
		name     string
		source   string
		maxPrice int
		minRooms int
		wantIDs  []string
	}{
		{"none", "", -1, -1, []string{"pararius-100-0", "pararius-100-1", "funda-100-0"}},
		{"source", models.SourcePararius, -1, -1, []string{"pararius-100-0", "pararius-100-1"}},
		{"price", "", 1500, -1, []string{"pararius-100-0"}},
		{"rooms", "", -1, 2, []string{"pararius-100-0", "funda-100-0"}},
		{"combined", models.SourceFunda, 2000, 4, []string{"funda-100-0"}},
		{"nothing", models.SourceFunda, 1000, -1, []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := applyFilters(listings, tc.source, tc.maxPrice, tc.minRooms)
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("expected %d results, got %d", len(tc.wantIDs), len(got))
			}
			for i, id := range tc.wantIDs {
				if got[i].ID != id {
					t.Errorf("result %d: expected %s, got %s", i, id, got[i].ID)
				}
			}
		})
	}
}
