// Package listings serves the rental listings API backed by the scraper,
// the JSON cache and the SQLite history store.
package listings

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SweSweUI/groningen-rentals/internal/cache"
	"github.com/SweSweUI/groningen-rentals/internal/database"
	"github.com/SweSweUI/groningen-rentals/internal/metrics"
	"github.com/SweSweUI/groningen-rentals/internal/models"
	"github.com/SweSweUI/groningen-rentals/internal/scraper"
	"github.com/SweSweUI/groningen-rentals/internal/util"
	"github.com/SweSweUI/groningen-rentals/internal/validation"
)

// scrapeRunner is the slice of *scraper.Scraper the handler needs.
type scrapeRunner interface {
	ScrapeAll() ([]models.Property, error)
}

// Options configure handler startup and background refresh behavior.
type Options struct {
	ScrapeOnStart   bool
	RefreshInterval time.Duration
}

// Handler keeps the current listings in memory and answers the API.
// The database and cache store are optional; a nil store simply skips
// that layer.
type Handler struct {
	db      *database.Database
	store   *cache.Store
	scraper scrapeRunner
	metrics *metrics.Provider
	log     *zap.SugaredLogger
	opts    Options

	mu         sync.RWMutex
	listings   []models.Property
	lastRun    *models.ScrapeRun
	refreshing bool

	refreshTicker *time.Ticker
	startedAt     time.Time
}

// NewHandler creates the handler and primes it: cache first, then the
// database, then (when configured) a blocking scrape. A refresh ticker
// keeps the data fresh afterwards.
func NewHandler(db *database.Database, store *cache.Store, scr *scraper.Scraper, prov *metrics.Provider, log *zap.SugaredLogger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	h := &Handler{
		db:        db,
		store:     store,
		metrics:   prov,
		log:       log,
		opts:      opts,
		startedAt: time.Now(),
	}
	// Assign only a live scraper so the nil checks below stay meaningful.
	if scr != nil {
		h.scraper = scr
	}

	h.prime()
	h.startAutoRefresh()

	return h
}

// prime fills the in-memory listings from the fastest available layer.
func (h *Handler) prime() {
	if h.store != nil {
		if cached, ok := h.store.Load(); ok {
			h.setListings(cached, nil)
			h.recordCacheHit()
			h.log.Infow("primed from cache", "listings", len(cached))
			return
		}
		h.recordCacheMiss()
	}

	if h.db != nil {
		stored, err := h.db.LatestListings()
		if err != nil {
			h.log.Warnw("database priming failed", "error", err)
		} else if len(stored) > 0 {
			run, runErr := h.db.LastRun()
			if runErr != nil {
				h.log.Warnw("could not load last run", "error", runErr)
			}
			h.setListings(stored, run)
			h.log.Infow("primed from database", "listings", len(stored))
			return
		}
	}

	if h.opts.ScrapeOnStart && h.scraper != nil {
		h.log.Info("no usable cache or stored run, scraping before startup")
		h.refresh("startup")
		return
	}

	h.log.Warn("starting with no listings")
}

// startAutoRefresh schedules periodic background scrapes.
func (h *Handler) startAutoRefresh() {
	if h.opts.RefreshInterval <= 0 || h.scraper == nil {
		return
	}

	h.refreshTicker = time.NewTicker(h.opts.RefreshInterval)
	go func() {
		for range h.refreshTicker.C {
			h.log.Info("scheduled refresh triggered")
			h.refresh("interval")
		}
	}()
}

// StopAutoRefresh stops the background refresh ticker.
func (h *Handler) StopAutoRefresh() {
	if h.refreshTicker != nil {
		h.refreshTicker.Stop()
	}
}

// refresh runs a full scrape and swaps the result in. Overlapping calls
// are rejected; the browser session has a single owner.
func (h *Handler) refresh(trigger string) {
	h.mu.Lock()
	if h.refreshing {
		h.mu.Unlock()
		h.log.Warnw("refresh already in progress, skipping", "trigger", trigger)
		return
	}
	h.refreshing = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.refreshing = false
		h.mu.Unlock()
	}()

	start := time.Now()
	scraped, err := h.scraper.ScrapeAll()
	if err != nil {
		h.log.Errorw("scrape failed", "trigger", trigger, "error", err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordRun(trigger, len(scraped), time.Since(start))
	}

	if len(scraped) == 0 {
		h.log.Warnw("scrape produced no listings, keeping previous data", "trigger", trigger)
		return
	}

	bySource := map[string]int{}
	for _, p := range scraped {
		bySource[p.Source]++
	}
	run := &models.ScrapeRun{
		StartedAt:  start,
		FinishedAt: time.Now(),
		BySource:   bySource,
	}

	if h.db != nil {
		if err := h.db.SaveRun(run, scraped); err != nil {
			h.log.Errorw("could not persist scrape run", "error", err)
		}
	}
	if h.store != nil {
		if err := h.store.Save(scraped); err != nil {
			h.log.Warnw("could not save cache", "error", err)
		}
	}

	h.setListings(scraped, run)
	h.log.Infow("refresh complete", "trigger", trigger, "listings", len(scraped), "took", time.Since(start).Round(time.Second))
}

func (h *Handler) setListings(listings []models.Property, run *models.ScrapeRun) {
	scraper.SortByFreshness(listings)
	h.mu.Lock()
	h.listings = listings
	if run != nil {
		h.lastRun = run
	}
	h.mu.Unlock()
}

func (h *Handler) recordCacheHit() {
	if h.metrics != nil {
		h.metrics.RecordCacheHit()
	}
}

func (h *Handler) recordCacheMiss() {
	if h.metrics != nil {
		h.metrics.RecordCacheMiss()
	}
}

// snapshot returns a copy of the current listings.
func (h *Handler) snapshot() []models.Property {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.Property, len(h.listings))
	copy(out, h.listings)
	return out
}

// GetListings godoc
// @Summary List current rental listings
// @Description Returns the most recent scrape result sorted by freshness. Supports filtering by source, maximum price and minimum room count.
// @Tags listings
// @Produce json
// @Param source query string false "Source slug" Enums(pararius, funda)
// @Param max_price query int false "Maximum monthly rent in EUR; listings without a parseable price are excluded"
// @Param min_rooms query int false "Minimum number of rooms"
// @Success 200 {object} map[string]interface{} "count and listings"
// @Failure 400 {object} map[string]string "error: invalid filter"
// @Router /api/listings [get]
func (h *Handler) GetListings(c *gin.Context) {
	var (
		source   string
		maxPrice = -1
		minRooms = -1
	)

	if raw := c.Query("source"); raw != "" {
		if err := validation.ValidateSourceSlug(raw); err != nil {
			util.SafeErrorResponse(c, h.log, http.StatusBadRequest, err.Error(), nil)
			return
		}
		src, ok := scraper.SourceBySlug(raw)
		if !ok {
			util.SafeErrorResponse(c, h.log, http.StatusBadRequest, "unknown source", nil)
			return
		}
		// Listings carry the source name, the query uses the slug.
		source = src.Name
	}

	if raw := c.Query("max_price"); raw != "" {
		price, err := validation.ValidateMaxPrice(raw)
		if err != nil {
			util.SafeErrorResponse(c, h.log, http.StatusBadRequest, err.Error(), nil)
			return
		}
		maxPrice = price
	}

	if raw := c.Query("min_rooms"); raw != "" {
		rooms, err := validation.ValidateMinRooms(raw)
		if err != nil {
			util.SafeErrorResponse(c, h.log, http.StatusBadRequest, err.Error(), nil)
			return
		}
		minRooms = rooms
	}

	filtered := applyFilters(h.snapshot(), source, maxPrice, minRooms)
	c.JSON(http.StatusOK, gin.H{
		"count":    len(filtered),
		"listings": filtered,
	})
}

// GetListing godoc
// @Summary Get a single listing by ID
// @Tags listings
// @Produce json
// @Param id path string true "Listing ID (source-timestamp-index)"
// @Success 200 {object} models.Property
// @Failure 400 {object} map[string]string "error: invalid listing ID"
// @Failure 404 {object} map[string]string "error: listing not found"
// @Router /api/listings/{id} [get]
func (h *Handler) GetListing(c *gin.Context) {
	id := c.Param("id")
	if err := validation.ValidateListingID(id); err != nil {
		util.SafeErrorResponse(c, h.log, http.StatusBadRequest, err.Error(), nil)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := range h.listings {
		if h.listings[i].ID == id {
			c.JSON(http.StatusOK, h.listings[i])
			return
		}
	}

	util.SafeErrorResponse(c, h.log, http.StatusNotFound, "listing not found", nil)
}

// GetSources godoc
// @Summary List configured listing sources
// @Description Returns the configured sources with their search URLs, caps and the number of listings currently held for each.
// @Tags listings
// @Produce json
// @Success 200 {object} map[string]interface{} "sources"
// @Router /api/sources [get]
func (h *Handler) GetSources(c *gin.Context) {
	counts := map[string]int{}
	h.mu.RLock()
	for _, p := range h.listings {
		counts[p.Source]++
	}
	h.mu.RUnlock()

	sources := make([]gin.H, 0, 2)
	for _, src := range scraper.Sources() {
		sources = append(sources, gin.H{
			"name":        src.Name,
			"slug":        src.Slug,
			"baseUrl":     src.BaseURL,
			"searchUrl":   src.SearchURL,
			"maxListings": src.MaxListings,
			"listings":    counts[src.Name],
		})
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// GetStats godoc
// @Summary Per-source price statistics
// @Description Aggregates the current listings per source: count, average, minimum and maximum monthly rent. Listings without a parseable price are counted but excluded from the price aggregates.
// @Tags listings
// @Produce json
// @Success 200 {object} map[string]interface{} "stats and last run"
// @Router /api/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	var (
		stats []models.SourceStats
		err   error
	)

	h.mu.RLock()
	lastRun := h.lastRun
	current := len(h.listings)
	h.mu.RUnlock()

	if h.db != nil && lastRun != nil {
		stats, err = h.db.SourceStats()
		if err != nil {
			util.SafeErrorResponse(c, h.log, http.StatusInternalServerError, "could not compute statistics", err)
			return
		}
	} else {
		stats = statsFromListings(h.snapshot())
	}

	resp := gin.H{
		"totalListings": current,
		"sources":       stats,
	}
	if lastRun != nil {
		resp["lastRun"] = lastRun
	}

	c.JSON(http.StatusOK, resp)
}

// RefreshListings godoc
// @Summary Trigger a scrape refresh (Admin Only)
// @Description Starts a background scrape of all sources. Requires the admin key when one is configured, and respects the minimum refresh gap.
// @Tags admin
// @Security AdminKey
// @Produce json
// @Success 200 {object} map[string]string "status: refreshing"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Failure 409 {object} map[string]string "error: refresh already in progress"
// @Failure 429 {object} map[string]string "error: refresh too frequent"
// @Router /api/refresh [post]
func (h *Handler) RefreshListings(c *gin.Context) {
	h.mu.RLock()
	busy := h.refreshing
	h.mu.RUnlock()
	if busy {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "refresh already in progress",
			"message": "A scrape is currently running, try again later",
		})
		return
	}

	go h.refresh("manual")

	c.JSON(http.StatusOK, gin.H{
		"status":  "refreshing",
		"message": "Scrape started in background, listings update when it finishes",
	})
}

// GetCacheStatus godoc
// @Summary Cache and data freshness status (Admin Only)
// @Tags admin
// @Security AdminKey
// @Produce json
// @Success 200 {object} map[string]interface{} "cache status information"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /api/cache-status [get]
func (h *Handler) GetCacheStatus(c *gin.Context) {
	h.mu.RLock()
	current := len(h.listings)
	lastRun := h.lastRun
	busy := h.refreshing
	h.mu.RUnlock()

	status := gin.H{
		"listings":   current,
		"refreshing": busy,
	}

	if h.store != nil {
		if age, err := h.store.Age(); err == nil {
			status["cacheAge"] = age.Round(time.Minute).String()
			status["cacheAgeHours"] = age.Hours()
		} else {
			status["cacheAge"] = "no cache file"
		}
		status["cacheExpired"] = h.store.Expired()
	}

	if lastRun != nil {
		status["lastRun"] = gin.H{
			"id":         lastRun.ID,
			"finishedAt": lastRun.FinishedAt,
			"total":      lastRun.Total,
			"bySource":   lastRun.BySource,
		}
	}

	if h.opts.RefreshInterval > 0 {
		status["refreshInterval"] = h.opts.RefreshInterval.String()
	}

	c.JSON(http.StatusOK, status)
}

// Health godoc
// @Summary Liveness and readiness probe
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "status: ok"
// @Router /api/health [get]
func (h *Handler) Health(c *gin.Context) {
	h.mu.RLock()
	current := len(h.listings)
	h.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"listings": current,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// applyFilters narrows listings by source name, price ceiling and room
// minimum. A maxPrice filter drops listings without a parseable price
// since their affordability is unknown.
func applyFilters(listings []models.Property, source string, maxPrice, minRooms int) []models.Property {
	filtered := make([]models.Property, 0, len(listings))
	for _, p := range listings {
		if source != "" && p.Source != source {
			continue
		}
		if maxPrice >= 0 && (p.Price == 0 || p.Price > maxPrice) {
			continue
		}
		if minRooms >= 0 && p.Rooms < minRooms {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// statsFromListings computes per-source aggregates without the database.
func statsFromListings(listings []models.Property) []models.SourceStats {
	bySource := map[string]*models.SourceStats{}
	priced := map[string]int{}

	for _, p := range listings {
		s, ok := bySource[p.Source]
		if !ok {
			s = &models.SourceStats{Source: p.Source}
			bySource[p.Source] = s
		}
		s.Listings++
		if p.Price <= 0 {
			continue
		}
		priced[p.Source]++
		s.AvgPrice += float64(p.Price)
		if s.MinPrice == 0 || p.Price < s.MinPrice {
			s.MinPrice = p.Price
		}
		if p.Price > s.MaxPrice {
			s.MaxPrice = p.Price
		}
	}

	stats := make([]models.SourceStats, 0, len(bySource))
	for _, src := range scraper.Sources() {
		s, ok := bySource[src.Name]
		if !ok {
			continue
		}
		if n := priced[src.Name]; n > 0 {
			s.AvgPrice /= float64(n)
		}
		stats = append(stats, *s)
	}
	return stats
}
