// Package metrics exports Prometheus metrics for the scraper and the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all rentals Prometheus metrics.
type Metrics struct {
	// Scrape run metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	LastRunListings prometheus.Gauge

	// Per-source metrics
	ListingsScraped    *prometheus.CounterVec
	SourceFailures     *prometheus.CounterVec
	ListingsSkipped    *prometheus.CounterVec
	ScreenshotFailures *prometheus.CounterVec
	SourceDuration     *prometheus.HistogramVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// Provider wraps the metrics and exposes recording helpers.
type Provider struct {
	Metrics *Metrics
}

// NewProvider initializes all metrics against the default registry.
// promauto registers globally, so construct at most one per process.
func NewProvider() *Provider {
	return &Provider{Metrics: initMetrics()}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initRunMetrics(m)
	initSourceMetrics(m)
	initCacheMetrics(m)
	initHTTPMetrics(m)
	return m
}

func initRunMetrics(m *Metrics) {
	m.RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentals_scrape_runs_total",
		Help: "Total scrape runs by trigger (startup, interval, manual, cli)",
	}, []string{"trigger"})

	m.RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rentals_scrape_run_duration_seconds",
		Help:    "Wall time of a full scrape run across all sources",
		Buckets: []float64{5, 10, 20, 30, 60, 90, 120, 180, 300},
	})

	m.LastRunListings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rentals_last_run_listings",
		Help: "Listings produced by the most recent scrape run",
	})
}

func initSourceMetrics(m *Metrics) {
	m.ListingsScraped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentals_listings_scraped_total",
		Help: "Total listings extracted per source",
	}, []string{"source"})

	m.SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentals_source_failures_total",
		Help: "Scrapes that produced no result because the source page failed",
	}, []string{"source"})

	m.ListingsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentals_listings_skipped_total",
		Help: "Listing elements skipped after an extraction panic",
	}, []string{"source"})

	m.ScreenshotFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentals_screenshot_failures_total",
		Help: "Thumbnail captures that failed, leaving the listing without an image",
	}, []string{"source"})

	m.SourceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentals_source_scrape_duration_seconds",
		Help:    "Time to scrape a single source",
		Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
	}, []string{"source"})
}

func initCacheMetrics(m *Metrics) {
	m.CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentals_cache_hits_total",
		Help: "Listing cache loads that were fresh enough to serve",
	})

	m.CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentals_cache_misses_total",
		Help: "Listing cache loads that were missing, corrupt or expired",
	})
}

func initHTTPMetrics(m *Metrics) {
	m.HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentals_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "path", "status"})

	m.HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentals_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})
}

// SourceScraped records a finished source scrape. Satisfies scraper.Recorder.
func (p *Provider) SourceScraped(source string, listings int, duration time.Duration) {
	p.Metrics.ListingsScraped.WithLabelValues(source).Add(float64(listings))
	p.Metrics.SourceDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// SourceFailed records a source that yielded nothing due to a page failure.
func (p *Provider) SourceFailed(source string) {
	p.Metrics.SourceFailures.WithLabelValues(source).Inc()
}

// ListingSkipped records an element-level extraction failure.
func (p *Provider) ListingSkipped(source string) {
	p.Metrics.ListingsSkipped.WithLabelValues(source).Inc()
}

// ScreenshotFailed records a failed thumbnail capture.
func (p *Provider) ScreenshotFailed(source string) {
	p.Metrics.ScreenshotFailures.WithLabelValues(source).Inc()
}

// RecordRun records a completed scrape run.
func (p *Provider) RecordRun(trigger string, total int, duration time.Duration) {
	p.Metrics.RunsTotal.WithLabelValues(trigger).Inc()
	p.Metrics.RunDuration.Observe(duration.Seconds())
	p.Metrics.LastRunListings.Set(float64(total))
}

// RecordCacheHit marks a cache load that was served.
func (p *Provider) RecordCacheHit() {
	p.Metrics.CacheHits.Inc()
}

// RecordCacheMiss marks a cache load that could not be served.
func (p *Provider) RecordCacheMiss() {
	p.Metrics.CacheMisses.Inc()
}

// GinMiddleware records request counts and latency per route. Requests that
// match no route share a single "unmatched" label so the label space stays
// bounded.
func (p *Provider) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		p.Metrics.HTTPRequests.WithLabelValues(method, path, status).Inc()
		p.Metrics.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
