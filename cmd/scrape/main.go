package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"time"

	"github.com/SweSweUI/groningen-rentals/internal/cache"
	"github.com/SweSweUI/groningen-rentals/internal/config"
	"github.com/SweSweUI/groningen-rentals/internal/database"
	"github.com/SweSweUI/groningen-rentals/internal/logger"
	"github.com/SweSweUI/groningen-rentals/internal/models"
	"github.com/SweSweUI/groningen-rentals/internal/scraper"
	"github.com/SweSweUI/groningen-rentals/internal/synth"
)

// One-off scrape runner. Runs the same pipeline the server uses on its
// refresh schedule, then persists the result unless -dry-run is set.
func main() {
	dryRun := flag.Bool("dry-run", false, "scrape and print results without persisting them")
	source := flag.String("source", "", "scrape a single source by slug instead of all of them")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("Failed to create logger: %v", err)
	}
	defer log.Sync()

	s := scraper.New(scraper.Options{
		ScreenshotDir:  cfg.ScreenshotDir,
		Headless:       cfg.Headless,
		ChromeBin:      cfg.ChromeBin,
		NavTimeout:     cfg.NavTimeout,
		ConsentTimeout: cfg.ConsentTimeout,
		ListingWait:    cfg.ListingWait,
		ElementDelay:   cfg.ElementDelay,
	}, synth.New(cfg.SynthSeed), log, nil)

	started := time.Now()

	var listings []models.Property
	if *source != "" {
		src, ok := scraper.SourceBySlug(*source)
		if !ok {
			log.Fatalw("unknown source", "slug", *source)
		}
		listings = s.ScrapeSource(src)
		s.CloseBrowser()
		scraper.SortByFreshness(listings)
	} else {
		listings, err = s.ScrapeAll()
		if err != nil {
			log.Fatalw("scrape failed", "error", err)
		}
	}

	finished := time.Now()

	printListings(listings)

	if *dryRun {
		log.Infow("dry run, skipping persistence", "listings", len(listings))
		return
	}
	if len(listings) == 0 {
		log.Warn("scrape produced no listings, nothing to persist")
		return
	}

	bySource := map[string]int{}
	for _, p := range listings {
		bySource[p.Source]++
	}
	run := &models.ScrapeRun{
		StartedAt:  started,
		FinishedAt: finished,
		BySource:   bySource,
	}

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalw("failed to open database", "error", err)
	}
	defer db.Close()

	if err := db.SaveRun(run, listings); err != nil {
		log.Fatalw("failed to save run", "error", err)
	}

	store := cache.NewStore(cfg.CacheFile, cfg.CacheTTL, log)
	if err := store.Save(listings); err != nil {
		log.Warnw("failed to write cache", "error", err)
	}

	log.Infow("scrape persisted",
		"run", run.ID,
		"listings", len(listings),
		"duration", finished.Sub(started).Round(time.Second))
}

func printListings(listings []models.Property) {
	fmt.Printf("\nScraped %d listings:\n", len(listings))
	for _, p := range listings {
		price := "price unknown"
		if p.Price > 0 {
			price = fmt.Sprintf("€%d/month", p.Price)
		}
		fmt.Printf("  [%-8s] %2dd  %-55s %s\n", p.Source, p.ListedDays, truncate(p.Title, 55), price)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
