// Groningen Rentals API
// @title Groningen Rentals API
// @version 1.0
// @description Screenshot-scraper backed API serving rental listings for Groningen from Pararius and Funda
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-Key

package main

import (
	stdlog "log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	_ "github.com/SweSweUI/groningen-rentals/docs"
	"github.com/SweSweUI/groningen-rentals/internal/cache"
	"github.com/SweSweUI/groningen-rentals/internal/config"
	"github.com/SweSweUI/groningen-rentals/internal/database"
	"github.com/SweSweUI/groningen-rentals/internal/listings"
	"github.com/SweSweUI/groningen-rentals/internal/logger"
	"github.com/SweSweUI/groningen-rentals/internal/metrics"
	"github.com/SweSweUI/groningen-rentals/internal/middleware"
	"github.com/SweSweUI/groningen-rentals/internal/scraper"
	"github.com/SweSweUI/groningen-rentals/internal/synth"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		stdlog.Fatalf("failed to build logger: %v", err)
	}
	defer log.Sync()

	if cfg.AdminKeyHash == "" {
		log.Warn("ADMIN_KEY_HASH not set, refresh endpoint is unprotected")
	}

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatalw("failed to open database", "path", cfg.DatabasePath, "error", err)
	}
	defer db.Close()

	store := cache.NewStore(cfg.CacheFile, cfg.CacheTTL, log)
	prov := metrics.NewProvider()

	scr := scraper.New(scraper.Options{
		ScreenshotDir:  cfg.ScreenshotDir,
		Headless:       cfg.Headless,
		ChromeBin:      cfg.ChromeBin,
		NavTimeout:     cfg.NavTimeout,
		ConsentTimeout: cfg.ConsentTimeout,
		ListingWait:    cfg.ListingWait,
		ElementDelay:   cfg.ElementDelay,
	}, synth.New(cfg.SynthSeed), log, prov)

	handler := listings.NewHandler(db, store, scr, prov, log, listings.Options{
		ScrapeOnStart:   cfg.ScrapeOnStart,
		RefreshInterval: cfg.RefreshInterval,
	})
	defer handler.StopAutoRefresh()

	r := gin.Default()

	// Trusted proxies for reverse-proxy and container deployments
	r.SetTrustedProxies([]string{
		"127.0.0.1",
		"::1",
		"172.16.0.0/12",  // Docker networks
		"10.0.0.0/8",     // Private networks
		"192.168.0.0/16", // Private networks
	})

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.AllowedOrigins
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Admin-Key"}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.SecurityHeaders())
	r.Use(prov.GinMiddleware())

	// Per-listing thumbnails captured by the scraper
	r.Static("/screenshots", cfg.ScreenshotDir)

	r.GET("/metrics", gin.WrapH(prov.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(limiter, log))
	{
		api.GET("/listings", handler.GetListings)
		api.GET("/listings/:id", handler.GetListing)
		api.GET("/sources", handler.GetSources)
		api.GET("/stats", handler.GetStats)
		api.GET("/health", handler.Health)
		api.GET("/cache-status",
			middleware.AdminKeyMiddleware(cfg.AdminKeyHash, log),
			handler.GetCacheStatus)
		api.POST("/refresh",
			middleware.AdminKeyMiddleware(cfg.AdminKeyHash, log),
			middleware.RefreshProtectionMiddleware(cfg.RefreshMinGap),
			handler.RefreshListings)
	}

	log.Infow("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalw("server failed", "error", err)
	}
}
