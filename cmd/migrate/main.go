package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/SweSweUI/groningen-rentals/internal/config"
	"github.com/SweSweUI/groningen-rentals/internal/database"
)

func main() {
	fmt.Println("🗃️  Groningen Rentals Database Tool")
	fmt.Println("===================================")

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/migrate/main.go <command> [args]")
		fmt.Println("Commands:")
		fmt.Println("  init          - Initialize database with current schema")
		fmt.Println("  import-json   - Import listings from a cache JSON file")
		fmt.Println("  status        - Show database status")
		fmt.Println("  prune [keep]  - Delete old scrape runs, keeping the newest N (default 5)")
		os.Exit(1)
	}

	command := os.Args[1]

	cfg := config.Load()

	// NewDatabase applies the embedded schema, so every command starts
	// from an initialized database.
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	switch command {
	case "init":
		fmt.Printf("✅ Database initialized at %s\n", cfg.DatabasePath)
	case "import-json":
		jsonPath := cfg.CacheFile
		if len(os.Args) >= 3 {
			jsonPath = os.Args[2]
		}
		importCacheJSON(db, jsonPath)
	case "status":
		showStatus(db, cfg.DatabasePath)
	case "prune":
		keep := 5
		if len(os.Args) >= 3 {
			keep, err = strconv.Atoi(os.Args[2])
			if err != nil {
				log.Fatal("Invalid keep count:", os.Args[2])
			}
		}
		pruneRuns(db, keep)
	default:
		log.Fatal("Unknown command:", command)
	}
}

func importCacheJSON(db *database.Database, jsonPath string) {
	fmt.Printf("Importing listings from %s...\n", jsonPath)

	if _, err := os.Stat(jsonPath); os.IsNotExist(err) {
		fmt.Printf("❌ File not found: %s\n", jsonPath)
		return
	}

	// Keep a copy of the cache file around in case the import goes wrong.
	if err := db.BackupCurrentData(filepath.Dir(jsonPath)); err != nil {
		log.Fatal("Failed to back up data:", err)
	}

	if err := db.ImportCacheJSON(jsonPath); err != nil {
		log.Fatal("Failed to import cache:", err)
	}

	fmt.Println("✅ Import complete!")
}

func showStatus(db *database.Database, dbPath string) {
	fmt.Println("Database Status Report")
	fmt.Println("======================")

	runs, err := db.RunCount()
	if err != nil {
		log.Fatal("Failed to count runs:", err)
	}
	fmt.Printf("📊 Scrape runs: %d\n", runs)

	last, err := db.LastRun()
	if err != nil {
		log.Fatal("Failed to load last run:", err)
	}
	if last == nil {
		fmt.Println("📋 No scrape runs recorded yet")
	} else {
		fmt.Printf("📋 Last run: %s\n", last.ID)
		fmt.Printf("   Finished: %s\n", last.FinishedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("   Listings: %d\n", last.Total)
		for source, count := range last.BySource {
			fmt.Printf("   - %s: %d\n", source, count)
		}
	}

	stats, err := db.SourceStats()
	if err != nil {
		log.Fatal("Failed to load source stats:", err)
	}
	for _, s := range stats {
		fmt.Printf("💶 %s: %d listings, avg €%.0f (min €%d, max €%d)\n",
			s.Source, s.Listings, s.AvgPrice, s.MinPrice, s.MaxPrice)
	}

	if stat, err := os.Stat(dbPath); err == nil {
		fmt.Printf("💾 Database size: %.2f KB\n", float64(stat.Size())/1024)
	}

	fmt.Println("✅ Status check complete!")
}

func pruneRuns(db *database.Database, keep int) {
	fmt.Printf("Pruning scrape runs, keeping the newest %d...\n", keep)

	pruned, err := db.PruneRuns(keep)
	if err != nil {
		log.Fatal("Failed to prune runs:", err)
	}

	if pruned == 0 {
		fmt.Println("✅ Nothing to prune - run history is within limits!")
	} else {
		fmt.Printf("✅ Pruned %d old runs!\n", pruned)
	}
}
