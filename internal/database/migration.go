package database

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/SweSweUI/groningen-rentals/internal/models"
)

// ImportCacheJSON imports a listings cache file as a scrape run. Used by
// cmd/migrate to seed a fresh database from an existing cache snapshot.
// Imports are recorded in database_metadata so reruns are no-ops.
func (d *Database) ImportCacheJSON(jsonPath string) error {
	var status string
	err := d.db.QueryRow("SELECT value FROM database_metadata WHERE key = 'cache_import'").Scan(&status)
	if err == nil && status == "completed" {
		fmt.Println("Cache import already completed, skipping...")
		return nil
	}

	file, err := os.Open(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	// Cache envelope written by internal/cache.
	var cached struct {
		Data      []models.Property `json:"data"`
		Timestamp time.Time         `json:"timestamp"`
	}
	if err := json.NewDecoder(file).Decode(&cached); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}

	stamp := cached.Timestamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	bySource := map[string]int{}
	for _, p := range cached.Data {
		bySource[p.Source]++
	}

	run := &models.ScrapeRun{
		StartedAt:  stamp,
		FinishedAt: stamp,
		BySource:   bySource,
	}
	if err := d.SaveRun(run, cached.Data); err != nil {
		return fmt.Errorf("failed to save imported run: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO database_metadata (key, value, updated_at)
		VALUES ('cache_import', 'completed', CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = 'completed', updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to record import status: %w", err)
	}

	fmt.Printf("Successfully imported %d listings from cache\n", len(cached.Data))
	return nil
}

// BackupCurrentData copies the JSON artifacts in dataDir into a
// timestamped backup directory before a destructive operation.
func (d *Database) BackupCurrentData(dataDir string) error {
	backupDir := fmt.Sprintf("%s/backup_%d", dataDir, time.Now().Unix())

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	files := []string{"listings_cache.json"}

	for _, filename := range files {
		srcPath := fmt.Sprintf("%s/%s", dataDir, filename)
		dstPath := fmt.Sprintf("%s/%s", backupDir, filename)

		if _, err := os.Stat(srcPath); os.IsNotExist(err) {
			continue
		}

		if err := copyFile(srcPath, dstPath); err != nil {
			return fmt.Errorf("failed to backup %s: %w", filename, err)
		}
	}

	fmt.Printf("Data backed up to: %s\n", backupDir)
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
