package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/SweSweUI/groningen-rentals/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Database wraps the SQLite connection and keeps scrape history.
type Database struct {
	db *sql.DB
}

// NewDatabase opens (creating if needed) the SQLite database at dbPath
// and ensures the schema exists.
func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL mode for concurrent reads, foreign keys on for run cascade deletes.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_cache_size=10000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// SaveRun stores a scrape run and its listings in one transaction.
// A missing run ID is filled with a fresh UUID.
func (d *Database) SaveRun(run *models.ScrapeRun, listings []models.Property) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.BySource == nil {
		run.BySource = map[string]int{}
	}
	run.Total = len(listings)

	countsJSON, err := json.Marshal(run.BySource)
	if err != nil {
		return fmt.Errorf("failed to marshal source counts: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scrape_runs (id, started_at, finished_at, total, counts_json)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.Total, string(countsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert scrape run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO listings
		(id, run_id, title, location, size, price, rooms, source, source_url,
		 listed_days, image, images_json, type, build_year, interior,
		 energy_label, features_json, deposit, neighborhood, full_description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare listing insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range listings {
		imagesJSON, err := json.Marshal(p.Images)
		if err != nil {
			return fmt.Errorf("failed to marshal images for %s: %w", p.ID, err)
		}
		featuresJSON, err := json.Marshal(p.Features)
		if err != nil {
			return fmt.Errorf("failed to marshal features for %s: %w", p.ID, err)
		}

		_, err = stmt.Exec(
			p.ID, run.ID, p.Title, p.Location, p.Size, p.Price, p.Rooms,
			p.Source, p.SourceURL, p.ListedDays, p.Image, string(imagesJSON),
			p.Type, p.BuildYear, p.Interior, p.EnergyLabel, string(featuresJSON),
			p.Deposit, p.Neighborhood, p.FullDescription,
		)
		if err != nil {
			return fmt.Errorf("failed to insert listing %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scrape run: %w", err)
	}
	return nil
}

// LatestListings returns the listings of the most recent run, freshest first.
func (d *Database) LatestListings() ([]models.Property, error) {
	rows, err := d.db.Query(`
		SELECT id, title, location, size, price, rooms, source, source_url,
		       listed_days, image, images_json, type, build_year, interior,
		       energy_label, features_json, deposit, neighborhood, full_description
		FROM listings
		WHERE run_id = (SELECT id FROM scrape_runs ORDER BY started_at DESC LIMIT 1)
		ORDER BY listed_days ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest listings: %w", err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// ListingsBySource returns the latest run's listings for one source name.
func (d *Database) ListingsBySource(source string) ([]models.Property, error) {
	rows, err := d.db.Query(`
		SELECT id, title, location, size, price, rooms, source, source_url,
		       listed_days, image, images_json, type, build_year, interior,
		       energy_label, features_json, deposit, neighborhood, full_description
		FROM listings
		WHERE run_id = (SELECT id FROM scrape_runs ORDER BY started_at DESC LIMIT 1)
		  AND source = ?
		ORDER BY listed_days ASC
	`, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings for %s: %w", source, err)
	}
	defer rows.Close()

	return scanListings(rows)
}

// GetListing returns one listing from the latest run, or sql.ErrNoRows.
func (d *Database) GetListing(id string) (*models.Property, error) {
	row := d.db.QueryRow(`
		SELECT id, title, location, size, price, rooms, source, source_url,
		       listed_days, image, images_json, type, build_year, interior,
		       energy_label, features_json, deposit, neighborhood, full_description
		FROM listings
		WHERE run_id = (SELECT id FROM scrape_runs ORDER BY started_at DESC LIMIT 1)
		  AND id = ?
	`, id)

	p, err := scanListing(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get listing %s: %w", id, err)
	}
	return p, nil
}

// SourceStats aggregates the latest run per source. Listings without a
// parseable price are counted but excluded from the price aggregates.
func (d *Database) SourceStats() ([]models.SourceStats, error) {
	rows, err := d.db.Query(`
		SELECT source,
		       COUNT(*),
		       COALESCE(AVG(CASE WHEN price > 0 THEN price END), 0),
		       COALESCE(MIN(CASE WHEN price > 0 THEN price END), 0),
		       COALESCE(MAX(CASE WHEN price > 0 THEN price END), 0)
		FROM listings
		WHERE run_id = (SELECT id FROM scrape_runs ORDER BY started_at DESC LIMIT 1)
		GROUP BY source
		ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query source stats: %w", err)
	}
	defer rows.Close()

	var stats []models.SourceStats
	for rows.Next() {
		var s models.SourceStats
		if err := rows.Scan(&s.Source, &s.Listings, &s.AvgPrice, &s.MinPrice, &s.MaxPrice); err != nil {
			return nil, fmt.Errorf("failed to scan source stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// LastRun returns the most recent scrape run, or nil when none exists.
func (d *Database) LastRun() (*models.ScrapeRun, error) {
	var run models.ScrapeRun
	var countsJSON string
	err := d.db.QueryRow(`
		SELECT id, started_at, finished_at, total, counts_json
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Total, &countsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	if err := json.Unmarshal([]byte(countsJSON), &run.BySource); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source counts: %w", err)
	}
	return &run, nil
}

// RunCount returns how many scrape runs are stored.
func (d *Database) RunCount() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM scrape_runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

// PruneRuns deletes all but the newest keep runs. Listings cascade.
func (d *Database) PruneRuns(keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	res, err := d.db.Exec(`
		DELETE FROM scrape_runs
		WHERE id NOT IN (
			SELECT id FROM scrape_runs ORDER BY started_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned count: %w", err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*models.Property, error) {
	var p models.Property
	var imagesJSON, featuresJSON string

	err := row.Scan(
		&p.ID, &p.Title, &p.Location, &p.Size, &p.Price, &p.Rooms,
		&p.Source, &p.SourceURL, &p.ListedDays, &p.Image, &imagesJSON,
		&p.Type, &p.BuildYear, &p.Interior, &p.EnergyLabel, &featuresJSON,
		&p.Deposit, &p.Neighborhood, &p.FullDescription,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(imagesJSON), &p.Images); err != nil {
		return nil, fmt.Errorf("failed to unmarshal images for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(featuresJSON), &p.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features for %s: %w", p.ID, err)
	}
	return &p, nil
}

func scanListings(rows *sql.Rows) ([]models.Property, error) {
	var listings []models.Property
	for rows.Next() {
		p, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, *p)
	}
	return listings, rows.Err()
}
