package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/SweSweUI/groningen-rentals/internal/models"
)

// DefaultTTL is how long a cache file counts as fresh.
const DefaultTTL = 6 * time.Hour

// Store persists the latest scrape as a single JSON envelope so the service
// can come back up without hitting the sources.
type Store struct {
	Path string
	TTL  time.Duration
	log  *zap.SugaredLogger
}

type envelope struct {
	Data      []models.Property `json:"data"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewStore creates a Store. A zero ttl falls back to DefaultTTL; a nil
// logger is discarded.
func NewStore(path string, ttl time.Duration, log *zap.SugaredLogger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{Path: path, TTL: ttl, log: log}
}

// Load returns the cached listings when the file exists, decodes cleanly,
// and is younger than the TTL.
func (s *Store) Load() ([]models.Property, bool) {
	file, err := os.Open(s.Path)
	if err != nil {
		s.log.Infow("no listings cache, will scrape fresh", "path", s.Path)
		return nil, false
	}
	defer file.Close()

	var env envelope
	if err := json.NewDecoder(file).Decode(&env); err != nil {
		s.log.Warnw("cache file unreadable", "path", s.Path, "error", err)
		return nil, false
	}

	age := time.Since(env.Timestamp)
	if age > s.TTL {
		s.log.Infow("cache expired", "age", age.Round(time.Minute))
		return nil, false
	}

	s.log.Infow("loaded listings from cache", "count", len(env.Data), "age", age.Round(time.Minute))
	return env.Data, true
}

// Save overwrites the cache with listings stamped now.
func (s *Store) Save(listings []models.Property) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cache directory: %w", err)
		}
	}

	file, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	env := envelope{Data: listings, Timestamp: time.Now()}
	if err := json.NewEncoder(file).Encode(env); err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	s.log.Infow("cached listings", "count", len(listings), "path", s.Path)
	return nil
}

// Expired reports whether the cache is missing, corrupt, or older than the
// TTL, without returning its contents.
func (s *Store) Expired() bool {
	file, err := os.Open(s.Path)
	if err != nil {
		return true
	}
	defer file.Close()

	var env envelope
	if err := json.NewDecoder(file).Decode(&env); err != nil {
		return true
	}

	return time.Since(env.Timestamp) > s.TTL
}

// Age returns how old the cache file is.
func (s *Store) Age() (time.Duration, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	var env envelope
	if err := json.NewDecoder(file).Decode(&env); err != nil {
		return 0, err
	}

	return time.Since(env.Timestamp), nil
}
