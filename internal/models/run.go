package models

import "time"

// ScrapeRun records one complete multi-source scraping pass
type ScrapeRun struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Total      int            `json:"total"`
	BySource   map[string]int `json:"bySource"`
}

// SourceStats aggregates stored listings for a single source
type SourceStats struct {
	Source   string  `json:"source"`
	Listings int     `json:"listings"`
	AvgPrice float64 `json:"avgPrice"`
	MinPrice int     `json:"minPrice"`
	MaxPrice int     `json:"maxPrice"`
}
