// Package synth fabricates the listing fields that neither source site
// exposes (freshness, build year, interior, energy label, features,
// neighborhood). Values are placeholders for the UI schema, not facts.
package synth

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/SweSweUI/groningen-rentals/internal/models"
)

// Generator produces placeholder values for one scraping run. The scraper is
// the single owner of a Generator; implementations are not safe for
// concurrent use.
type Generator interface {
	// ListedDays returns a fake days-since-listed value in [0, bound).
	ListedDays(bound int) int
	BuildYear() int
	Interior() string
	EnergyLabel() string
	Features() []string
	Neighborhood() string
}

var (
	interiors    = []string{"Furnished", "Upholstered", "Shell"}
	energyLabels = []string{"A", "B", "C", "D", "E", "F", "G"}

	featurePool = []string{
		"Balcony",
		"Garden",
		"City center",
		"Near station",
		"Recently renovated",
		"Storage room",
		"Elevator",
		"Bathtub",
	}

	neighborhoods = []string{
		"Centrum",
		"Oosterpoort",
		"Korrewegwijk",
		"Helpman",
		"Paddepoel",
		"Selwerd",
		"De Wijert",
		"Vinkhuizen",
		"Zernike",
	}
)

type randomGenerator struct {
	rng *rand.Rand
}

// New returns a math/rand backed Generator. A non-zero seed gives a
// reproducible sequence for tests; seed 0 seeds from the clock.
func New(seed int64) Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randomGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *randomGenerator) ListedDays(bound int) int {
	if bound <= 0 {
		return 0
	}
	return g.rng.Intn(bound)
}

func (g *randomGenerator) BuildYear() int {
	return 1930 + g.rng.Intn(95)
}

func (g *randomGenerator) Interior() string {
	return interiors[g.rng.Intn(len(interiors))]
}

func (g *randomGenerator) EnergyLabel() string {
	return energyLabels[g.rng.Intn(len(energyLabels))]
}

func (g *randomGenerator) Features() []string {
	n := 2 + g.rng.Intn(3)
	picks := g.rng.Perm(len(featurePool))[:n]
	out := make([]string, n)
	for i, j := range picks {
		out[i] = featurePool[j]
	}
	return out
}

func (g *randomGenerator) Neighborhood() string {
	return neighborhoods[g.rng.Intn(len(neighborhoods))]
}

// Deposit derives the customary two months of rent from the monthly price,
// or 0 when the price is unknown.
func Deposit(price int) int {
	if price <= 0 {
		return 0
	}
	return price * 2
}

// NeighborhoodFrom pulls the parenthesized district out of a location line
// like "9711 AB Groningen (Binnenstad)". ok reports whether one was present.
func NeighborhoodFrom(location string) (string, bool) {
	open := strings.LastIndex(location, "(")
	closing := strings.LastIndex(location, ")")
	if open >= 0 && closing > open+1 {
		return strings.TrimSpace(location[open+1 : closing]), true
	}
	return "", false
}

// Describe templates a full description from the record's own fields.
func Describe(p models.Property) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is a %s for rent in %s.", p.Title, strings.ToLower(p.Type), p.Location)
	if p.Size != "" && p.Size != "N/A" {
		fmt.Fprintf(&b, " Living area of %s across %d room(s).", p.Size, p.Rooms)
	} else {
		fmt.Fprintf(&b, " The listing counts %d room(s).", p.Rooms)
	}
	fmt.Fprintf(&b, " Interior: %s. Energy label %s.", p.Interior, p.EnergyLabel)
	if p.Deposit > 0 {
		fmt.Fprintf(&b, " Deposit EUR %d.", p.Deposit)
	}
	return b.String()
}
