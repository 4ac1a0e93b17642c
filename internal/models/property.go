package models

// Property sources
const (
	SourcePararius = "Pararius"
	SourceFunda    = "Funda"
)

// Property types derived from room count
const (
	TypeStudio    = "Studio"
	TypeApartment = "Apartment"
	TypeHouse     = "House"
)

// Property represents a normalized rental listing assembled from one scraped
// search-result element. Title, location, size, price, rooms and the source
// link are extracted from the page (with defaults where extraction fails);
// the remaining descriptive fields are synthesized to fill the UI schema and
// must not be treated as verified facts.
type Property struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Location   string   `json:"location"`
	Size       string   `json:"size"`
	Price      int      `json:"price"` // EUR per month, 0 when no parseable amount was shown
	Rooms      int      `json:"rooms"`
	Source     string   `json:"source"`
	SourceURL  string   `json:"sourceUrl"`
	ListedDays int      `json:"listedDays"` // synthesized freshness signal, never read from the page
	Image      string   `json:"image"`      // local path under /screenshots, empty if capture failed
	Images     []string `json:"images"`
	Type       string   `json:"type"`

	// Descriptive filler, synthesized or templated from extracted fields
	BuildYear       int      `json:"buildYear"`
	Interior        string   `json:"interior"`
	EnergyLabel     string   `json:"energyLabel"`
	Features        []string `json:"features"`
	Deposit         int      `json:"deposit"`
	Neighborhood    string   `json:"neighborhood"`
	FullDescription string   `json:"fullDescription"`
}

// TypeForRooms maps a room count to a property type. The mapping is
// deterministic and intentionally coarse: a single room reads as a studio,
// two rooms as an apartment, anything larger as a house.
func TypeForRooms(rooms int) string {
	switch {
	case rooms <= 1:
		return TypeStudio
	case rooms == 2:
		return TypeApartment
	default:
		return TypeHouse
	}
}
