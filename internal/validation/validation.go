package validation

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	slugPattern      = regexp.MustCompile(`^[a-z]{2,20}$`)
	listingIDPattern = regexp.MustCompile(`^[a-z]{2,20}-\d+-\d+$`)
)

// ValidateSourceSlug validates the shape of a source filter value.
// Whether the slug names a configured source is up to the caller.
func ValidateSourceSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("source must be a lowercase source name")
	}
	return nil
}

// ValidateListingID validates the source-timestamp-index listing ID shape.
func ValidateListingID(id string) error {
	if len(id) > 64 {
		return fmt.Errorf("listing ID too long")
	}
	if !listingIDPattern.MatchString(id) {
		return fmt.Errorf("listing ID must look like source-timestamp-index")
	}
	return nil
}

// ValidateMaxPrice parses and bounds the max_price query parameter.
func ValidateMaxPrice(raw string) (int, error) {
	price, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("max_price must be a number")
	}
	if price < 0 {
		return 0, fmt.Errorf("max_price must not be negative")
	}
	if price > 100000 {
		return 0, fmt.Errorf("max_price is out of range")
	}
	return price, nil
}

// ValidateMinRooms parses and bounds the min_rooms query parameter.
func ValidateMinRooms(raw string) (int, error) {
	rooms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("min_rooms must be a number")
	}
	if rooms < 0 {
		return 0, fmt.Errorf("min_rooms must not be negative")
	}
	if rooms > 20 {
		return 0, fmt.Errorf("min_rooms is out of range")
	}
	return rooms, nil
}
