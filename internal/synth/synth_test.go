package synth

import (
	"reflect"
	"strings"
	"testing"

	"github.com/SweSweUI/groningen-rentals/internal/models"
)

func TestSeededGeneratorIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)

	for i := 0; i < 50; i++ {
		if x, y := a.ListedDays(7), b.ListedDays(7); x != y {
			t.Fatalf("ListedDays diverged at iteration %d: %d vs %d", i, x, y)
		}
	}

	a, b = New(7), New(7)
	if a.BuildYear() != b.BuildYear() || a.Interior() != b.Interior() || a.EnergyLabel() != b.EnergyLabel() {
		t.Fatal("same seed produced different scalar values")
	}
	if !reflect.DeepEqual(a.Features(), b.Features()) {
		t.Fatal("same seed produced different feature sets")
	}
	if a.Neighborhood() != b.Neighborhood() {
		t.Fatal("same seed produced different neighborhoods")
	}
}

func TestGeneratorBounds(t *testing.T) {
	g := New(1)

	for i := 0; i < 200; i++ {
		if d := g.ListedDays(7); d < 0 || d >= 7 {
			t.Fatalf("ListedDays(7) out of range: %d", d)
		}
		if y := g.BuildYear(); y < 1930 || y > 2024 {
			t.Fatalf("BuildYear out of range: %d", y)
		}
	}

	if d := g.ListedDays(0); d != 0 {
		t.Fatalf("ListedDays(0) = %d, want 0", d)
	}
}

func TestGeneratorDrawsFromPools(t *testing.T) {
	g := New(3)

	labels := map[string]bool{"A": true, "B": true, "C": true, "D": true, "E": true, "F": true, "G": true}
	for i := 0; i < 50; i++ {
		if l := g.EnergyLabel(); !labels[l] {
			t.Fatalf("unexpected energy label %q", l)
		}
	}

	for i := 0; i < 50; i++ {
		feats := g.Features()
		if len(feats) < 2 || len(feats) > 4 {
			t.Fatalf("expected 2-4 features, got %d", len(feats))
		}
		seen := map[string]bool{}
		for _, f := range feats {
			if seen[f] {
				t.Fatalf("duplicate feature %q in %v", f, feats)
			}
			seen[f] = true
		}
	}
}

func TestDeposit(t *testing.T) {
	if got := Deposit(1250); got != 2500 {
		t.Errorf("Deposit(1250) = %d, want 2500", got)
	}
	if got := Deposit(0); got != 0 {
		t.Errorf("Deposit(0) = %d, want 0", got)
	}
	if got := Deposit(-5); got != 0 {
		t.Errorf("Deposit(-5) = %d, want 0", got)
	}
}

func TestNeighborhoodFrom(t *testing.T) {
	cases := []struct {
		location string
		want     string
		ok       bool
	}{
		{"9711 AB Groningen (Binnenstad)", "Binnenstad", true},
		{"9718 KL Groningen (Korrewegwijk)", "Korrewegwijk", true},
		{"Groningen", "", false},
		{"Groningen ()", "", false},
	}

	for _, c := range cases {
		got, ok := NeighborhoodFrom(c.location)
		if got != c.want || ok != c.ok {
			t.Errorf("NeighborhoodFrom(%q) = (%q, %v), want (%q, %v)", c.location, got, ok, c.want, c.ok)
		}
	}
}

func TestDescribe(t *testing.T) {
	p := models.Property{
		Title:       "Apartment Oosterstraat",
		Location:    "9711 NR Groningen (Binnenstad)",
		Size:        "75m2",
		Rooms:       2,
		Type:        models.TypeApartment,
		Interior:    "Furnished",
		EnergyLabel: "B",
		Deposit:     2400,
	}

	desc := Describe(p)
	for _, want := range []string{"Apartment Oosterstraat", "apartment", "75m2", "Furnished", "Energy label B", "Deposit EUR 2400"} {
		if !strings.Contains(desc, want) {
			t.Errorf("description %q missing %q", desc, want)
		}
	}
}
