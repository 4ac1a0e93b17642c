package models

import "testing"

func TestTypeForRooms(t *testing.T) {
	cases := []struct {
		rooms int
		want  string
	}{
		{1, TypeStudio},
		{2, TypeApartment},
		{3, TypeHouse},
		{4, TypeHouse},
		{0, TypeStudio},
	}

	for _, c := range cases {
		if got := TypeForRooms(c.rooms); got != c.want {
			t.Errorf("TypeForRooms(%d) = %q, want %q", c.rooms, got, c.want)
		}
	}
}

func TestTypeForRoomsBoundary(t *testing.T) {
	// The apartment/house split sits between 2 and 3 rooms.
	if got := TypeForRooms(2); got != TypeApartment {
		t.Fatalf("expected 2 rooms to be an apartment, got %q", got)
	}
	if got := TypeForRooms(3); got != TypeHouse {
		t.Fatalf("expected 3 rooms to be a house, got %q", got)
	}
}
