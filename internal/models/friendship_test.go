package models

import "testing"

func TestBeforeSaveNormalizesPair(t *testing.T) {
	forward := Friendship{RequesterID: 2, AddresseeID: 9}
	reverse := Friendship{RequesterID: 9, AddresseeID: 2}

	if err := forward.BeforeSave(nil); err != nil {
		t.Fatalf("before save: %v", err)
	}
	if err := reverse.BeforeSave(nil); err != nil {
		t.Fatalf("before save: %v", err)
	}

	if forward.PairMinID != reverse.PairMinID || forward.PairMaxID != reverse.PairMaxID {
		t.Fatal("both directions must map to the same pair key")
	}
	if forward.PairMinID != 2 || forward.PairMaxID != 9 {
		t.Fatalf("pair = (%d,%d), want (2,9)", forward.PairMinID, forward.PairMaxID)
	}
}

func TestFriendshipHelpers(t *testing.T) {
	edge := Friendship{RequesterID: 2, AddresseeID: 9}

	if edge.Other(2) != 9 || edge.Other(9) != 2 {
		t.Fatal("Other must return the far side of the edge")
	}
	if !edge.Involves(9, 2) || edge.Involves(2, 3) {
		t.Fatal("Involves must match the pair in either direction only")
	}
}
