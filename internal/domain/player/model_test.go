package player

import (
	"slices"
	"testing"
)

func TestSplitName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, first, last string
	}{
		{in: "Alex Bregman", first: "Alex", last: "Bregman"},
		{in: "  Vladimir Guerrero Jr. ", first: "Vladimir", last: "Guerrero Jr."},
		{in: "Ichiro", first: "Ichiro", last: ""},
		{in: "", first: "", last: ""},
	}
	for _, tc := range cases {
		first, last := SplitName(tc.in)
		if first != tc.first || last != tc.last {
			t.Fatalf("split %q: got (%q, %q) want (%q, %q)", tc.in, first, last, tc.first, tc.last)
		}
	}
}

func TestMergeYearsIsSortedUnion(t *testing.T) {
	t.Parallel()

	got := MergeYears([]int{2023, 2017}, []int{2017, 2009})
	if !slices.Equal(got, []int{2009, 2017, 2023}) {
		t.Fatalf("unexpected merge: %v", got)
	}
}

func TestIsPlaceholder(t *testing.T) {
	t.Parallel()

	if !(Player{FullName: "team set"}).IsPlaceholder() {
		t.Fatalf("expected team set sentinel to be placeholder")
	}
	if (Player{FullName: "Alex Bregman"}).IsPlaceholder() {
		t.Fatalf("real player is not a placeholder")
	}
}
