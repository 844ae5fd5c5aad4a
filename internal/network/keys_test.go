package network

import (
	"slices"
	"testing"
)

func TestCompareKeys(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"c2", "c10", -1},
		{"c10", "c2", 1},
		{"c02", "c2", -1},
		{"Alice", "bob", -1},
		{"alice", "Alice", 1},
		{"100001", "99999", 1},
		{"a", "a1", -1},
		{"x", "x", 0},
	}
	for _, tc := range cases {
		if got := CompareKeys(tc.a, tc.b); got != tc.want {
			t.Fatalf("CompareKeys(%q, %q): expected %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestClients_NaturalOrder(t *testing.T) {
	n := New()
	for _, k := range []string{"c10", "c2", "B", "a"} {
		mustClient(t, n, k)
	}
	var got []string
	for _, c := range n.Clients() {
		got = append(got, c.Key())
	}
	if want := []string{"a", "B", "c2", "c10"}; !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
