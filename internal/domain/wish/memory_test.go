package wish

import (
	"testing"
	"time"
)

func TestSortByOrderIsStable(t *testing.T) {
	ms := []*Memory{
		{ImageKey: "c", Order: 2},
		{ImageKey: "a1", Order: 0},
		{ImageKey: "b", Order: 1},
		{ImageKey: "a2", Order: 0},
	}
	SortByOrder(ms)
	want := []string{"a1", "a2", "b", "c"}
	for i, m := range ms {
		if m.ImageKey != want[i] {
			t.Fatalf("position %d: want=%s got=%s", i, want[i], m.ImageKey)
		}
	}
}

func TestIsExpiredAt(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	cases := []struct {
		name string
		w    *Wish
		want bool
	}{
		{"draft past window", &Wish{Status: StatusDraft, ExpiresAt: &past}, true},
		{"draft in window", &Wish{Status: StatusDraft, ExpiresAt: &future}, false},
		{"published ignores window", &Wish{Status: StatusPublished, ExpiresAt: &past}, false},
		{"expired status", &Wish{Status: StatusExpired}, true},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		if got := tc.w.IsExpiredAt(now); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}
