package blame

import "testing"

func testStoreCommits(hashes ...string) (*Store, []*Commit) {
	store := NewStore()
	commits := make([]*Commit, len(hashes))
	for i, h := range hashes {
		commits[i] = store.Lookup(h)
	}
	return store, commits
}

func TestPickRoundRobinWhenNotAdaptive(t *testing.T) {
	_, cs := testStoreCommits("aaaa", "bbbb", "cccc", "dddd")
	a := NewAllocator([]int{10, 20, 30}, false, 24)

	want := []int{0, 1, 2, 0}
	for i, c := range cs {
		if got := a.Pick(c, i+1); got != want[i] {
			t.Fatalf("pick %d = %d, want %d", i, got, want[i])
		}
	}
}

func TestPickAdaptiveAvoidsAdjacentSlot(t *testing.T) {
	_, cs := testStoreCommits("aaaa", "bbbb")
	a := NewAllocator([]int{10, 20, 30}, true, 24)

	// First run: adjacent is 0, so the least-recently-used scan starts
	// at slot 1. Second run: adjacent is 1, scan picks slot 0.
	if got := a.Pick(cs[0], 1); got != 1 {
		t.Fatalf("first pick = %d, want 1", got)
	}
	if got := a.Pick(cs[1], 2); got != 0 {
		t.Fatalf("second pick = %d, want 0", got)
	}
}

func TestPickReusesCommitColorAcrossInterveningRun(t *testing.T) {
	_, cs := testStoreCommits("aaaa", "bbbb")
	a := NewAllocator([]int{10, 20, 30}, true, 24)

	first := a.Pick(cs[0], 1)
	_ = a.Pick(cs[1], 2)
	// Nobody touched the first slot since line 1, so the commit's own
	// previous color is still safe.
	again := a.Pick(cs[0], 3)

	if again != first {
		t.Fatalf("commit did not keep its color: first %d, again %d", first, again)
	}
}

func TestPickReusesColorScrolledOffScreen(t *testing.T) {
	_, cs := testStoreCommits("aaaa", "bbbb", "cccc")
	a := NewAllocator([]int{10, 20, 30}, true, 5)

	first := a.Pick(cs[0], 1)
	_ = a.Pick(cs[1], 2)
	// Steal the first commit's slot so the contiguity rule cannot apply.
	stolen := a.Pick(cs[2], 3)
	if stolen != first {
		t.Fatalf("setup expected slot %d to be stolen, got %d", first, stolen)
	}

	// Far below the stolen use, the slot is off screen and safe again.
	if got := a.Pick(cs[0], 40); got != first {
		t.Fatalf("off-screen reuse = %d, want %d", got, first)
	}
}

func TestTouchKeepsRunContiguityAlive(t *testing.T) {
	_, cs := testStoreCommits("aaaa", "bbbb")
	a := NewAllocator([]int{10, 20, 30}, true, 24)

	idx := a.Pick(cs[0], 1)
	a.Touch(cs[0], idx, 2)
	a.Touch(cs[0], idx, 3)
	_ = a.Pick(cs[1], 4)

	// The slot's recency tracked line 3, matching the commit's own last
	// annotated line, so the identity reuse rule holds.
	if got := a.Pick(cs[0], 5); got != idx {
		t.Fatalf("reuse after touched run = %d, want %d", got, idx)
	}
}

func TestPickNeverReturnsAdjacentSlotForFreshCommitReuse(t *testing.T) {
	_, cs := testStoreCommits("aaaa")
	a := NewAllocator([]int{10, 20, 30}, true, 24)

	idx := a.Pick(cs[0], 1) // slot 1
	// Next adjacent is 1 == the commit's color, so reuse must not
	// apply and the scan picks another slot.
	if got := a.Pick(cs[0], 2); got == idx {
		t.Fatalf("reused slot %d while it was the adjacent index", idx)
	}
}

func TestSingleSlotPaletteAlwaysPicksIt(t *testing.T) {
	_, cs := testStoreCommits("aaaa", "bbbb")
	a := NewAllocator([]int{99}, true, 24)

	if got := a.Pick(cs[0], 1); got != 0 {
		t.Fatalf("pick = %d, want 0", got)
	}
	if got := a.Pick(cs[1], 2); got != 0 {
		t.Fatalf("pick = %d, want 0", got)
	}
}

func TestColorEscape(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"109", "\x1b[38;5;109m"},
		{"0", "\x1b[38;5;0m"},
		{"", ""},
		{"notanumber", ""},
		{"256", ""},
	}
	for _, tc := range cases {
		if got := colorEscape(tc.id); got != tc.want {
			t.Errorf("colorEscape(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}
