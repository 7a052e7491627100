package blame

import (
	"strconv"

	"github.com/muesli/termenv"
)

// colorEscape returns the raw foreground escape for a 256-color id
// string. An empty or malformed id means "terminal default" and yields
// no escape at all.
func colorEscape(id string) string {
	if id == "" {
		return ""
	}
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 || n > 255 {
		return ""
	}
	return ansi256Escape(n)
}

func ansi256Escape(id int) string {
	return termenv.CSI + termenv.ANSI256Color(id).Sequence(false) + "m"
}

// resetEscape restores the terminal's default attributes.
const resetEscape = termenv.CSI + termenv.ResetSeq + "m"

type colorSlot struct {
	escape  string
	lastUse int // source line where this slot was last used
}

// Allocator owns the palette and its recency state and picks the slot
// for each newly starting run. With adaptive coloring it behaves like a
// greedy distance coloring: scattered runs of the same commit keep a
// stable identity color when that cannot clash with anything still on
// screen, and everything else gets the least recently used slot.
type Allocator struct {
	slots    []colorSlot
	cycle    int // last value of the naive round-robin index
	adaptive bool
	rows     int // screen height heuristic
}

// NewAllocator precomputes the escape sequence for every palette entry.
func NewAllocator(palette []int, adaptive bool, rows int) *Allocator {
	slots := make([]colorSlot, len(palette))
	for i, id := range palette {
		slots[i] = colorSlot{escape: ansi256Escape(id), lastUse: lineSentinel}
	}
	return &Allocator{
		slots:    slots,
		cycle:    len(slots) - 1, // so the first adjacent index is 0
		adaptive: adaptive,
		rows:     rows,
	}
}

// Pick chooses the palette slot for a run of commit c starting at line,
// records it on the commit, and touches the slot's recency.
func (a *Allocator) Pick(c *Commit, line int) int {
	adjacent := (a.cycle + 1) % len(a.slots)
	a.cycle = adjacent

	choice := adjacent
	if a.adaptive {
		if lc := c.lastColor; lc >= 0 && lc != adjacent &&
			(a.slots[lc].lastUse == c.lastLine || a.slots[lc].lastUse < line-a.rows) {
			// The commit's previous color was last used by the commit
			// itself, or has scrolled out of view. Keeping it gives the
			// commit a stable identity without clashing on screen.
			choice = lc
		} else {
			best, bestDist := adjacent, lineSentinel
			for i := range a.slots {
				if i == adjacent {
					continue
				}
				if d := line - a.slots[i].lastUse; d > bestDist {
					best, bestDist = i, d
				}
			}
			choice = best
		}
	}

	c.lastColor = choice
	c.lastLine = line
	a.slots[choice].lastUse = line
	return choice
}

// Touch records that a continuation line kept using slot idx, so the
// slot's recency tracks the end of the run, not just its start.
func (a *Allocator) Touch(c *Commit, idx, line int) {
	if idx >= 0 && idx < len(a.slots) {
		a.slots[idx].lastUse = line
	}
	c.lastLine = line
}

// Escape returns the precomputed escape sequence for slot idx.
func (a *Allocator) Escape(idx int) string {
	if idx < 0 || idx >= len(a.slots) {
		return ""
	}
	return a.slots[idx].escape
}
