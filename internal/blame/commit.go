package blame

import (
	"strconv"
	"strings"
)

// lineSentinel predates any real source line so first uses are never
// penalized for recency.
const lineSentinel = -1 << 30

// Commit accumulates the metadata the porcelain stream emits for one
// hash, plus the rendering state that persists across its runs.
type Commit struct {
	Hash       string
	Boundary   bool
	Author     string
	AuthorMail string
	AuthorTime int64
	AuthorTZ   string
	Summary    string

	// Extra preserves attribute keys the renderer does not interpret.
	Extra map[string]string

	lastColor int // palette index of the most recent run, -1 before first use
	lastLine  int // most recent source line rendered for this commit
}

// SetField stores one porcelain attribute line on the commit.
func (c *Commit) SetField(key, value string) {
	switch key {
	case "author":
		c.Author = value
	case "author-mail":
		c.AuthorMail = value
	case "author-time":
		c.AuthorTime, _ = strconv.ParseInt(value, 10, 64)
	case "author-tz":
		c.AuthorTZ = value
	case "summary":
		c.Summary = value
	default:
		if c.Extra == nil {
			c.Extra = make(map[string]string)
		}
		c.Extra[key] = value
	}
}

// Uncommitted reports whether the hash is the synthetic all-zero value
// git uses for working-tree changes.
func (c *Commit) Uncommitted() bool {
	return c.Hash != "" && strings.Count(c.Hash, "0") == len(c.Hash)
}

// Store holds every commit seen so far, keyed by hash. Entries are
// created lazily and live for the whole run.
type Store struct {
	commits map[string]*Commit
}

// NewStore creates an empty commit store.
func NewStore() *Store {
	return &Store{commits: make(map[string]*Commit)}
}

// Lookup returns the commit for hash, creating it on first sighting.
func (s *Store) Lookup(hash string) *Commit {
	if c, ok := s.commits[hash]; ok {
		return c
	}
	c := &Commit{
		Hash:      hash,
		lastColor: -1,
		lastLine:  lineSentinel,
	}
	s.commits[hash] = c
	return c
}

// Len returns the number of distinct commits seen.
func (s *Store) Len() int {
	return len(s.commits)
}
