package blame

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/cj3636/gblame/internal/config"
)

// pendingLine buffers the rendering of a run that is provisionally one
// line long. Whether it flushes as the verbose two-line form or the
// condensed single line depends on the line that follows it.
type pendingLine struct {
	highlight string // composed output line with the highlight margin
	condensed string // composed output line with the condensed margin
	auxiliary string // margin text for the synthetic second line
	escape    string
}

// Session is the per-run state of the renderer: parser position, commit
// store, color recency, and the overflow buffer. A session processes
// exactly one porcelain stream.
type Session struct {
	cfg     *config.Config
	store   *Store
	alloc   *Allocator
	margins *MarginFormatter

	out *bufio.Writer

	// parser state
	cur          *Commit
	curLine      int
	curGroup     int // group-size hint from the header, 0 when absent
	expectHeader bool

	// render state
	prevHash      string
	prevAnnotated bool
	runLen        int
	runAux        string // auxiliary margin promoted on a run's second line
	pending       *pendingLine

	boundaryEscape    string
	uncommittedEscape string
}

// NewSession builds a session for one run. cfg must be finalized.
func NewSession(cfg *config.Config) *Session {
	dates := NewDateFormatter(cfg.Timezone, cfg.HostOffsetSeconds)
	return &Session{
		cfg:               cfg,
		store:             NewStore(),
		alloc:             NewAllocator(cfg.Palette, cfg.Adaptive, cfg.ScreenRows),
		margins:           NewMarginFormatter(cfg, dates),
		expectHeader:      true,
		boundaryEscape:    colorEscape(cfg.BoundaryColor),
		uncommittedEscape: colorEscape(cfg.UncommittedColor),
	}
}

// Run consumes the porcelain stream from r and writes the annotated
// rendering to w. It is single-pass; every emitted line is final.
func (s *Session) Run(r io.Reader, w io.Writer) error {
	s.out = bufio.NewWriter(w)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.consume(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read blame stream: %w", err)
	}

	// A still-buffered single-line run can no longer borrow the next
	// line's margin, so it settles for the condensed form.
	s.flushPending(false)
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// consume dispatches one input line. The parser is deliberately
// lenient: malformed numerics read as zero and unknown shapes fall
// through as attributes rather than failing the stream.
func (s *Session) consume(line string) {
	if strings.HasPrefix(line, "\t") {
		s.content(line[1:])
		return
	}
	if s.expectHeader {
		s.header(line)
		return
	}
	if line == "boundary" {
		if s.cur != nil {
			s.cur.Boundary = true
		}
		return
	}
	key, value, _ := strings.Cut(line, " ")
	if s.cur != nil && key != "" {
		s.cur.SetField(key, value)
	}
}

// header opens a record: <hash> <original-line> <final-line> [<group-size>].
func (s *Session) header(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	s.cur = s.store.Lookup(fields[0])
	s.curLine = 0
	s.curGroup = 0
	if len(fields) > 2 {
		s.curLine, _ = strconv.Atoi(fields[2])
	}
	if len(fields) > 3 {
		s.curGroup, _ = strconv.Atoi(fields[3])
	}
	s.expectHeader = false
}

// content renders one source line and returns the parser to the header
// state.
func (s *Session) content(text string) {
	s.expectHeader = true
	c := s.cur
	if c == nil {
		c = s.store.Lookup("")
	}
	line := s.curLine
	text = expandTabs(text, s.cfg.TabWidth)

	annotatable := !c.Boundary && !c.Uncommitted()
	continues := s.prevAnnotated && c.Hash == s.prevHash

	switch {
	case continues:
		// The run did not end after all; a buffered single-line opening
		// becomes a regular verbose first line.
		s.flushPendingAsRunStart()
		s.runLen++
		margin := ""
		if s.runLen == 2 {
			margin = s.runAux
		}
		s.emit(s.alloc.Escape(c.lastColor), line, margin, text)
		s.alloc.Touch(c, c.lastColor, line)

	case annotatable && (s.curGroup > 1 || strings.TrimSpace(text) != ""):
		s.flushPending(false)
		idx := s.alloc.Pick(c, line)
		escape := s.alloc.Escape(idx)
		m := s.margins.Format(c)
		s.runLen = 1
		s.runAux = m.Auxiliary
		if s.cfg.Verbose && s.curGroup == 1 {
			// One-line run: whether the margin gets its verbose second
			// line depends on what follows.
			s.pending = &pendingLine{
				highlight: s.compose(escape, line, m.Highlight, text),
				condensed: s.compose(escape, line, m.Condensed, text),
				auxiliary: m.Auxiliary,
				escape:    escape,
			}
		} else {
			s.emit(escape, line, m.Highlight, text)
		}
		s.prevHash = c.Hash
		s.prevAnnotated = true

	default:
		// Blank separators, boundary commits, and uncommitted changes
		// keep their fixed color and an empty margin.
		s.flushPending(true)
		escape := s.boundaryEscape
		if c.Uncommitted() {
			escape = s.uncommittedEscape
		}
		s.emit(escape, line, "", text)
		s.prevHash = c.Hash
		s.prevAnnotated = false
	}
}

// flushPending resolves the overflow buffer. verbose selects the
// two-line form: the highlight line plus an auxiliary-only margin line.
func (s *Session) flushPending(verbose bool) {
	p := s.pending
	if p == nil {
		return
	}
	s.pending = nil
	if verbose && p.auxiliary != "" {
		s.out.WriteString(p.highlight)
		s.out.WriteByte('\n')
		s.writeAuxLine(p.escape, p.auxiliary)
		return
	}
	s.out.WriteString(p.condensed)
	s.out.WriteByte('\n')
}

// flushPendingAsRunStart emits the buffered highlight line unchanged
// when the supposedly one-line run turns out to continue.
func (s *Session) flushPendingAsRunStart() {
	p := s.pending
	if p == nil {
		return
	}
	s.pending = nil
	s.out.WriteString(p.highlight)
	s.out.WriteByte('\n')
}

// writeAuxLine emits a margin-only line carrying the auxiliary text of
// a resolved one-line run. It has no source text and a blank
// line-number column.
func (s *Session) writeAuxLine(escape, aux string) {
	var b strings.Builder
	b.WriteString(escape)
	if s.cfg.LineNumbers {
		b.WriteString(strings.Repeat(" ", 6))
	}
	b.WriteString(runewidth.FillRight(aux, s.cfg.MarginWidth))
	if escape != "" {
		b.WriteString(resetEscape)
	}
	s.out.WriteString(b.String())
	s.out.WriteByte('\n')
}

func (s *Session) emit(escape string, line int, margin, text string) {
	s.out.WriteString(s.compose(escape, line, margin, text))
	s.out.WriteByte('\n')
}

// compose assembles one output line:
// <escape><line number><margin padded to width><source text><reset>.
func (s *Session) compose(escape string, line int, margin, text string) string {
	var b strings.Builder
	b.WriteString(escape)
	if s.cfg.LineNumbers {
		fmt.Fprintf(&b, "%5d ", line)
	}
	b.WriteString(runewidth.FillRight(margin, s.cfg.MarginWidth))
	b.WriteString(text)
	if escape != "" {
		b.WriteString(resetEscape)
	}
	return b.String()
}

// expandTabs replaces tabs with spaces up to the next tab stop,
// measured in display cells from the start of the source text.
func expandTabs(text string, width int) string {
	if !strings.Contains(text, "\t") {
		return text
	}
	var b strings.Builder
	col := 0
	for _, r := range text {
		if r == '\t' {
			n := width - col%width
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}
