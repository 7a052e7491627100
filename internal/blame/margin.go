package blame

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/cj3636/gblame/internal/config"
)

// Margins carries the three renderings of a run's information margin.
// Highlight opens the run, Auxiliary fills the margin of its second
// line, Condensed is the single-line fallback.
type Margins struct {
	Highlight string
	Condensed string
	Auxiliary string
}

// MarginFormatter produces margin text for one highlight mode and
// margin width.
type MarginFormatter struct {
	mode    config.Highlight
	width   int
	verbose bool
	dates   *DateFormatter
}

// NewMarginFormatter builds a formatter from the finalized config.
func NewMarginFormatter(cfg *config.Config, dates *DateFormatter) *MarginFormatter {
	return &MarginFormatter{
		mode:    cfg.Highlight,
		width:   cfg.MarginWidth,
		verbose: cfg.Verbose,
		dates:   dates,
	}
}

// Format renders the margin texts for a commit. In non-verbose mode the
// highlight collapses to the condensed form and no auxiliary is kept.
func (f *MarginFormatter) Format(c *Commit) Margins {
	var m Margins
	switch f.mode {
	case config.HighlightWho:
		m = f.who(c)
	case config.HighlightWhen:
		m = f.when(c)
	default:
		m = f.what(c)
	}
	m.Highlight = f.clamp(m.Highlight)
	m.Condensed = f.clamp(m.Condensed)
	m.Auxiliary = f.clamp(m.Auxiliary)
	if !f.verbose {
		m.Highlight = m.Condensed
		m.Auxiliary = ""
	}
	return m
}

func (f *MarginFormatter) who(c *Commit) Margins {
	name := authorName(c)
	date := f.dates.Date(c.AuthorTime, c.AuthorTZ)

	condensed := name
	if avail := f.width - len(date) - 3; avail >= 1 {
		condensed = f.truncate(name, avail) + " (" + date + ")"
	}

	return Margins{
		Highlight: name,
		Condensed: condensed,
		Auxiliary: f.dates.DateTime(c.AuthorTime, c.AuthorTZ) + ": " + c.Summary,
	}
}

func (f *MarginFormatter) what(c *Commit) Margins {
	date := f.dates.DateTime(c.AuthorTime, c.AuthorTZ)

	highlight := c.Summary
	if avail := f.width - 10; avail >= 1 && len(c.Hash) >= 7 {
		// Right-align an abbreviated hash by padding the summary first.
		highlight = runewidth.FillRight(f.truncate(c.Summary, avail), avail) +
			" (" + c.Hash[:7] + ")"
	}

	aux := date
	if avail := f.width - runewidth.StringWidth(date) - 1; avail >= 1 {
		if name := authorName(c); runewidth.StringWidth(name) <= avail {
			aux = date + " " + name
		} else if len(c.Hash) > 0 {
			// The name does not fit; a longer hash fragment does.
			frag := c.Hash
			if len(frag) > avail {
				frag = frag[:avail]
			}
			aux = date + " " + frag
		}
	}

	return Margins{Highlight: highlight, Condensed: highlight, Auxiliary: aux}
}

func (f *MarginFormatter) when(c *Commit) Margins {
	date := f.dates.DateTime(c.AuthorTime, c.AuthorTZ)
	return Margins{Highlight: date, Condensed: date}
}

// authorName resolves a display name for the commit: the author name,
// else the mail unless it is the literal empty address, else "Unknown".
func authorName(c *Commit) string {
	if c.Author != "" {
		return c.Author
	}
	if c.AuthorMail != "" && c.AuthorMail != "<>" {
		return c.AuthorMail
	}
	return "Unknown"
}

// ellipsis is a single-column ellipsis character, or three dots when
// the active East Asian width rules render the character double-wide.
func ellipsis() string {
	if runewidth.RuneWidth('…') == 1 {
		return "…"
	}
	return "..."
}

func (f *MarginFormatter) clamp(s string) string {
	return f.truncate(s, f.width)
}

// truncate clamps s to width cells, right-trimming whitespace and
// appending an ellipsis when something had to be cut.
func (f *MarginFormatter) truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	s = strings.TrimRight(s, " \t")
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis())
}
