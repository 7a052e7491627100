package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Highlight selects what the information margin emphasizes.
type Highlight string

const (
	HighlightWho  Highlight = "who"
	HighlightWhat Highlight = "what"
	HighlightWhen Highlight = "when"
)

// Timezone selects which UTC offset dates are rendered in.
type Timezone string

const (
	TimezoneHost   Timezone = "host"
	TimezoneUTC    Timezone = "utc"
	TimezoneAuthor Timezone = "author"
)

// Config holds the renderer configuration. It is immutable once
// Finalize has run.
type Config struct {
	Highlight        Highlight `toml:"highlight"`
	Timezone         Timezone  `toml:"timezone"`
	MarginWidth      int       `toml:"margin_width"` // 0 derives from the highlight mode
	LineNumbers      bool      `toml:"line_numbers"`
	Verbose          bool      `toml:"verbose"`
	Adaptive         bool      `toml:"adaptive_colors"`
	TabWidth         int       `toml:"tab_width"`
	Palette          []int     `toml:"palette"`
	BoundaryColor    string    `toml:"boundary_color"`    // 256-color id, "" = terminal default
	UncommittedColor string    `toml:"uncommitted_color"` // 256-color id, "" = terminal default

	// Host-derived values, injected by the caller so a run is a pure
	// function of input plus configuration.
	ScreenRows        int `toml:"-"`
	HostOffsetSeconds int `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Highlight:        HighlightWhat,
		Timezone:         TimezoneHost,
		LineNumbers:      true,
		Verbose:          true,
		Adaptive:         true,
		TabWidth:         8,
		Palette:          []int{66, 109, 138, 102, 144, 96},
		BoundaryColor:    "242",
		UncommittedColor: "131",
		ScreenRows:       24,
	}
}

// Load builds a configuration from defaults, an optional TOML file,
// and the environment, in that order. A missing file is not an error;
// an empty path skips the file layer entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// fall through to env
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HIGHLIGHT"); v != "" {
		c.Highlight = Highlight(v)
	}
	if v := os.Getenv("OUTPUT_TIMEZONE"); v != "" {
		c.Timezone = Timezone(v)
	}
	if v := os.Getenv("MARGIN_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MARGIN_WIDTH: %q", v)
		}
		c.MarginWidth = n
	}
	if v := os.Getenv("TAB_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TAB_WIDTH: %q", v)
		}
		c.TabWidth = n
	}
	if v := os.Getenv("LINE_NUMBERS"); v != "" {
		c.LineNumbers = parseBool(v, c.LineNumbers)
	}
	if v := os.Getenv("VERBOSE"); v != "" {
		c.Verbose = parseBool(v, c.Verbose)
	}
	if v := os.Getenv("ADAPTIVE_COLORS"); v != "" {
		c.Adaptive = parseBool(v, c.Adaptive)
	}
	if v := os.Getenv("PALETTE"); v != "" {
		palette, err := ParsePalette(v)
		if err != nil {
			return err
		}
		c.Palette = palette
	}
	if v, ok := os.LookupEnv("BOUNDARY_COLOR"); ok {
		c.BoundaryColor = v
	}
	if v, ok := os.LookupEnv("UNCOMMITTED_COLOR"); ok {
		c.UncommittedColor = v
	}
	return nil
}

// ParsePalette reads a comma- or space-separated list of numeric
// 256-color ids.
func ParsePalette(raw string) ([]int, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty palette: %q", raw)
	}
	palette := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil || id < 0 || id > 255 {
			return nil, fmt.Errorf("invalid palette color: %q", f)
		}
		palette = append(palette, id)
	}
	return palette, nil
}

func parseBool(raw string, fallback bool) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

// ZoneSuffixShown reports whether dates carry an explicit zone suffix.
// The host's own zone is implied; utc and author modes spell it out.
func (c *Config) ZoneSuffixShown() bool {
	return c.Timezone == TimezoneUTC || c.Timezone == TimezoneAuthor
}

// Finalize validates the mode fields and derives defaults that depend
// on them. It must be called before the configuration is used.
func (c *Config) Finalize() error {
	switch c.Highlight {
	case HighlightWho, HighlightWhat, HighlightWhen:
	default:
		return fmt.Errorf("unsupported highlight mode: %s", c.Highlight)
	}
	switch c.Timezone {
	case TimezoneHost, TimezoneUTC, TimezoneAuthor:
	default:
		return fmt.Errorf("unsupported timezone mode: %s", c.Timezone)
	}
	if len(c.Palette) == 0 {
		return errors.New("palette must contain at least one color")
	}
	if c.TabWidth < 1 {
		c.TabWidth = 8
	}
	if c.ScreenRows < 1 {
		c.ScreenRows = 24
	}
	if c.MarginWidth <= 0 {
		switch c.Highlight {
		case HighlightWho:
			c.MarginWidth = 25
		case HighlightWhat:
			c.MarginWidth = 50
		case HighlightWhen:
			if c.ZoneSuffixShown() {
				c.MarginWidth = 22
			} else {
				c.MarginWidth = 16
			}
		}
	}
	return nil
}
