package blame

import (
	"testing"

	"github.com/cj3636/gblame/internal/config"
)

func TestDateTimeUTCBoundaries(t *testing.T) {
	f := NewDateFormatter(config.TimezoneUTC, 0)

	cases := []struct {
		name string
		ts   int64
		want string
	}{
		{"epoch", 0, "1970-01-01 00:00 (UTC)"},
		{"leap day 2000", 951782400, "2000-02-29 00:00 (UTC)"},
		{"day after leap day 2000", 951868800, "2000-03-01 00:00 (UTC)"},
		{"1900 is not a leap year", -2203891200, "1900-03-01 00:00 (UTC)"},
		{"minute before 1900 march", -2203891260, "1900-02-28 23:59 (UTC)"},
		{"2100 is not a leap year", 4107542400, "2100-03-01 00:00 (UTC)"},
		{"last february day 2100", 4107456000, "2100-02-28 00:00 (UTC)"},
		{"pre-epoch minute", -60, "1969-12-31 23:59 (UTC)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.DateTime(tc.ts, "+0000"); got != tc.want {
				t.Fatalf("DateTime(%d) = %q, want %q", tc.ts, got, tc.want)
			}
		})
	}
}

func TestDateTimeAuthorOffsets(t *testing.T) {
	f := NewDateFormatter(config.TimezoneAuthor, 0)

	cases := []struct {
		ts   int64
		tz   string
		want string
	}{
		{0, "+0530", "1970-01-01 05:30 +0530"},
		{0, "-0800", "1969-12-31 16:00 -0800"},
		{0, "+0000", "1970-01-01 00:00 (UTC)"},
		{0, "garbage", "1970-01-01 00:00 (UTC)"}, // malformed zone counts as UTC
		{951782400, "+1400", "2000-02-29 14:00 +1400"},
	}

	for _, tc := range cases {
		if got := f.DateTime(tc.ts, tc.tz); got != tc.want {
			t.Errorf("DateTime(%d, %q) = %q, want %q", tc.ts, tc.tz, got, tc.want)
		}
	}
}

func TestDateTimeHostModeHasNoSuffix(t *testing.T) {
	f := NewDateFormatter(config.TimezoneHost, 3600)
	if got := f.DateTime(0, "+0900"); got != "1970-01-01 01:00" {
		t.Fatalf("host DateTime = %q, want %q", got, "1970-01-01 01:00")
	}
}

func TestDateIgnoresZoneSuffix(t *testing.T) {
	f := NewDateFormatter(config.TimezoneAuthor, 0)
	if got := f.Date(0, "-0100"); got != "1969-12-31" {
		t.Fatalf("Date = %q, want %q", got, "1969-12-31")
	}
}

func TestCivilFromUnixCenturyRules(t *testing.T) {
	cases := []struct {
		year int
		leap bool
	}{
		{1900, false},
		{1996, true},
		{2000, true},
		{2024, true},
		{2100, false},
	}
	for _, tc := range cases {
		if got := isLeap(tc.year); got != tc.leap {
			t.Errorf("isLeap(%d) = %v, want %v", tc.year, got, tc.leap)
		}
	}
}

func TestParseOffset(t *testing.T) {
	cases := []struct {
		tz   string
		want int
	}{
		{"+0000", 0},
		{"+0530", 5*3600 + 30*60},
		{"-0800", -8 * 3600},
		{"+1400", 14 * 3600},
		{"", 0},
		{"0530", 0},
		{"+05:30", 0},
	}
	for _, tc := range cases {
		if got := parseOffset(tc.tz); got != tc.want {
			t.Errorf("parseOffset(%q) = %d, want %d", tc.tz, got, tc.want)
		}
	}
}
