package blame

import (
	"fmt"

	"github.com/cj3636/gblame/internal/config"
)

var cumulativeDays = [2][13]int{
	{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365},
	{0, 31, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335, 366},
}

// DateFormatter converts commit timestamps into fixed-width calendar
// strings. All calendar math is done directly on the shifted timestamp
// so results match the proleptic Gregorian calendar on any host.
type DateFormatter struct {
	mode       config.Timezone
	hostOffset int // seconds east of UTC
}

// NewDateFormatter builds a formatter for the configured timezone mode.
// hostOffset is the host's UTC offset in seconds, looked up once per run.
func NewDateFormatter(mode config.Timezone, hostOffset int) *DateFormatter {
	return &DateFormatter{mode: mode, hostOffset: hostOffset}
}

// DateTime renders ts as "YYYY-MM-DD HH:MM", with a zone suffix in the
// utc and author modes: " ±HHMM", or " (UTC)" when the offset is zero.
func (f *DateFormatter) DateTime(ts int64, authorTZ string) string {
	offset := f.offsetFor(authorTZ)
	y, mo, d, h, mi := civilFromUnix(ts + int64(offset))
	s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d", y, mo, d, h, mi)
	if f.mode == config.TimezoneHost {
		return s
	}
	if offset == 0 {
		return s + " (UTC)"
	}
	return s + " " + formatOffset(offset)
}

// Date renders only the calendar day, with no zone suffix.
func (f *DateFormatter) Date(ts int64, authorTZ string) string {
	y, mo, d, _, _ := civilFromUnix(ts + int64(f.offsetFor(authorTZ)))
	return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
}

func (f *DateFormatter) offsetFor(authorTZ string) int {
	switch f.mode {
	case config.TimezoneUTC:
		return 0
	case config.TimezoneAuthor:
		return parseOffset(authorTZ)
	default:
		return f.hostOffset
	}
}

// parseOffset converts a signed HHMM zone string into seconds.
// Malformed strings count as UTC.
func parseOffset(tz string) int {
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return 0
	}
	var hh, mm int
	if _, err := fmt.Sscanf(tz[1:], "%02d%02d", &hh, &mm); err != nil {
		return 0
	}
	secs := hh*3600 + mm*60
	if tz[0] == '-' {
		secs = -secs
	}
	return secs
}

func formatOffset(secs int) string {
	sign := "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d%02d", sign, secs/3600, (secs%3600)/60)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInYear(year int) int {
	if isLeap(year) {
		return 366
	}
	return 365
}

// civilFromUnix decomposes a Unix timestamp into calendar fields by
// walking whole years away from 1970 and then mapping the day of year
// through the cumulative month table. Handles pre-epoch timestamps and
// the 1900/2000/2100 century leap rules.
func civilFromUnix(ts int64) (year, month, day, hour, min int) {
	days := int(ts / 86400)
	rem := int(ts % 86400)
	if rem < 0 {
		rem += 86400
		days--
	}
	hour = rem / 3600
	min = (rem % 3600) / 60

	year = 1970
	for days < 0 {
		year--
		days += daysInYear(year)
	}
	for days >= daysInYear(year) {
		days -= daysInYear(year)
		year++
	}

	table := &cumulativeDays[0]
	if isLeap(year) {
		table = &cumulativeDays[1]
	}
	month = 1
	for table[month] <= days {
		month++
	}
	day = days - table[month-1] + 1
	return year, month, day, hour, min
}
