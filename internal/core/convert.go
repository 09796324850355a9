package core

// convert.go provides tolerant parsing of spreadsheet cell text.
//
// Stock lists arrive from several warehouses and are maintained by hand, so
// the same number can show up as "1.250,5", "1,250.5", "1250,5" or
// "=\"1250.5\"". The parsers here accept all of them and report failure
// with a false second return instead of an error; callers turn failures into
// the missing marker.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a plain decimal after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
// Dotted day-first layouts come first; they are what the source sheets use.
var (
	twoDigitYearLayouts = []string{
		"2.1.06", "02.01.06", "1/2/06", "01/02/06", "1-2-06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00",
		"2.1.2006", "02.01.2006", "02.01.2006 15:04",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
		"2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// Excel serial day numbers accepted as dates (1900-01-01 to 9999-12-31).
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// missingTokens are cell texts treated as the missing marker.
var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"na":   true,
	"-":    true,
	"#n/a": true,
}

// IsMissingToken reports whether a raw cell text stands for "no value".
func IsMissingToken(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// IsStrictNumber reports whether s is a plain dot-decimal number with no
// separators or symbols. The loader uses it to infer numeric cells.
func IsStrictNumber(s string) bool {
	return numericRegex.MatchString(strings.TrimSpace(s))
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace, including non-breaking spaces
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// ParseDecimal parses a number written with either decimal separator.
//
// When both '.' and ',' occur, the one that appears last is the decimal
// separator and the other is a thousands separator. A lone comma is a
// decimal comma; several commas are thousands separators. Currency symbols,
// spaces and accounting parentheses are accepted.
func ParseDecimal(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "\u20ac", "", "\u00a3", "", " ", "", "\u202f", "", "'", "").Replace(s)

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	if negative {
		s = "-" + s
	}
	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ParseDate parses a date in any of the supported layouts.
// Handles 2-digit years with the pivot and returns UTC midnight-based times.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// ExcelSerialDate converts an Excel day serial (as read from raw cell
// values) into a date.
func ExcelSerialDate(f float64) (time.Time, bool) {
	if f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// ParseBool accepts the usual true/false spellings, including German ja/nein.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(CleanCell(s)) {
	case "true", "t", "yes", "y", "ja", "j", "1", "x":
		return true, true
	case "false", "f", "no", "n", "nein", "0":
		return false, true
	default:
		return false, false
	}
}

// FormatFloat renders f in its shortest form without exponent, so whole
// numbers never carry a trailing ".0".
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
