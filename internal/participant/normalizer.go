package participant

import (
	"html"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Free-text cells come from a shared spreadsheet and occasionally carry pasted
// markup. StrictPolicy drops every tag; the entity escaping it performs is
// undone afterwards since the values are data, not HTML output.
var strictPolicy = bluemonday.StrictPolicy()

// NormalizeTable converts a raw header+rows payload into a typed Table.
// Coercion failures are per-field: a bad age or timestamp yields a nil field,
// never an error, and no row is dropped.
func NormalizeTable(header []string, rows [][]string, cols Columns, rules Rules) Table {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	cell := func(row []string, column string) string {
		i, ok := idx[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	table := make(Table, 0, len(rows))
	for _, row := range rows {
		table = append(table, normalizeRow(func(column string) string {
			return cell(row, column)
		}, cols, rules))
	}
	return table
}

func normalizeRow(cell func(string) string, cols Columns, rules Rules) Participant {
	idRaw := strings.TrimSpace(cell(cols.NationalID))
	phoneRaw := strings.TrimSpace(cell(cols.Phone))

	p := Participant{
		FullName:           CleanText(cell(cols.FullName)),
		NationalID:         DigitsOnly(idRaw),
		NationalIDRaw:      idRaw,
		Phone:              DigitsOnly(phoneRaw),
		PhoneRaw:           phoneRaw,
		Gender:             normalizeGender(cell(cols.Gender)),
		County:             normalizeCounty(cell(cols.County)),
		Sector:             CleanText(cell(cols.Sector)),
		BusinessRegistered: isTruthy(cell(cols.Registered), rules),
		DisabilityDeclared: isTruthy(cell(cols.Disability), rules),
	}

	p.Age = parseAge(cell(cols.Age))
	p.Timestamp = parseTimestamp(cell(cols.Timestamp))
	p.RevenueGoodMonth = parseRevenue(cell(cols.Revenue))

	return p
}

// DigitsOnly strips every non-digit rune. Stored identifiers and incoming
// search queries go through the same function so "123-456" matches "123456".
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanText sanitizes a free-text cell and collapses runs of whitespace.
func CleanText(s string) string {
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	return normalizeSpace(s)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Only a missing gender becomes Unknown; unrecognized answers are kept
// verbatim (title-cased) rather than coerced.
func normalizeGender(s string) string {
	s = CleanText(s)
	if s == "" {
		return "Unknown"
	}
	// A Caser is stateful and not safe for concurrent use; build one per call.
	return cases.Title(language.English).String(strings.ToLower(s))
}

func normalizeCounty(s string) string {
	s = CleanText(s)
	if s == "" {
		return "Unknown"
	}
	return s
}

func isTruthy(s string, rules Rules) bool {
	s = strings.TrimSpace(s)
	for _, v := range rules.TruthValues {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func parseAge(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return nil
		}
		return &n
	}
	// Sheet exports sometimes render whole numbers as "25.0".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) {
		return nil
	}
	n := int(f)
	return &n
}

func parseRevenue(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Tolerate "KES 12,000" style answers.
	s = strings.NewReplacer("KES", "", "Kes", "", "kes", "", ",", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}
