package participant

import (
	"testing"
	"time"
)

func normalizeOne(t *testing.T, header []string, row []string) Participant {
	t.Helper()
	table := NormalizeTable(header, [][]string{row}, DefaultColumns(), DefaultRules())
	if len(table) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table))
	}
	return table[0]
}

func TestNormalizeStripsNonDigitsFromIdentifiers(t *testing.T) {
	cols := DefaultColumns()
	p := normalizeOne(t,
		[]string{cols.NationalID, cols.Phone},
		[]string{" 123-456 789 ", "+254 (712) 345-678"},
	)

	if p.NationalID != "123456789" {
		t.Fatalf("expected digits-only ID, got %q", p.NationalID)
	}
	if p.Phone != "254712345678" {
		t.Fatalf("expected digits-only phone, got %q", p.Phone)
	}
	if p.NationalIDRaw != "123-456 789" {
		t.Fatalf("expected trimmed raw ID retained, got %q", p.NationalIDRaw)
	}
}

func TestNormalizeGender(t *testing.T) {
	cols := DefaultColumns()
	cases := []struct {
		in   string
		want string
	}{
		{"FEMALE", "Female"},
		{" male ", "Male"},
		{"", "Unknown"},
		{"prefer not to say", "Prefer Not To Say"}, // kept verbatim, not coerced
	}
	for _, tc := range cases {
		p := normalizeOne(t, []string{cols.Gender}, []string{tc.in})
		if p.Gender != tc.want {
			t.Fatalf("gender %q: expected %q, got %q", tc.in, tc.want, p.Gender)
		}
	}
}

func TestNormalizeCountyMissingBecomesUnknown(t *testing.T) {
	cols := DefaultColumns()
	p := normalizeOne(t, []string{cols.County}, []string{"  "})
	if p.County != "Unknown" {
		t.Fatalf("expected Unknown, got %q", p.County)
	}
}

func TestNormalizeAgeFailuresAreAbsentNotZero(t *testing.T) {
	cols := DefaultColumns()
	for _, bad := range []string{"", "abc", "-4", "25.5"} {
		p := normalizeOne(t, []string{cols.Age}, []string{bad})
		if p.Age != nil {
			t.Fatalf("age %q: expected nil, got %d", bad, *p.Age)
		}
	}

	p := normalizeOne(t, []string{cols.Age}, []string{"25.0"})
	if p.Age == nil || *p.Age != 25 {
		t.Fatalf("expected age 25 from %q", "25.0")
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	cols := DefaultColumns()
	p := normalizeOne(t, []string{cols.Timestamp}, []string{"3/14/2025 09:30:00"})
	if p.Timestamp == nil {
		t.Fatal("expected parsed timestamp")
	}
	want := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	if !p.Timestamp.Equal(want) {
		t.Fatalf("expected %s, got %s", want, p.Timestamp)
	}

	p = normalizeOne(t, []string{cols.Timestamp}, []string{"not a date"})
	if p.Timestamp != nil {
		t.Fatalf("expected nil timestamp, got %s", p.Timestamp)
	}
}

func TestNormalizeRevenue(t *testing.T) {
	cols := DefaultColumns()
	p := normalizeOne(t, []string{cols.Revenue}, []string{"KES 12,000"})
	if p.RevenueGoodMonth == nil || *p.RevenueGoodMonth != 12000 {
		t.Fatalf("expected 12000, got %v", p.RevenueGoodMonth)
	}

	for _, bad := range []string{"", "n/a", "-500"} {
		p := normalizeOne(t, []string{cols.Revenue}, []string{bad})
		if p.RevenueGoodMonth != nil {
			t.Fatalf("revenue %q: expected nil, got %v", bad, *p.RevenueGoodMonth)
		}
	}
}

func TestNormalizeTruthFlags(t *testing.T) {
	cols := DefaultColumns()
	p := normalizeOne(t,
		[]string{cols.Registered, cols.Disability},
		[]string{"yes", "No"},
	)
	if !p.BusinessRegistered {
		t.Fatal("expected registered=true for 'yes'")
	}
	if p.DisabilityDeclared {
		t.Fatal("expected disability=false for 'No'")
	}
}

func TestNormalizeStripsMarkupFromFreeText(t *testing.T) {
	cols := DefaultColumns()
	p := normalizeOne(t, []string{cols.FullName}, []string{"<b>Jane</b>   Wanjiku"})
	if p.FullName != "Jane Wanjiku" {
		t.Fatalf("expected sanitized name, got %q", p.FullName)
	}
}

func TestNormalizeShortRow(t *testing.T) {
	cols := DefaultColumns()
	// Row narrower than the header: trailing cells read as missing.
	p := normalizeOne(t, []string{cols.FullName, cols.County}, []string{"Jane"})
	if p.County != "Unknown" {
		t.Fatalf("expected Unknown county for short row, got %q", p.County)
	}
}
