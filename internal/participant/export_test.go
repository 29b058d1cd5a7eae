package participant

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func TestWriteParticipantsCSVRoundTrip(t *testing.T) {
	when := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	table := Table{
		{
			Timestamp:        &when,
			FullName:         `Jane "JW" Wanjiku, Esq.`, // embedded comma and quotes
			NationalIDRaw:    "123-456-789",
			PhoneRaw:         "+254700111222",
			Gender:           "Female",
			Age:              intPtr(25),
			County:           "Nairobi",
			Sector:           "Agriculture",
			RevenueGoodMonth: floatPtr(12000),
		},
		{FullName: "John", Gender: "Male", County: "Kisumu"},
	}

	var buf bytes.Buffer
	if err := WriteParticipantsCSV(&buf, table); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != "Timestamp" || records[0][2] != "National ID" {
		t.Fatalf("unexpected header: %v", records[0])
	}

	row := records[1]
	if row[1] != `Jane "JW" Wanjiku, Esq.` {
		t.Fatalf("quoting broke round-trip: %q", row[1])
	}
	if row[2] != "123-456-789" {
		t.Fatalf("expected raw ID formatting in export, got %q", row[2])
	}
	if row[0] != "2025-03-14 09:30:00" {
		t.Fatalf("unexpected timestamp: %q", row[0])
	}
	if row[10] != "12000" {
		t.Fatalf("unexpected revenue: %q", row[10])
	}

	empty := records[2]
	if empty[0] != "" || empty[5] != "" || empty[10] != "" {
		t.Fatalf("absent fields must export as empty cells: %v", empty)
	}
	if empty[8] != "NO" {
		t.Fatalf("expected NO flag, got %q", empty[8])
	}
}

func TestWriteParticipantsCSVNoRowLimit(t *testing.T) {
	table := make(Table, 500)
	var buf bytes.Buffer
	if err := WriteParticipantsCSV(&buf, table); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	lines := strings.Count(buf.String(), "\n")
	if lines != 501 {
		t.Fatalf("expected 501 lines (header + 500 rows), got %d", lines)
	}
}

func TestWriteCountySummaryCSV(t *testing.T) {
	rows := []CountySummary{
		{County: "Nairobi", TotalParticipants: 2, PctYouth: 50, PctFemaleYouth: 50},
		{County: "Kisumu", TotalParticipants: 1, PctYouth: 100, PctFemaleYouth: 100},
	}

	var buf bytes.Buffer
	if err := WriteCountySummaryCSV(&buf, rows); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[1][0] != "Nairobi" || records[1][2] != "50.0" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][3] != "100.0" {
		t.Fatalf("expected one-decimal percentages, got %q", records[2][3])
	}
}
