package participant

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Export column orders are part of the download contract; reorder only with a
// coordinated consumer change.
var participantExportHeader = []string{
	"Timestamp",
	"Full Name",
	"National ID",
	"Phone Number",
	"Gender",
	"Age",
	"County",
	"Sector",
	"Business Registered",
	"Disability Declared",
	"Monthly Revenue (Good Month, KES)",
}

var countySummaryExportHeader = []string{
	"County",
	"Total Participants",
	"% Youth (18-35)",
	"% Female Youth",
}

// WriteParticipantsCSV serializes the full table as UTF-8 CSV with a header
// row. IDs and phone numbers export with their original formatting; any row
// cap applied by a UI is presentation only and never reaches the export.
func WriteParticipantsCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(participantExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range t {
		row := []string{
			formatTimestamp(p.Timestamp),
			p.FullName,
			p.NationalIDRaw,
			p.PhoneRaw,
			p.Gender,
			formatAge(p.Age),
			p.County,
			p.Sector,
			formatFlag(p.BusinessRegistered),
			formatFlag(p.DisabilityDeclared),
			formatRevenue(p.RevenueGoodMonth),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCountySummaryCSV serializes county summary rows in their given order.
func WriteCountySummaryCSV(w io.Writer, rows []CountySummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(countySummaryExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		row := []string{
			r.County,
			strconv.Itoa(r.TotalParticipants),
			strconv.FormatFloat(r.PctYouth, 'f', 1, 64),
			strconv.FormatFloat(r.PctFemaleYouth, 'f', 1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func formatAge(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}

func formatFlag(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}

func formatRevenue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
