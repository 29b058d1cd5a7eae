package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// RawTable is the untyped payload as parsed from the source: a header row and
// string cells. All typing happens later in the normalizer.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// ParseCSV reads a CSV payload into a RawTable. Rows may be ragged: the
// normalizer treats cells beyond a row's length as missing.
func ParseCSV(r io.Reader) (*RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed CSV payload: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty payload, no header row")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return &RawTable{Header: header, Rows: records[1:]}, nil
}
