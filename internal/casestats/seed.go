package casestats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// csvDateLayout is the day/month/two-digit-year form used by the published
// state-wise dataset.
const csvDateLayout = "02/01/06"

// ParseCSV reads the state-wise sheet: row 0 holds dates (a date cell may
// span the following blank cells), row 1 the TCIN/TCFN/Cured/Death label of
// each column, row 2 is skipped, and the last row holds totals. Every other
// row is one location with its name in column 0.
func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read csv rows: %w", err)
	}
	if len(rows) < 4 {
		return nil, fmt.Errorf("expected at least four rows in the csv file, got %d", len(rows))
	}

	dates, err := columnDates(rows[0])
	if err != nil {
		return nil, err
	}
	labels := rows[1]

	type key struct {
		location string
		date     time.Time
	}
	entries := map[key]*Record{}

	for _, row := range rows[3 : len(rows)-1] {
		if len(row) == 0 {
			continue
		}
		location := strings.TrimSpace(row[0])
		if location == "" {
			continue
		}

		for col := 1; col < len(row); col++ {
			date, ok := dates[col]
			if !ok || col >= len(labels) {
				continue
			}

			k := key{location: location, date: date}
			entry, ok := entries[k]
			if !ok {
				entry = &Record{Location: location, Date: date}
				entries[k] = entry
			}

			value := parseCount(row[col])
			switch strings.TrimSpace(labels[col]) {
			case "TCIN":
				entry.TCIN = value
			case "TCFN":
				entry.TCFN = value
			case "Cured":
				entry.Cured = value
			case "Death":
				entry.Death = value
			}
		}
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, *e)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Location != records[j].Location {
			return records[i].Location < records[j].Location
		}
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

// LoadCSV parses the file at path.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open csv file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// columnDates resolves the date of every data column, carrying a date forward
// over blank header cells.
func columnDates(header []string) (map[int]time.Time, error) {
	dates := map[int]time.Time{}
	var (
		current time.Time
		seen    bool
	)
	for col := 1; col < len(header); col++ {
		cell := strings.TrimSpace(header[col])
		if cell != "" {
			d, err := time.Parse(csvDateLayout, cell)
			if err != nil {
				return nil, fmt.Errorf("column %d: invalid date %q: %w", col, cell, err)
			}
			current, seen = d, true
		}
		if seen {
			dates[col] = current
		}
	}
	return dates, nil
}

// parseCount reads a cell such as "1,204"; blanks and junk count as zero.
func parseCount(cell string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(strings.TrimSpace(cell), ",", ""))
	if err != nil {
		return 0
	}
	return n
}
