// Package gec loads daily global electron content (GEC) records from the
// whitespace-separated tables published by SIMuRG and selects the
// observation timestamps used to drive image harvesting.
package gec

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"solarharvest/internal/models"
)

// Column names required in the table header
const (
	ColumnYear  = "Year"
	ColumnMonth = "Month"
	ColumnDay   = "Day"
	ColumnHour  = "Hour"
	ColumnIndex = "igsg"
)

// Filter selects which rows become observations.
// Start and End are calendar dates, both inclusive.
type Filter struct {
	Hour  int
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls on the filter hour within the date range
func (f Filter) Contains(ts time.Time) bool {
	if ts.Hour() != f.Hour {
		return false
	}
	day := truncateToDay(ts)
	return !day.Before(truncateToDay(f.Start)) && !day.After(truncateToDay(f.End))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseError reports a malformed line in the input table
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gec: line %d: %s", e.Line, e.Reason)
}

// LoadFile opens path and loads observations from it
func LoadFile(path string, filter Filter) ([]models.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GEC table %s: %w", path, err)
	}
	defer f.Close()

	return Load(f, filter)
}

// Load parses a GEC table and returns the observations matching filter in
// input order. Any malformed row fails the whole load.
func Load(r io.Reader, filter Filter) ([]models.Observation, error) {
	scanner := bufio.NewScanner(r)

	var (
		columns    map[string]int
		width      int
		lineNo     int
		rowsParsed int
		out        []models.Observation
	)

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if columns == nil {
			cols, err := parseHeader(fields)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Reason: err.Error()}
			}
			columns, width = cols, len(fields)
			continue
		}

		if len(fields) != width {
			return nil, &ParseError{Line: lineNo, Reason: fmt.Sprintf("expected %d fields, got %d", width, len(fields))}
		}

		obs, err := parseRow(fields, columns)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Reason: err.Error()}
		}
		rowsParsed++

		if filter.Contains(obs.Timestamp) {
			out = append(out, obs)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read GEC table: %w", err)
	}

	if columns == nil {
		return nil, fmt.Errorf("gec: table is empty")
	}
	if rowsParsed == 0 {
		return nil, fmt.Errorf("gec: table has a header but no rows")
	}

	return out, nil
}

func parseHeader(fields []string) (map[string]int, error) {
	columns := make(map[string]int, len(fields))
	for i, name := range fields {
		columns[name] = i
	}
	for _, required := range []string{ColumnYear, ColumnMonth, ColumnDay, ColumnHour, ColumnIndex} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}

func parseRow(fields []string, columns map[string]int) (models.Observation, error) {
	var parts [4]int
	for i, name := range []string{ColumnYear, ColumnMonth, ColumnDay, ColumnHour} {
		v, err := parseInt(fields[columns[name]])
		if err != nil {
			return models.Observation{}, fmt.Errorf("invalid %s %q", name, fields[columns[name]])
		}
		parts[i] = v
	}
	year, month, day, hour := parts[0], parts[1], parts[2], parts[3]

	if month < 1 || month > 12 || hour < 0 || hour > 23 || day < 1 {
		return models.Observation{}, fmt.Errorf("invalid date %04d-%02d-%02d hour %d", year, month, day, hour)
	}
	ts := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
	// time.Date normalises overflow, so a round trip catches days like Feb 30
	if ts.Day() != day {
		return models.Observation{}, fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}

	raw := fields[columns[ColumnIndex]]
	index, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.Observation{}, fmt.Errorf("invalid %s %q", ColumnIndex, raw)
	}

	return models.Observation{Timestamp: ts, Index: index}, nil
}

// parseInt accepts plain integers and integral floats such as "2014.0"
func parseInt(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}
