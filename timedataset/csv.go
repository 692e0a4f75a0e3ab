package timedataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	ErrParse         = errors.New("unable to parse tabular input")
	ErrDateParse     = errors.New("unable to parse date")
	ErrValueParse    = errors.New("unable to parse numeric value")
	ErrDuplicateDate = errors.New("duplicate date")
	ErrLeadingGap    = errors.New("series starts without an observed value")
	ErrSpanTooLong   = errors.New("series spans too many days")
)

const (
	DateColumn  = 0
	ValueColumn = 1

	// MaxSpanDays bounds the daily calendar built from the first to the last date.
	MaxSpanDays = 100 * 366
)

var missingTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"nan":  {},
	"null": {},
	"n/a":  {},
}

// Record is a single parsed row of the uploaded table. Row is the 1-based line of the source.
type Record struct {
	Row   int
	Date  time.Time
	Value float64
}

// ReadCSV parses comma separated text where the first column holds a calendar date and the second
// a numeric observation. Column names are never inspected; a first row is treated as the header
// only when neither its date nor its value cell parses. Empty or NA value cells are kept as missing
// (NaN) observations.
func ReadCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	var records []Record
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w, %w", ErrParse, err)
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("row %d has %d column(s) but at least 2 are required, %w", row, len(fields), ErrParse)
		}

		dateCell := fields[DateColumn]
		if row == 1 {
			dateCell = strings.TrimPrefix(dateCell, "\ufeff")
		}
		date, err := ParseDate(dateCell)
		if err != nil {
			if row == 1 && isHeaderCell(fields[ValueColumn]) {
				continue
			}
			return nil, fmt.Errorf("row %d: %q, %w", row, dateCell, ErrDateParse)
		}

		value, err := ParseValue(fields[ValueColumn])
		if err != nil {
			return nil, fmt.Errorf("row %d: %q, %w", row, fields[ValueColumn], ErrValueParse)
		}
		records = append(records, Record{Row: row, Date: date, Value: value})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no data rows, %w", ErrNoTrainingData)
	}
	return records, nil
}

// isHeaderCell reports whether a value cell of the first row reads as a column name
func isHeaderCell(s string) bool {
	s = strings.TrimSpace(s)
	if _, missing := missingTokens[strings.ToLower(s)]; missing {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err != nil
}

// ParseDate parses a date cell in any common layout and truncates it to the calendar day.
// Ambiguous slash separated dates are read month first, falling back to day first when the first
// number cannot be a month.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrDateParse
	}
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return time.Time{}, err
	}
	return TruncateDay(t), nil
}

// ParseValue parses a numeric cell. Missing markers return NaN without an error.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if _, missing := missingTokens[strings.ToLower(s)]; missing {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) {
		return 0, ErrValueParse
	}
	return v, nil
}

// NewDailyDataset sorts the records by date and reindexes them onto a contiguous daily calendar
// spanning the first and last date. Days without a record hold NaN.
func NewDailyDataset(records []Record) (*TimeDataset, error) {
	if len(records) == 0 {
		return nil, ErrNoTrainingData
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date.Equal(sorted[i-1].Date) {
			return nil, fmt.Errorf(
				"%s appears on rows %d and %d, %w",
				sorted[i].Date.Format(time.DateOnly), sorted[i-1].Row, sorted[i].Row, ErrDuplicateDate,
			)
		}
	}

	start := sorted[0].Date
	end := sorted[len(sorted)-1].Date
	span := DaysBetween(start, end) + 1
	if span > MaxSpanDays {
		return nil, fmt.Errorf(
			"%s to %s is %d days, above %d, %w",
			start.Format(time.DateOnly), end.Format(time.DateOnly), span, MaxSpanDays, ErrSpanTooLong,
		)
	}
	n := int(span)

	t := DailyRange(start, n)
	y := make([]float64, n)
	for i := range y {
		y[i] = math.NaN()
	}
	for _, rec := range sorted {
		y[DaysBetween(start, rec.Date)] = rec.Value
	}

	return &TimeDataset{T: t, Y: y}, nil
}

// Prepare runs the full preparation of an uploaded table: parse, reindex to a daily calendar and
// forward fill gaps. A series whose first days have no observed value is rejected rather than
// guessed.
func Prepare(r io.Reader) (*TimeDataset, error) {
	records, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	td, err := NewDailyDataset(records)
	if err != nil {
		return nil, err
	}
	filled := td.ForwardFill()

	gap := filled.LeadingGap()
	if gap == filled.Len() {
		return nil, fmt.Errorf("every value is missing, %w", ErrNoTrainingData)
	}
	if gap > 0 {
		return nil, fmt.Errorf(
			"%d day(s) from %s have no value to carry forward, %w",
			gap, filled.T[0].Format(time.DateOnly), ErrLeadingGap,
		)
	}
	return filled, nil
}
