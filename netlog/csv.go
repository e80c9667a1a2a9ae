package netlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
)

var csvHeader = []string{"seq", "time", "kind", "transition", "place", "tokens", "detail"}

// CSVWriter streams events as CSV rows. The header row is written on the
// first event.
type CSVWriter struct {
	mu          sync.Mutex
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter wraps a writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write appends one event row and flushes.
func (w *CSVWriter) Write(event Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.wroteHeader {
		if err := w.w.Write(csvHeader); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		w.wroteHeader = true
	}
	row := []string{
		strconv.FormatUint(event.Seq, 10),
		event.Time.Format(time.RFC3339Nano),
		string(event.Kind),
		event.Transition,
		event.Place,
		strconv.FormatUint(event.Tokens, 10),
		event.Detail,
	}
	if err := w.w.Write(row); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	w.w.Flush()
	return w.w.Error()
}

// Record writes an event, dropping failures. It has the signature expected
// by the engine's OnEvent registration.
func (w *CSVWriter) Record(event Event) {
	_ = w.Write(event)
}

// ParseCSV reads events back from a CSV stream written by CSVWriter.
func ParseCSV(r io.Reader) ([]Event, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("unexpected header with %d columns", len(header))
	}

	var events []Event
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		event, err := rowToEvent(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// ParseCSVFile reads events from a CSV file.
func ParseCSVFile(filename string) ([]Event, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

func rowToEvent(row []string) (Event, error) {
	if len(row) != len(csvHeader) {
		return Event{}, fmt.Errorf("unexpected row with %d columns", len(row))
	}
	seq, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("invalid seq %q: %w", row[0], err)
	}
	ts, err := time.Parse(time.RFC3339Nano, row[1])
	if err != nil {
		return Event{}, fmt.Errorf("invalid time %q: %w", row[1], err)
	}
	tokens, err := strconv.ParseUint(row[5], 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("invalid tokens %q: %w", row[5], err)
	}
	return Event{
		Seq:        seq,
		Time:       ts,
		Kind:       Kind(row[2]),
		Transition: row[3],
		Place:      row[4],
		Tokens:     tokens,
		Detail:     row[6],
	}, nil
}
