// Package activity records what each ledger action did in
// logs/activity.csv, alongside the commit that captured it.
package activity

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp  time.Time
	Action     string // borrow, repay, transfer, settle, undo, import
	Details    string
	Records    int // rows appended (or removed, for undo)
	CommitHash string
}

// Header is the CSV header for activity.csv.
const Header = "timestamp,action,details,records,commit_hash"

// RelPath is the log location relative to the repo root.
var RelPath = filepath.Join("logs", "activity.csv")

var columns = strings.Split(Header, ",")

func (e Entry) record() []string {
	return []string{
		e.Timestamp.Format(time.RFC3339),
		e.Action,
		e.Details,
		strconv.Itoa(e.Records),
		e.CommitHash,
	}
}

func parseRecord(rec []string) (Entry, error) {
	if len(rec) != len(columns) {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", len(columns), len(rec))
	}
	ts, err := time.Parse(time.RFC3339, rec[0])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", rec[0], err)
	}
	n, err := strconv.Atoi(rec[3])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing records %q: %w", rec[3], err)
	}
	return Entry{Timestamp: ts, Action: rec[1], Details: rec[2], Records: n, CommitHash: rec[4]}, nil
}

// Filter narrows Entries. The zero Filter matches everything.
type Filter struct {
	Action string    // exact action name
	Since  time.Time // entries at or after this instant
	Last   int       // keep only the newest Last matches
}

func (f Filter) match(e Entry) bool {
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return f.Since.IsZero() || !e.Timestamp.Before(f.Since)
}

// Log is the activity log of one ledger repo.
type Log struct {
	path string
}

// Open returns the log under root. Nothing is touched on disk until the
// first Append.
func Open(root string) Log {
	return Log{path: filepath.Join(root, RelPath)}
}

// Path is the CSV file backing the log.
func (l Log) Path() string { return l.path }

// Append adds entries, creating the file with its header if needed.
func (l Log) Append(entries ...Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat activity log: %w", err)
	}

	cw := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := cw.Write(columns); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(e.record()); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Entries returns matching entries oldest first, or nil when the log does
// not exist yet.
func (l Log) Entries(f Filter) ([]Entry, error) {
	file, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer file.Close()

	all, err := decode(file)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range all {
		if f.match(e) {
			out = append(out, e)
		}
	}
	if f.Last > 0 && len(out) > f.Last {
		out = out[len(out)-f.Last:]
	}
	return out, nil
}

func decode(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(columns)

	var entries []Entry
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading activity CSV: %w", err)
		}
		if line == 1 {
			continue
		}
		e, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
}
