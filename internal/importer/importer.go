// Package importer turns CSV exports from other tools into transaction
// rows for Session.Import.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cleared-dev/hubtab/internal/model"
)

// Parser converts an exported CSV file into transactions, in file order.
type Parser interface {
	Format() string
	// Detect reports whether a file starting with header is in this
	// parser's layout.
	Detect(header []string) bool
	Parse(r io.Reader) ([]model.Transaction, error)
}

// FormatAuto selects the parser from the file's header row.
const FormatAuto = "auto"

// Registry holds parsers in detection order.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry. Earlier parsers win detection ties.
// Panics on duplicate format.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{}
	for _, p := range parsers {
		if _, ok := r.Lookup(p.Format()); ok {
			panic("duplicate parser format: " + p.Format())
		}
		r.parsers = append(r.parsers, p)
	}
	return r
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	return NewRegistry(&NativeParser{}, &SheetsParser{})
}

// Lookup finds a parser by format name, ignoring case.
func (r *Registry) Lookup(format string) (Parser, bool) {
	for _, p := range r.parsers {
		if strings.EqualFold(p.Format(), format) {
			return p, true
		}
	}
	return nil, false
}

// Formats lists format names in detection order.
func (r *Registry) Formats() []string {
	out := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		out[i] = p.Format()
	}
	return out
}

// Detect returns the first parser that recognizes header.
func (r *Registry) Detect(header []string) (Parser, bool) {
	for _, p := range r.parsers {
		if p.Detect(header) {
			return p, true
		}
	}
	return nil, false
}

// ParseFile parses path with the named parser, or with the detected one
// when format is empty or FormatAuto. It also returns the format used.
func (r *Registry) ParseFile(format, path string) ([]model.Transaction, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	p, err := r.choose(format, data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	txs, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("parsing %s as %s: %w", filepath.Base(path), p.Format(), err)
	}
	return txs, p.Format(), nil
}

func (r *Registry) choose(format string, data []byte) (Parser, error) {
	if format != "" && format != FormatAuto {
		p, ok := r.Lookup(format)
		if !ok {
			return nil, fmt.Errorf("unknown import format %q (have %s)", format, strings.Join(r.Formats(), ", "))
		}
		return p, nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file, cannot detect format")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	p, ok := r.Detect(header)
	if !ok {
		return nil, fmt.Errorf("no import format recognizes header %v", header)
	}
	return p, nil
}

// normalizeHeader lowercases and trims a header cell, dropping a UTF-8 BOM.
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// Inbox is the import/ directory of a ledger repo. Files dropped there are
// imported once and then moved to import/processed/.
type Inbox struct {
	dir string
}

// NewInbox returns the inbox of the repo at root.
func NewInbox(root string) Inbox {
	return Inbox{dir: filepath.Join(root, "import")}
}

// Dir is the inbox directory.
func (in Inbox) Dir() string { return in.dir }

// ProcessedDir is where imported files end up.
func (in Inbox) ProcessedDir() string { return filepath.Join(in.dir, "processed") }

// Pending returns the paths of CSV files waiting in the inbox, sorted by
// name. A missing inbox has nothing pending.
func (in Inbox) Pending() ([]string, error) {
	entries, err := os.ReadDir(in.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(in.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Done moves path into the processed directory and returns its new
// location. A file already there under the same name is left alone; the
// newcomer gets a numeric suffix.
func (in Inbox) Done(path string) (string, error) {
	dst := in.ProcessedDir()
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	target := filepath.Join(dst, name)
	for n := 2; ; n++ {
		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			break
		}
		target = filepath.Join(dst, stem+"-"+strconv.Itoa(n)+ext)
	}

	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("moving %s to processed: %w", name, err)
	}
	return target, nil
}
