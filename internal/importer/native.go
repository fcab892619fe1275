package importer

import (
	"io"
	"slices"
	"strings"

	"github.com/cleared-dev/hubtab/internal/model"
	"github.com/cleared-dev/hubtab/internal/store/csvstore"
)

// NativeParser reads files in hubtab's own ledger CSV layout, e.g. a copy
// of another repo's ledger/transactions.csv.
type NativeParser struct{}

// Format returns the parser name.
func (p *NativeParser) Format() string { return "native" }

// Detect matches csvstore's header exactly.
func (p *NativeParser) Detect(header []string) bool {
	got := make([]string, len(header))
	for i, h := range header {
		got[i] = normalizeHeader(h)
	}
	return slices.Equal(got, strings.Split(csvstore.Header, ","))
}

// Parse reads rows with csvstore's codec.
func (p *NativeParser) Parse(r io.Reader) ([]model.Transaction, error) {
	return csvstore.ReadRows(r)
}
