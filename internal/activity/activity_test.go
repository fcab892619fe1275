package activity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func entryAt(minutes int, action string, records int) Entry {
	return Entry{
		Timestamp:  t0.Add(time.Duration(minutes) * time.Minute),
		Action:     action,
		Details:    "even 3000 for X, Y",
		Records:    records,
		CommitHash: "abc1234",
	}
}

func TestAppend_HeaderOnce(t *testing.T) {
	log := Open(t.TempDir())
	require.NoError(t, log.Append(entryAt(0, "borrow", 2)))

	settle := entryAt(1, "settle", 0)
	settle.CommitHash = ""
	require.NoError(t, log.Append(settle))

	entries, err := log.Entries(Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "borrow", entries[0].Action)
	assert.Equal(t, 2, entries[0].Records)
	assert.Equal(t, "settle", entries[1].Action)
	assert.Empty(t, entries[1].CommitHash)

	data, err := os.ReadFile(log.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), Header), "header written once")
	assert.Contains(t, string(data), "2025-01-15T10:30:00Z,borrow,\"even 3000 for X, Y\",2,abc1234")
}

func TestEntries_RoundTripsTimestamp(t *testing.T) {
	log := Open(t.TempDir())
	want := entryAt(5, "repay", 1)
	require.NoError(t, log.Append(want))

	entries, err := log.Entries(Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, want.Timestamp.Equal(entries[0].Timestamp))
	assert.Equal(t, want.Details, entries[0].Details)
}

func TestEntries_Filter(t *testing.T) {
	log := Open(t.TempDir())
	require.NoError(t, log.Append(
		entryAt(0, "borrow", 2),
		entryAt(1, "repay", 1),
		entryAt(2, "borrow", 1),
		entryAt(3, "undo", 1),
		entryAt(4, "borrow", 3),
	))

	got, err := log.Entries(Filter{Action: "borrow"})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = log.Entries(Filter{Since: t0.Add(2 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "borrow", got[0].Action)

	got, err = log.Entries(Filter{Action: "borrow", Last: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Records)
	assert.Equal(t, 3, got[1].Records)
}

func TestEntries_MissingOrHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	entries, err := Open(dir).Entries(Filter{})
	require.NoError(t, err)
	assert.Nil(t, entries)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, RelPath), []byte(Header+"\n"), 0o644))
	entries, err = Open(dir).Entries(Filter{})
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestParseRecord_Errors(t *testing.T) {
	_, err := parseRecord([]string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 5 fields")

	rec := entryAt(0, "borrow", 2).record()
	rec[3] = "many"
	_, err = parseRecord(rec)
	assert.Error(t, err)
}

func TestEntries_CorruptLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "logs"), 0o755))
	content := Header + "\nyesterday,borrow,x,1,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, RelPath), []byte(content), 0o644))

	_, err := Open(dir).Entries(Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
