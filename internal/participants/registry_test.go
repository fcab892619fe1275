package participants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DropsBlankAndDuplicates(t *testing.T) {
	r := New("X", "", "Y", "X", "  ")
	assert.Equal(t, []string{"X", "Y"}, r.Names())
	assert.Equal(t, 2, r.Len())
}

func TestAdd(t *testing.T) {
	r := New("X")
	require.NoError(t, r.Add("Y"))
	assert.True(t, r.Contains("Y"))

	assert.ErrorIs(t, r.Add("Y"), ErrDuplicate)
	assert.ErrorIs(t, r.Add(" "), ErrEmptyName)
	assert.Equal(t, []string{"X", "Y"}, r.Names())
}

func TestRename(t *testing.T) {
	r := New("X", "Y", "Z")

	require.NoError(t, r.Rename("Y", "W"))
	assert.Equal(t, []string{"X", "W", "Z"}, r.Names())
	assert.False(t, r.Contains("Y"))
	assert.True(t, r.Contains("W"))

	assert.ErrorIs(t, r.Rename("Q", "R"), ErrUnknown)
	assert.ErrorIs(t, r.Rename("X", "Z"), ErrDuplicate)
	assert.ErrorIs(t, r.Rename("X", ""), ErrEmptyName)
	require.NoError(t, r.Rename("X", "X"))
}

func TestNamesIsCopy(t *testing.T) {
	r := New("X")
	names := r.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"X"}, r.Names())
}

func TestDefaults(t *testing.T) {
	assert.Len(t, Defaults(), 2)
	assert.NotEmpty(t, DefaultLender)
}
