package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictPrecedence(t *testing.T) {
	reg, err := Compile(Spec{
		Ignore:         []string{"spin_lock"}, // also in the trim set
		IgnorePatterns: []string{"debug_*"},
		Trim:           true,
		NoExtern:       true,
	})
	require.NoError(t, err)

	// Extern exclusion runs first, even for names no other rule matches.
	assert.Equal(t, ExcludeExtern, reg.Verdict("some_extern", false))
	// Exact ignore beats the trim set for the same name.
	assert.Equal(t, ExcludeExact, reg.Verdict("spin_lock", true))
	assert.Equal(t, ExcludePattern, reg.Verdict("debug_print", true))
	assert.Equal(t, ExcludeTrim, reg.Verdict("mutex_lock", true))
	assert.Equal(t, Include, reg.Verdict("sys_open", true))
}

func TestVerdictExternInsertsIgnore(t *testing.T) {
	reg, err := Compile(Spec{NoExtern: true})
	require.NoError(t, err)

	assert.Equal(t, ExcludeExtern, reg.Verdict("helper", false))
	// Once excluded as extern, the name sits in the exact ignore set.
	_, ok := reg.ignore["helper"]
	assert.True(t, ok)
}

func TestTrimOnlyWhenEnabled(t *testing.T) {
	off, err := Compile(Spec{})
	require.NoError(t, err)
	assert.Equal(t, Include, off.Verdict("memset", true))

	on, err := Compile(Spec{Trim: true})
	require.NoError(t, err)
	assert.Equal(t, ExcludeTrim, on.Verdict("memset", true))
}

func TestIgnoreWinsOverShow(t *testing.T) {
	reg, err := Compile(Spec{
		Ignore: []string{"shared"},
		Show:   []string{"shared"},
	})
	require.NoError(t, err)

	// The verdict excludes the node; Shown is never consulted for it.
	assert.True(t, reg.Verdict("shared", true).Excluded())
}

func TestShown(t *testing.T) {
	reg, err := Compile(Spec{
		Show:         []string{"getname"},
		ShowPatterns: []string{"security_*"},
	})
	require.NoError(t, err)

	assert.True(t, reg.Shown("getname"))
	assert.True(t, reg.Shown("security_file_open"))
	assert.False(t, reg.Shown("sys_open"))
}

func TestCompileBadPattern(t *testing.T) {
	_, err := Compile(Spec{IgnorePatterns: []string{"[unclosed"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadPattern)

	_, err = Compile(Spec{ShowPatterns: []string{"[unclosed"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestTrimSetPopulated(t *testing.T) {
	assert.Greater(t, TrimSetSize(), 100)
}
