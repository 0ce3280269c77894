package daemon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	req := &Request{
		Roots:          []string{"sys_open", "sys_close"},
		RootPatterns:   []string{"sys_*"},
		Reverse:        true,
		Depth:          3,
		Ignore:         []string{"printk"},
		IgnorePatterns: []string{"debug_*"},
		Show:           []string{"getname"},
		ShowPatterns:   []string{"security_*"},
		Trim:           true,
		NoExtern:       true,
		EndFunc:        "panic",
		AllLocs:        true,
		Output:         "/tmp/open.svg",
		Format:         "svg",
		Font:           "Courier",
		FontSize:       10,
		RankDir:        "TB",
		KeepDot:        true,
		StatusPath:     "/tmp/status.log",
	}

	decoded, err := Decode(req.Encode())
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestRequestWireShape(t *testing.T) {
	req := &Request{Roots: []string{"a", "b"}, Depth: -1}
	record := req.Encode()

	// Fixed field order, fixed delimiter, lists semicolon-joined.
	assert.Equal(t, numFields, len(strings.Split(record, FieldSep)))
	assert.True(t, strings.HasPrefix(record, "a;b"+FieldSep))
	assert.NotContains(t, record, "\n")
}

func TestDecodeEmptyLists(t *testing.T) {
	req := &Request{Depth: -1}
	decoded, err := Decode(req.Encode())
	require.NoError(t, err)
	assert.Nil(t, decoded.Roots)
	assert.Nil(t, decoded.IgnorePatterns)
}

func TestDecodeBadRecords(t *testing.T) {
	t.Run("wrong field count", func(t *testing.T) {
		_, err := Decode("just:::three:::fields")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("bad depth", func(t *testing.T) {
		record := (&Request{Depth: -1}).Encode()
		record = strings.Replace(record, FieldSep+"-1"+FieldSep, FieldSep+"deep"+FieldSep, 1)
		_, err := Decode(record)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBadRequest)
	})
}
