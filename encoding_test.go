package rotatelogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecordUTF8PassesThrough(t *testing.T) {
	enc, err := lookupEncoding("utf-8")
	require.NoError(t, err)
	out, err := encodeRecord("héllo", enc, PolicyIgnore)
	require.NoError(t, err)
	assert.Equal(t, "héllo", string(out))
}

func TestEncodeRecordIgnoreDropsUnmappableRunes(t *testing.T) {
	enc, err := lookupEncoding("latin1")
	require.NoError(t, err)
	// U+20AC (€) has no representation in latin-1.
	out, err := encodeRecord("a€b", enc, PolicyIgnore)
	require.NoError(t, err)
	assert.Equal(t, "ab", string(out))
}

func TestEncodeRecordStrictFailsOnUnmappableRune(t *testing.T) {
	enc, err := lookupEncoding("latin1")
	require.NoError(t, err)
	_, err = encodeRecord("a€b", enc, PolicyStrict)
	require.Error(t, err)
}

func TestEncodeRecordReplaceSubstitutesUnmappableRune(t *testing.T) {
	enc, err := lookupEncoding("latin1")
	require.NoError(t, err)
	out, err := encodeRecord("a€b", enc, PolicyReplace)
	require.NoError(t, err)
	assert.Equal(t, byte('a'), out[0])
	assert.Equal(t, byte('b'), out[len(out)-1])
}

func TestLookupEncodingRejectsUnknown(t *testing.T) {
	_, err := lookupEncoding("shift-jis-but-not-really")
	require.Error(t, err)
}

func TestEncodeRecordStrictAcceptsGenuineReplacementCharacter(t *testing.T) {
	enc, err := lookupEncoding("utf-8")
	require.NoError(t, err)
	// The record legitimately contains U+FFFD itself (e.g. produced by an
	// earlier lossy decode upstream); this is valid UTF-8 and must not be
	// rejected under the strict policy.
	out, err := encodeRecord("a�b", enc, PolicyStrict)
	require.NoError(t, err)
	assert.Equal(t, "a�b", string(out))
}

func TestEncodeRecordStrictRejectsActualInvalidUTF8(t *testing.T) {
	enc, err := lookupEncoding("utf-8")
	require.NoError(t, err)
	_, err = encodeRecord("a\xffb", enc, PolicyStrict)
	require.Error(t, err)
}
