package cbor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordicid/credcore/pkg/cbor"
)

// TestCanonicalMapOrdering covers the literal scenario: Map{"bb"->1,
// "a"->2} canonicalizes to ["a"->2, "bb"->1] since encode("a") is
// shorter than encode("bb").
func TestCanonicalMapOrdering(t *testing.T) {
	m := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("bb"), Value: cbor.NewUInt(1)},
		{Key: cbor.NewTStr("a"), Value: cbor.NewUInt(2)},
	})

	can := m.Canonicalize(false)
	require.True(t, can.IsCanonical())

	entries, ok := can.AsMap()
	require.True(t, ok)
	require.Len(t, entries, 2)

	k0, _ := entries[0].Key.AsString()
	k1, _ := entries[1].Key.AsString()
	require.Equal(t, "a", k0)
	require.Equal(t, "bb", k1)
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	m := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("zz"), Value: cbor.NewUInt(1)},
		{Key: cbor.NewTStr("a"), Value: cbor.NewUInt(2)},
		{Key: cbor.NewTStr("bb"), Value: cbor.NewUInt(3)},
	})

	once := m.Canonicalize(false)
	twice := once.Canonicalize(false)
	require.True(t, once.Equal(twice))
}

func TestCanonicalizeRecursesIntoNestedMaps(t *testing.T) {
	inner := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("zz"), Value: cbor.NewUInt(1)},
		{Key: cbor.NewTStr("a"), Value: cbor.NewUInt(2)},
	})
	outer := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("inner"), Value: inner},
	})

	can := outer.Canonicalize(true)
	entries, _ := can.AsMap()
	innerEntries, ok := entries[0].Value.AsMap()
	require.True(t, ok)
	k0, _ := innerEntries[0].Key.AsString()
	require.Equal(t, "a", k0)
}

func TestKeyLessOrdersByLengthThenBytes(t *testing.T) {
	require.True(t, cbor.KeyLess(cbor.NewTStr("a"), cbor.NewTStr("bb")))
	require.False(t, cbor.KeyLess(cbor.NewTStr("bb"), cbor.NewTStr("a")))
	require.True(t, cbor.KeyLess(cbor.NewTStr("a"), cbor.NewTStr("b")))
}
