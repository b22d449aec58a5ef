package cbor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordicid/credcore/pkg/cbor"
)

func TestBStrViewNeverEqualsBStr(t *testing.T) {
	owned := cbor.NewBStr([]byte("abc"))
	view := cbor.NewBStrView([]byte("abc"))

	require.False(t, owned.Equal(view))
	require.False(t, view.Equal(owned))
	require.True(t, owned.Equal(cbor.NewBStr([]byte("abc"))))
	require.True(t, view.Equal(cbor.NewBStrView([]byte("abc"))))
}

func TestTStrViewNeverEqualsTStr(t *testing.T) {
	owned := cbor.NewTStr("abc")
	view := cbor.NewTStrView("abc")

	require.False(t, owned.Equal(view))
	require.True(t, owned.Equal(cbor.NewTStr("abc")))
}

func TestSemanticTagChainOrder(t *testing.T) {
	// NewTag(outer, NewTag(inner, item)) chains two tag layers.
	leaf := cbor.NewUInt(7)
	inner := cbor.NewTag(24, leaf)
	outer := cbor.NewTag(1004, inner)

	require.Equal(t, 2, outer.SemanticTagCount())

	outerNum, ok := outer.SemanticTag(1)
	require.True(t, ok)
	require.Equal(t, uint64(1004), outerNum)

	innerNum, ok := outer.SemanticTag(0)
	require.True(t, ok)
	require.Equal(t, uint64(24), innerNum)

	_, ok = outer.SemanticTag(2)
	require.False(t, ok)

	num, ok := outer.TagNumber()
	require.True(t, ok)
	require.Equal(t, uint64(1004), num)

	require.Equal(t, cbor.MajorUint, outer.Type())
}

func TestNewNIntRejectsNonNegative(t *testing.T) {
	require.Panics(t, func() {
		cbor.NewNInt(0)
	})
}

func TestMapEqualityIsOrderSensitive(t *testing.T) {
	a := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("a"), Value: cbor.NewUInt(1)},
		{Key: cbor.NewTStr("b"), Value: cbor.NewUInt(2)},
	})
	b := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("b"), Value: cbor.NewUInt(2)},
		{Key: cbor.NewTStr("a"), Value: cbor.NewUInt(1)},
	})

	require.False(t, a.Equal(b))
	require.True(t, a.Equal(a))
}
