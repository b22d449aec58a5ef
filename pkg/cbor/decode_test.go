package cbor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordicid/credcore/pkg/cbor"
)

func TestRoundTripPrimitives(t *testing.T) {
	items := []cbor.Item{
		cbor.NewUInt(10),
		cbor.NewUInt(100),
		cbor.NewUInt(1000),
		cbor.NewNInt(-10),
		cbor.NewBStr([]byte{0x01, 0x02, 0x03}),
		cbor.NewTStr("IETF"),
		cbor.NewBool(true),
		cbor.NewBool(false),
		cbor.Null(),
	}
	for _, it := range items {
		enc := cbor.Encode(it)
		got, end, err := cbor.ParseTree(enc, false)
		require.NoError(t, err)
		require.Equal(t, len(enc), end)
		require.True(t, it.Equal(got), "round trip mismatch for %v", it)
	}
}

func TestRoundTripArrayMapTag(t *testing.T) {
	arr := cbor.NewArray([]cbor.Item{cbor.NewUInt(1), cbor.NewTStr("x")})
	m := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("a"), Value: cbor.NewUInt(1)},
		{Key: cbor.NewTStr("bb"), Value: cbor.NewUInt(2)},
	})
	tag := cbor.NewTag(1004, cbor.NewTStr("2023-01-01"))

	for _, it := range []cbor.Item{arr, m, tag} {
		enc := cbor.Encode(it)
		got, end, err := cbor.ParseTree(enc, false)
		require.NoError(t, err)
		require.Equal(t, len(enc), end)
		require.True(t, it.Equal(got))
	}
}

func TestParseEmitsViews(t *testing.T) {
	enc := cbor.Encode(cbor.NewTStr("hello"))
	got, _, err := cbor.ParseTree(enc, true)
	require.NoError(t, err)
	require.Equal(t, cbor.KindTStrView, got.Kind())
	s, ok := got.AsString()
	require.True(t, ok)
	require.Equal(t, "hello", s)
}

func TestParseEmptyInput(t *testing.T) {
	_, _, err := cbor.ParseTree(nil, false)
	require.ErrorIs(t, err, cbor.ErrEmptyInput)
}

func TestParseBufferTooShort(t *testing.T) {
	// A UINT header claiming a 1-byte tail with no payload present.
	_, _, err := cbor.ParseTree([]byte{0x18}, false)
	require.ErrorIs(t, err, cbor.ErrBufferTooShort)
}

func TestParseReservedAdditionalInfo(t *testing.T) {
	_, _, err := cbor.ParseTree([]byte{0x1C}, false) // major 0, addl 28
	require.ErrorIs(t, err, cbor.ErrReservedAdditionalInfo)
}

func TestParseUnsupportedSimple(t *testing.T) {
	_, _, err := cbor.ParseTree([]byte{0xE0}, false) // major 7, addl 0
	require.ErrorIs(t, err, cbor.ErrUnsupportedSimple)
}

func TestParseDepthExceeded(t *testing.T) {
	// Build 1001 nested single-element arrays: 0x81 repeated, terminated
	// by one UINT.
	buf := make([]byte, 0, 1002)
	for i := 0; i < 1001; i++ {
		buf = append(buf, 0x81)
	}
	buf = append(buf, 0x00)
	_, _, err := cbor.ParseTree(buf, false)
	require.ErrorIs(t, err, cbor.ErrDepthExceeded)
}

func TestParseIndefiniteArray(t *testing.T) {
	// Indefinite array [_ 1, 2] = 0x9F 01 02 FF
	buf := []byte{0x9F, 0x01, 0x02, 0xFF}
	got, end, err := cbor.ParseTree(buf, false)
	require.NoError(t, err)
	require.Equal(t, 4, end)
	elems, ok := got.AsArray()
	require.True(t, ok)
	require.Len(t, elems, 2)
}

func TestParseIndefiniteMapOddEntries(t *testing.T) {
	// Indefinite map {_ "a": } missing a value before break.
	buf := []byte{0xBF, 0x61, 'a', 0xFF}
	_, _, err := cbor.ParseTree(buf, false)
	require.ErrorIs(t, err, cbor.ErrNotEnoughEntries)
}

type collectingVisitor struct {
	items []cbor.Item
}

func (v *collectingVisitor) Item(item cbor.Item, hdrBegin, valueBegin, end int) cbor.Visitor {
	v.items = append(v.items, item)
	return v
}

func (v *collectingVisitor) ItemEnd(container cbor.Item, hdrBegin, valueBegin, end int) cbor.Visitor {
	v.items = append(v.items, container)
	return v
}

func (v *collectingVisitor) Error(pos int, message string) {}

func TestParseStreamingVisitsLeavesThenContainer(t *testing.T) {
	arr := cbor.NewArray([]cbor.Item{cbor.NewUInt(1), cbor.NewUInt(2)})
	enc := cbor.Encode(arr)

	v := &collectingVisitor{}
	end, err := cbor.ParseStreaming(enc, false, v)
	require.NoError(t, err)
	require.Equal(t, len(enc), end)
	require.Len(t, v.items, 3)
	require.True(t, v.items[0].Equal(cbor.NewUInt(1)))
	require.True(t, v.items[1].Equal(cbor.NewUInt(2)))
	require.Equal(t, cbor.KindArray, v.items[2].Kind())
}

type abortingVisitor struct {
	count int
}

func (v *abortingVisitor) Item(item cbor.Item, hdrBegin, valueBegin, end int) cbor.Visitor {
	v.count++
	return nil
}

func (v *abortingVisitor) ItemEnd(container cbor.Item, hdrBegin, valueBegin, end int) cbor.Visitor {
	v.count++
	return nil
}

func (v *abortingVisitor) Error(pos int, message string) {}

func TestParseStreamingAbortsOnNilVisitor(t *testing.T) {
	arr := cbor.NewArray([]cbor.Item{cbor.NewUInt(1), cbor.NewUInt(2)})
	enc := cbor.Encode(arr)

	v := &abortingVisitor{}
	_, err := cbor.ParseStreaming(enc, false, v)
	require.ErrorIs(t, err, cbor.ErrAborted)
	require.Equal(t, 1, v.count)
}
