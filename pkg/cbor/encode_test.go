package cbor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordicid/credcore/pkg/cbor"
)

// TestEncodePositiveInteger covers the literal scenario of positive
// integers crossing each additional-info boundary.
func TestEncodePositiveInteger(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{10, []byte{0x0A}},
		{100, []byte{0x18, 0x64}},
		{1000, []byte{0x19, 0x03, 0xE8}},
	}
	for _, c := range cases {
		got := cbor.Encode(cbor.NewUInt(c.v))
		require.Equal(t, c.want, got)
		require.Equal(t, len(c.want), cbor.EncodedSize(cbor.NewUInt(c.v)))
	}
}

func TestEncodeNegativeInteger(t *testing.T) {
	// NINT wire value is -1-n: encoding -10 yields addl 9.
	got := cbor.Encode(cbor.NewNInt(-10))
	require.Equal(t, []byte{0x29}, got)
}

func TestEncodeByteAndTextStrings(t *testing.T) {
	bstr := cbor.Encode(cbor.NewBStr([]byte{0x01, 0x02, 0x03}))
	require.Equal(t, []byte{0x43, 0x01, 0x02, 0x03}, bstr)

	tstr := cbor.Encode(cbor.NewTStr("IETF"))
	require.Equal(t, []byte{0x64, 'I', 'E', 'T', 'F'}, tstr)
}

func TestEncodeArrayAndMap(t *testing.T) {
	arr := cbor.NewArray([]cbor.Item{cbor.NewUInt(1), cbor.NewUInt(2), cbor.NewUInt(3)})
	require.Equal(t, []byte{0x83, 0x01, 0x02, 0x03}, cbor.Encode(arr))

	m := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("a"), Value: cbor.NewUInt(1)},
	})
	require.Equal(t, []byte{0xA1, 0x61, 'a', 0x01}, cbor.Encode(m))
}

func TestEncodeTagAndSimple(t *testing.T) {
	tag := cbor.NewTag(24, cbor.NewBStr([]byte{0xAA}))
	require.Equal(t, []byte{0xD8, 0x18, 0x41, 0xAA}, cbor.Encode(tag))

	require.Equal(t, []byte{0xF4}, cbor.Encode(cbor.NewBool(false)))
	require.Equal(t, []byte{0xF5}, cbor.Encode(cbor.NewBool(true)))
	require.Equal(t, []byte{0xF6}, cbor.Encode(cbor.Null()))
}

func TestEncodeIntoReportsBufferTooShort(t *testing.T) {
	it := cbor.NewUInt(1000)
	dst := make([]byte, 2)
	_, err := cbor.EncodeInto(dst, 0, it)
	require.ErrorIs(t, err, cbor.ErrBufferTooShort)

	dst = make([]byte, 3)
	n, err := cbor.EncodeInto(dst, 0, it)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{0x19, 0x03, 0xE8}, dst)
}

func TestEncodeCallbackFeedsEveryByte(t *testing.T) {
	it := cbor.NewUInt(1000)
	var got []byte
	err := cbor.EncodeCallback(it, func(b byte) error {
		got = append(got, b)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, cbor.Encode(it), got)
}
