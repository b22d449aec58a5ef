package cbor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordicid/credcore/pkg/cbor"
)

func TestPrettyOmitsNamedKeys(t *testing.T) {
	m := cbor.NewMap([]cbor.MapEntry{
		{Key: cbor.NewTStr("salt"), Value: cbor.NewTStr("secretvalue")},
		{Key: cbor.NewTStr("name"), Value: cbor.NewTStr("family_name")},
	})
	out := cbor.Pretty(m, cbor.PrettyOptions{OmitKeys: []string{"salt"}})
	require.True(t, strings.Contains(out, "<omitted>"))
	require.False(t, strings.Contains(out, "secretvalue"))
	require.True(t, strings.Contains(out, "family_name"))
}

func TestPrettyTruncatesByteStrings(t *testing.T) {
	it := cbor.NewBStr([]byte{0x01, 0x02, 0x03, 0x04, 0x05})
	out := cbor.Pretty(it, cbor.PrettyOptions{MaxBytes: 2})
	require.True(t, strings.Contains(out, "0102"))
	require.True(t, strings.Contains(out, "5 bytes total"))
}
