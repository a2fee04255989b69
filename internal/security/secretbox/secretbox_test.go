package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	t.Parallel()
	b, err := New(base64.StdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)

	ct, err := b.Seal("123-45-6789")
	require.NoError(t, err)
	require.True(t, IsSealed(ct))
	require.NotContains(t, ct, "6789")

	pt, err := b.Open(ct)
	require.NoError(t, err)
	require.Equal(t, "123-45-6789", pt)
}

func TestOpen_DetectsTamper(t *testing.T) {
	t.Parallel()
	b, err := New(hex.EncodeToString(testKey()))
	require.NoError(t, err)

	ct, err := b.Seal("top secret")
	require.NoError(t, err)
	parts := strings.Split(strings.TrimPrefix(ct, Prefix), "|")
	require.Len(t, parts, 2)

	bs, err := base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	bs[0] ^= 0x01
	corrupted := Prefix + parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	_, err = b.Open(corrupted)
	require.Error(t, err)
}

func TestOpen_PlainPassesThrough(t *testing.T) {
	t.Parallel()
	b, err := New(string(testKey()))
	require.NoError(t, err)

	pt, err := b.Open("1990-03-15")
	require.NoError(t, err)
	require.Equal(t, "1990-03-15", pt)

	empty, err := b.Seal("")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestNew_RejectsBadKeys(t *testing.T) {
	t.Parallel()
	for _, k := range []string{"", "short", base64.StdEncoding.EncodeToString([]byte("sixteen bytes!!!"))} {
		_, err := New(k)
		require.Error(t, err, k)
	}
}

func TestParseKey_RawKeyWithWhitespaceEdges(t *testing.T) {
	t.Parallel()
	raw := testKey()
	raw[0], raw[31] = ' ', '\n'

	got, err := ParseKey(string(raw))
	require.NoError(t, err)
	require.Equal(t, raw, got)

	// base64 con salto de línea final (copiado de openssl) sigue funcionando
	got, err = ParseKey(base64.StdEncoding.EncodeToString(testKey()) + "\n")
	require.NoError(t, err)
	require.Equal(t, testKey(), got)
}
