package compression

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterReader(t *testing.T) {
	original := []byte("hello backlog world")
	for _, algo := range []string{Gzip, Bzip2, None, ""} {
		t.Run(algo, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, algo)
			require.NoError(t, err)
			_, err = w.Write(original)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, algo)
			require.NoError(t, err)
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, original, out)
		})
	}
}

func TestUnsupported(t *testing.T) {
	_, err := NewWriter(io.Discard, "lzma")
	require.ErrorIs(t, err, ErrUnsupported)
	_, err = Encode([]byte("x"), "lzma")
	require.ErrorIs(t, err, ErrUnsupported)
	require.ErrorIs(t, Supported("lzma"), ErrUnsupported)
	require.NoError(t, Supported(Bzip2))
	_, err = Decode([]byte{0x7f, 1, 2})
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestEncodeDecode(t *testing.T) {
	payload := []byte(strings.Repeat("traced message body ", 500))

	for _, algo := range []string{Gzip, Bzip2, None} {
		enc, err := Encode(payload, algo)
		require.NoError(t, err)
		if algo != None {
			require.Less(t, len(enc), len(payload))
		}
		dec, err := Decode(enc)
		require.NoError(t, err)
		require.Equal(t, payload, dec)
	}

	dec, err := Decode(nil)
	require.NoError(t, err)
	require.Nil(t, dec)
}
