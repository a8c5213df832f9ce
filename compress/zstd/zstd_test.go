package zstd_test

import (
	"flag"
	"io/ioutil"
	"os"
	"testing"

	"bytes"
	"io"

	"github.com/dar-go/dar/compress/zstd"
	"github.com/stretchr/testify/require"
)

func TestCompress(t *testing.T) {
	z, err := zstd.CompressLevel(nil, []byte("hello"), -1)
	require.NoError(t, err)
	require.Greater(t, len(z), 0)
	d, err := zstd.Decompress(nil, z)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), d)
}

func TestCompressScratch(t *testing.T) {
	z, err := zstd.CompressLevel(make([]byte, 3), []byte("hello"), -1)
	require.NoError(t, err)
	require.Greater(t, len(z), 0)
	d, err := zstd.Decompress(make([]byte, 3), z)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), d)
}

func TestReadWrite(t *testing.T) {
	buf := bytes.Buffer{}
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = io.WriteString(w, "hello2")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := zstd.NewReader(&buf)
	require.NoError(t, err)
	d, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, []byte("hello2"), d)
}

var plaintextFlag = flag.String("plaintext", "", "plaintext file used in compression test")

func BenchmarkCompress(b *testing.B) {
	if *plaintextFlag == "" {
		b.Skip("--plaintext not set")
	}

	for i := 0; i < b.N; i++ {
		buf := bytes.Buffer{}
		w, err := zstd.NewWriter(&buf)
		require.NoError(b, err)
		r, err := os.Open(*plaintextFlag)
		require.NoError(b, err)
		_, err = io.Copy(w, r)
		require.NoError(b, err)
		require.NoError(b, w.Close())
		require.NoError(b, r.Close())
	}
}

func BenchmarkUncompress(b *testing.B) {
	if *plaintextFlag == "" {
		b.Skip("--plaintext not set")
	}

	b.StopTimer()
	buf := bytes.Buffer{}
	w, err := zstd.NewWriter(&buf)
	require.NoError(b, err)
	r, err := os.Open(*plaintextFlag)
	require.NoError(b, err)
	_, err = io.Copy(w, r)
	require.NoError(b, err)
	require.NoError(b, w.Close())
	require.NoError(b, r.Close())
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		zr, err := zstd.NewReader(bytes.NewReader(buf.Bytes()))
		require.NoError(b, err)

		w := bytes.Buffer{}
		_, err = io.Copy(&w, zr)
		require.NoError(b, err)
		require.NoError(b, zr.Close())
	}
}
