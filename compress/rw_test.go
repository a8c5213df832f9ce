package compress_test

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"io/ioutil"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/dar-go/dar/compress"
	"github.com/stretchr/testify/require"
	"github.com/klauspost/compress/zstd"
)

func testReader(t *testing.T, plaintext string, comp func(t *testing.T, in []byte) []byte) {
	compressed := comp(t, []byte(plaintext))
	cr := bytes.NewReader(compressed)
	r, n := compress.NewReader(cr)
	require.True(t, n)
	require.NotNil(t, r)
	got := bytes.Buffer{}
	_, err := io.Copy(&got, r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, plaintext, got.String())
}

// Generate a random ASCII text.
func randomText(buf *strings.Builder, r *rand.Rand, n int) {
	for i := 0; i < n; i++ {
		buf.WriteByte(byte(r.Intn(96) + 32))
	}
}

func gzipCompress(t *testing.T, in []byte) []byte {
	buf := bytes.Buffer{}
	w := gzip.NewWriter(&buf)
	_, err := io.Copy(w, bytes.NewReader(in))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func bzip2Compress(t *testing.T, in []byte) []byte {
	temp, err := ioutil.TempFile("", "test")
	require.NoError(t, err)
	_, err = temp.Write(in)
	require.NoError(t, err)
	require.NoError(t, temp.Close())
	cmd := exec.Command("bzip2", temp.Name())
	require.NoError(t, cmd.Run())

	compressed, err := ioutil.ReadFile(temp.Name() + ".bz2")
	require.NoError(t, err)
	require.NoError(t, os.Remove(temp.Name()+".bz2"))
	return compressed
}

func zstdCompress(t *testing.T, in []byte) []byte {
	buf := bytes.Buffer{}
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = io.Copy(w, bytes.NewReader(in))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

type compressor struct {
	fn  func(t *testing.T, in []byte) []byte
	ext string
}

var compressors = []compressor{
	{zstdCompress, "zst"},
	{gzipCompress, "gz"},
	{bzip2Compress, "bz2"},
}

func TestReaderSmall(t *testing.T) {
	for _, c := range compressors {
		t.Run(c.ext, func(t *testing.T) {
			testReader(t, "", c.fn)
			testReader(t, "hello", c.fn)
		})
		n := 1
		for i := 1; i < 25; i++ {
			t.Run(fmt.Sprint("format=", c.ext, ",n=", n), func(t *testing.T) {
				r := rand.New(rand.NewSource(int64(i)))
				n = (n + 1) * 3 / 2
				buf := strings.Builder{}
				randomText(&buf, r, n)
				testReader(t, buf.String(), c.fn)
			})
		}
	}
}

func TestGzipReaderUncompressed(t *testing.T) {
	data := make([]byte, 128<<10+1)
	got := bytes.Buffer{}

	runTest := func(t *testing.T, n int) {
		for i := range data[:n] {
			// gzip/bzip2 header contains at least one char > 128, so the plaintext should
			// never be conflated with a gzip header.
			data[i] = byte(n + i%128)
		}
		cr := bytes.NewReader(data[:n])
		r, compressed := compress.NewReader(cr)
		require.False(t, compressed)
		got.Reset()
		nRead, err := io.Copy(&got, r)
		require.NoError(t, err)
		require.Equal(t, n, int(nRead))
		require.NoError(t, r.Close())
		require.Equal(t, data[:n], got.Bytes())
	}

	dataSize := 1
	for dataSize <= len(data) {
		n := dataSize
		t.Run(fmt.Sprint(n), func(t *testing.T) { runTest(t, n) })
		t.Run(fmt.Sprint(n-1), func(t *testing.T) { runTest(t, n-1) })
		t.Run(fmt.Sprint(n+1), func(t *testing.T) { runTest(t, n+1) })
		dataSize *= 2
	}
}

func TestReaderWriterPath(t *testing.T) {
	for _, c := range compressors {
		t.Run(c.ext, func(t *testing.T) {
			if c.ext == "bz2" { // bz2 compression not yet supported
				t.Skip("bz2")
			}
			buf := bytes.Buffer{}
			w, compressed := compress.NewWriterPath(&buf, "foo."+c.ext)
			require.True(t, compressed)
			_, err := io.WriteString(w, "hello")
			require.NoError(t, w.Close())
			require.NoError(t, err)

			r, compressed := compress.NewReaderPath(&buf, "foo."+c.ext)
			require.True(t, compressed)
			data, err := ioutil.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, "hello", string(data))
			require.NoError(t, r.Close())
		})
	}
}

// NewReaderPath and NewWriterPath for non-compressed extensions.
func TestReaderWriterPathNop(t *testing.T) {
	buf := bytes.Buffer{}
	w, compressed := compress.NewWriterPath(&buf, "foo.txt")
	require.False(t, compressed)
	_, err := io.WriteString(w, "hello")
	require.NoError(t, w.Close())
	require.NoError(t, err)

	r, compressed := compress.NewReaderPath(&buf, "foo.txt")
	require.False(t, compressed)
	data, err := ioutil.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
	require.NoError(t, r.Close())
}
