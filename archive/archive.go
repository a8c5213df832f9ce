// Package archive implements dar's orchestration layer: the linear,
// per-operation pipelines (create/test/list/diff/restore/merge/isolate)
// that wire fswalk, catalog, the compressor, the cipher and sar together,
// generalizing the teacher's cmdutil/runner.go "linear pipeline with
// cleanup" shape from one Run method to one state machine per operation.
package archive

import (
	"github.com/dar-go/dar/dconfig"
	"github.com/dar-go/dar/uiface"
)

// Codec names a compression algorithm usable by a Pipeline. The empty
// Codec disables compression.
type Codec string

const (
	CodecNone Codec = ""
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
)

func (c Codec) extension() string {
	switch c {
	case CodecGzip:
		return ".gz"
	case CodecZstd:
		return ".zst"
	default:
		return ""
	}
}

// Common holds the configuration every archive operation shares: the
// per-invocation knobs (dconfig.Options), the operator callback surface,
// and the data pipeline (compressor + cipher) applied to file payloads.
type Common struct {
	Options    dconfig.Options
	Interactor uiface.Interactor
	Pipeline   Pipeline
}

// Stats accumulates the counters spec.md §4.7 names per operation (CRC
// failures on test, dirty files on create, etc). Every operation returns
// one.
type Stats struct {
	EntriesWritten int
	EntriesRead    int
	BytesStored    int64
	CRCErrors      int
	DirtyFiles     int
	Warnings       []string
}

func (s *Stats) warn(msg string) { s.Warnings = append(s.Warnings, msg) }

// entryPath renders a catalog path the way list/diff/hook messages quote
// it: "/"-joined components with no leading slash, matching dpath.Path's
// relative String() form.
func entryPath(components []string) string {
	out := ""
	for i, c := range components {
		if i > 0 {
			out += "/"
		}
		out += c
	}
	return out
}
