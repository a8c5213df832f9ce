package archive

import (
	"bufio"
	"context"

	"github.com/dar-go/dar/catalog"
	"github.com/dar-go/dar/dcrc"
	"github.com/dar-go/dar/sar"
)

// TestConfig configures the test pipeline: SAR -> decrypt -> decompress ->
// per-entry CRC verify (spec.md §4.7's test operation).
type TestConfig struct {
	Common
	Catalog *catalog.Catalog
	Reader  *sar.Reader
}

// Test reads every Saved file entry's data from cfg.Reader in catalogue
// order and verifies it against the entry's recorded CRC. A failed CRC
// increments Stats.CRCErrors and iteration continues, matching the
// "does not abort the whole pass" contract.
func Test(ctx context.Context, cfg TestConfig) (Stats, error) {
	t := &tester{cfg: cfg, br: bufio.NewReader(cfg.Reader)}
	err := t.dir(cfg.Catalog.Root)
	return t.stats, err
}

type tester struct {
	cfg   TestConfig
	br    *bufio.Reader
	stats Stats
}

func (t *tester) dir(e *catalog.Entry) error {
	for _, child := range e.Children {
		if err := t.entry(child); err != nil {
			return err
		}
	}
	return nil
}

func (t *tester) entry(e *catalog.Entry) error {
	switch e.Kind {
	case catalog.KindDirectory:
		return t.dir(e)
	case catalog.KindFile:
		return t.file(e)
	}
	return nil
}

func (t *tester) file(e *catalog.Entry) error {
	if e.SavedState != catalog.Saved {
		return nil
	}
	stored, err := readFramed(t.br)
	if err != nil {
		return err
	}
	t.stats.EntriesRead++

	dense, err := t.cfg.Pipeline.Decode(stored, e.Compression == catalog.CompressionUsed)
	if err != nil {
		t.stats.CRCErrors++
		t.stats.warn("archive: " + e.Name + " failed to decode: " + err.Error())
		return nil
	}
	data := reinflateHoles(dense, e.Holes, int64(e.Size.Uint64()))

	if e.DataCRC != nil {
		got := dcrc.New().Update(data)
		if !got.Equal(*e.DataCRC) {
			t.stats.CRCErrors++
			t.stats.warn("archive: " + e.Name + " CRC mismatch")
			return nil
		}
	}
	return nil
}
