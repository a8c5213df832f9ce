package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dar-go/dar/archive"
	"github.com/dar-go/dar/dconfig"
	"github.com/dar-go/dar/derr"
	"github.com/dar-go/dar/dpath"
	"github.com/dar-go/dar/policy"
	"github.com/dar-go/dar/sar"
	"github.com/dar-go/dar/uiface"
)

// app holds every flag cmd/dar's subcommands share, bound once on the
// root command and read from each subcommand's RunE. Modeled on
// gcsfuse's cmd/root.go (rootCmd.PersistentFlags(), one bound-flags
// struct), without gcsfuse's viper layer: viper is not one of this
// repo's dependencies, and dar's flag set is small and static enough
// that pflag alone (as dconfig.Options.RegisterFlags already assumes)
// covers it.
type app struct {
	options dconfig.Options

	ext       string
	minDigits int
	hashAlgo  string
	firstSize int64
	restSize  int64

	compression string
	keyRegistry string
	policyName  string

	include []string
	exclude []string
	prune   []string
	subtree string

	batch     bool
	batchData string
	batchEA   string
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "dar",
		Short:         "disk archive backup and restore engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	a.registerPersistentFlags(root.PersistentFlags())
	root.AddCommand(
		a.newCreateCommand(),
		a.newExtractCommand(),
		a.newListCommand(),
		a.newTestCommand(),
		a.newDiffCommand(),
		a.newMergeCommand(),
		a.newIsolateCommand(),
		a.newCompareCommand(),
	)
	return root
}

// registerPersistentFlags binds every flag spec.md §6's CLI surface
// names that this implementation wires to something real. --fsa-scope
// and -A/--ref-archive are deliberately not registered: FSA sets are
// never materialized on disk by this implementation (restore.go has no
// on-disk FSA representation to scope), and incremental create against
// a reference archive would need CreateConfig to support skipping
// unchanged files mid-walk, which it does not (see DESIGN.md).
func (a *app) registerPersistentFlags(fs *pflag.FlagSet) {
	a.options = dconfig.Default()
	a.options.RegisterFlags(fs)

	fs.StringVar(&a.ext, "ext", "dar", "slice filename extension")
	fs.IntVar(&a.minDigits, "min-digits", 1, "minimum digit width of slice numbers")
	fs.StringVar(&a.hashAlgo, "hash", "", "per-slice hash side-file algorithm (crc32, or empty to disable)")
	fs.Int64VarP(&a.firstSize, "first-size", "s", 0, "first slice size in bytes (0 = unbounded, single file)")
	fs.Int64VarP(&a.restSize, "rest-size", "S", 0, "subsequent slice size in bytes (defaults to first-size)")
	fs.StringVarP(&a.compression, "compression", "z", "", "compressor: gzip, zstd, or empty to disable")
	fs.StringVarP(&a.keyRegistry, "key-registry", "K", "", "encryption key registry name (e.g. passwd-aes); empty disables encryption")
	fs.StringVarP(&a.policyName, "policy", "/", "", "overwriting policy: preserve or overwrite (command picks its own default when empty)")
	fs.StringArrayVarP(&a.include, "include", "I", nil, "glob of archive paths to include; repeatable")
	fs.StringArrayVarP(&a.exclude, "exclude", "X", nil, "glob of archive paths to exclude; repeatable")
	fs.StringArrayVarP(&a.prune, "prune", "P", nil, "glob of archive subtrees to prune; repeatable")
	fs.StringVarP(&a.subtree, "subtree", "g", "", "restrict the operation to one archive subtree")
	fs.BoolVar(&a.batch, "batch", false, "answer overwriting-policy escalations automatically instead of prompting the terminal")
	fs.StringVar(&a.batchData, "batch-data", "keep", "batch mode's data answer: keep or overwrite")
	fs.StringVar(&a.batchEA, "batch-ea", "keep", "batch mode's EA answer: keep or overwrite")
}

func (a *app) validate() error {
	if err := a.options.Validate(); err != nil {
		return err
	}
	if a.minDigits < 1 {
		return usageError{derr.E(derr.Range, "--min-digits must be >= 1")}
	}
	return nil
}

// sliceSizes returns the (first, rest) sizes to pass to sar.WriterConfig,
// applying dar's "rest-size defaults to first-size" convention.
func (a *app) sliceSizes() (first, rest int64) {
	first = a.firstSize
	rest = a.restSize
	if rest == 0 {
		rest = first
	}
	return first, rest
}

func (a *app) store(basename string) *sar.FileSliceStore {
	return &sar.FileSliceStore{Basename: basename, Ext: a.ext, MinDigits: a.minDigits}
}

// sarReader opens a read-side SAR stream over basename, shared by test,
// extract, and merge.
func sarReader(a *app, basename string) (*sar.Reader, error) {
	return sar.NewReader(sar.ReaderConfig{
		Store:      a.store(basename),
		Basename:   basename,
		Ext:        a.ext,
		MinDigits:  a.minDigits,
		Interactor: a.interactor(),
	})
}

func (a *app) interactor() uiface.Interactor {
	if a.batch {
		return uiface.NewBatch(parseDataChoice(a.batchData), parseEAChoice(a.batchEA))
	}
	return uiface.NewCLI(os.Stdin, os.Stderr)
}

func parseDataChoice(s string) uiface.DataChoice {
	if s == "overwrite" {
		return uiface.DataOverwrite
	}
	return uiface.DataKeep
}

func parseEAChoice(s string) uiface.EAChoice {
	if s == "overwrite" {
		return uiface.EAOverwrite
	}
	return uiface.EAKeep
}

// codec maps the --compression flag value to an archive.Codec,
// rejecting anything archive/pipeline.go's compress step cannot dispatch.
func (a *app) codec() (archive.Codec, error) {
	switch archive.Codec(a.compression) {
	case archive.CodecNone, archive.CodecGzip, archive.CodecZstd:
		return archive.Codec(a.compression), nil
	default:
		return "", usageError{derr.E(derr.Feature, "unsupported --compression "+a.compression)}
	}
}

// policyByName resolves the -/ flag to a policy.Policy, falling back to
// def when unset.
func policyByName(name string, def policy.Policy) (policy.Policy, error) {
	switch name {
	case "":
		return def, nil
	case "preserve":
		return policy.PreserveAll, nil
	case "overwrite":
		return policy.OverwriteAll, nil
	default:
		return nil, usageError{derr.E(derr.Range, "unknown --policy "+name+": want preserve or overwrite")}
	}
}

// selectFunc builds the Select predicate archive.RestoreConfig and the
// walk-filtering commands use from -I/-X/-P/-g: included unless excluded
// or pruned, and (when -g is set) confined to that subtree.
func (a *app) selectFunc() func(path string) bool {
	if len(a.include) == 0 && len(a.exclude) == 0 && len(a.prune) == 0 && a.subtree == "" {
		return nil
	}
	include := append([]string(nil), a.include...)
	exclude := append([]string(nil), a.exclude...)
	prune := append([]string(nil), a.prune...)
	subtree := a.subtree
	return func(path string) bool {
		if subtree != "" && path != subtree && !strings.HasPrefix(path, subtree+"/") {
			return false
		}
		p := dpath.New(path)
		for _, pat := range prune {
			if ok, _ := p.Glob(pat); ok {
				return false
			}
		}
		for _, pat := range exclude {
			if ok, _ := p.Glob(pat); ok {
				return false
			}
		}
		if len(include) == 0 {
			return true
		}
		for _, pat := range include {
			if ok, _ := p.Glob(pat); ok {
				return true
			}
		}
		return false
	}
}

// requireArgs renders a positional argument count mismatch as a
// usageError (exit code 1), not the generic 2 every other failure gets.
func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return usageError{derr.E(derr.Range, "want "+strconv.Itoa(n)+" argument(s): "+usage)}
	}
	return nil
}
