package dconfig_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/dar-go/dar/dconfig"
)

func TestRegisterFlagsAndValidate(t *testing.T) {
	o := dconfig.Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.RegisterFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--min-compr-size=256",
		"--no-compress=*.jpg",
		"--no-compress=*.zip",
		"--retry-count=5",
		"--dirty-behaviour=ok",
		"--comparison-fields=mtime",
	}))
	require.NoError(t, o.Validate())

	require.Equal(t, int64(256), o.MinComprSize)
	require.Equal(t, 5, o.RetryCount)
	require.Equal(t, dconfig.DirtyOK, o.DirtyBehaviour)
	require.Equal(t, dconfig.CompareMtime, o.ComparisonFields)
	require.Len(t, o.NoCompressMask, 2)
}

func TestValidateRejectsBadEnum(t *testing.T) {
	o := dconfig.Default()
	o.DirtyBehaviour = "whenever"
	require.Error(t, o.Validate())

	o = dconfig.Default()
	o.ComparisonFields = "everything"
	require.Error(t, o.Validate())

	o = dconfig.Default()
	o.MinComprSize = -1
	require.Error(t, o.Validate())
}

func TestShouldCompress(t *testing.T) {
	o := dconfig.Default()
	o.MinComprSize = 100
	o.NoCompressMaskPatterns = []string{"*.jpg", "*.zip"}
	require.NoError(t, o.Validate())

	require.False(t, o.ShouldCompress(10, "small.txt"))
	require.True(t, o.ShouldCompress(1000, "doc.txt"))
	require.False(t, o.ShouldCompress(1000, "photo.jpg"))
}
