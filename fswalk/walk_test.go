package fswalk_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/dar-go/dar/dpath"
	"github.com/dar-go/dar/fswalk"
	"github.com/stretchr/testify/require"
)

func TestWalkBasic(t *testing.T) {
	tmp, err := ioutil.TempDir("", "fswalk-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmp)

	require.NoError(t, os.Mkdir(filepath.Join(tmp, "sub"), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(tmp, "a.txt"), []byte("hello"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(tmp, "sub", "b.txt"), []byte("world"), 0644))
	require.NoError(t, os.Symlink("a.txt", filepath.Join(tmp, "link")))

	var w fswalk.OSWalker
	c := w.Walk(dpath.New(tmp), fswalk.Options{})

	var kinds []fswalk.EventKind
	var names []string
	for c.Scan() {
		ev := c.Event()
		kinds = append(kinds, ev.Kind)
		names = append(names, ev.Path.Base())
	}
	require.NoError(t, c.Err())

	require.Equal(t, fswalk.EnterDir, kinds[0])
	require.Equal(t, fswalk.LeaveDir, kinds[len(kinds)-1])

	var sawFile, sawDir, sawSymlink bool
	for i, k := range kinds {
		switch k {
		case fswalk.RegularFile:
			sawFile = true
		case fswalk.EnterDir:
			if names[i] == "sub" {
				sawDir = true
			}
		case fswalk.Symlink:
			sawSymlink = true
			require.Equal(t, "link", names[i])
		}
	}
	require.True(t, sawFile)
	require.True(t, sawDir)
	require.True(t, sawSymlink)
}

func TestWalkHardLink(t *testing.T) {
	tmp, err := ioutil.TempDir("", "fswalk-hardlink-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmp)

	require.NoError(t, ioutil.WriteFile(filepath.Join(tmp, "orig"), []byte("data"), 0644))
	require.NoError(t, os.Link(filepath.Join(tmp, "orig"), filepath.Join(tmp, "alias")))

	var w fswalk.OSWalker
	c := w.Walk(dpath.New(tmp), fswalk.Options{})

	var regular, alias int
	for c.Scan() {
		ev := c.Event()
		switch ev.Kind {
		case fswalk.RegularFile:
			regular++
		case fswalk.HardLinkOf:
			alias++
		}
	}
	require.NoError(t, c.Err())
	require.Equal(t, 1, regular)
	require.Equal(t, 1, alias)
}
