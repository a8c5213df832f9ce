//go:build !linux
// +build !linux

package fswalk

import "os"

// hasNoDumpFlag always reports false on platforms without an ext2-style
// nodump attribute.
func hasNoDumpFlag(path string, info os.FileInfo) (bool, error) {
	return false, nil
}
