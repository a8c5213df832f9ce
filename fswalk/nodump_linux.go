//go:build linux
// +build linux

package fswalk

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// fsIocGetflags is FS_IOC_GETFLAGS, which golang.org/x/sys/unix does not
// export under this vendored version; its value is fixed by the Linux
// ioctl ABI (_IOR('f', 1, long)).
const fsIocGetflags = 0x80086601

// fsNodumpFl is the ext2/3/4 "nodump" inode attribute bit (chattr +d).
const fsNodumpFl = 0x00000040

// hasNoDumpFlag reports whether path carries the filesystem's nodump
// attribute. Only regular files and directories on ext2-family
// filesystems support the ioctl; any other case (including the ioctl
// being unsupported on the underlying filesystem) is reported as false,
// not an error. A failure to open path is returned as an error.
func hasNoDumpFlag(path string, info os.FileInfo) (bool, error) {
	if !(info.Mode().IsRegular() || info.IsDir()) {
		return false, nil
	}
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return false, err
	}
	defer unix.Close(fd)
	var flags int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(fsIocGetflags), uintptr(unsafe.Pointer(&flags)))
	if errno != 0 {
		return false, nil
	}
	return flags&fsNodumpFl != 0, nil
}
