package sar

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dar-go/dar/derr"
)

// NewLabel generates a fresh per-archive Label from wall clock + process
// id, with the remaining two bytes filled from a CSPRNG so that two
// archives created in the same process tick are unlikely to collide.
func NewLabel() Label {
	var l Label
	binary.BigEndian.PutUint32(l[0:4], uint32(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(l[4:8], uint32(os.Getpid()))
	_, _ = rand.Read(l[8:10])
	return l
}

// SliceName renders the filename of slice n (1-based) of an archive
// basename with the given extension, e.g. SliceName("arc", "dar", 1, 1)
// == "arc.1.dar". minDigits left-pads the slice number with zeros.
func SliceName(basename, ext string, n, minDigits int) string {
	num := strconv.Itoa(n)
	if len(num) < minDigits {
		num = strings.Repeat("0", minDigits-len(num)) + num
	}
	if ext == "" {
		return fmt.Sprintf("%s.%s", basename, num)
	}
	return fmt.Sprintf("%s.%s.%s", basename, num, ext)
}

// HashSidecarName renders the name of slice n's hash side-file under the
// given digest algorithm name (e.g. "crc32").
func HashSidecarName(sliceName, algo string) string {
	return sliceName + "." + algo
}

// ParseSliceName extracts the slice number from a name produced by
// SliceName, validating it begins with basename and (if ext != "") ends
// with ext.
func ParseSliceName(name, basename, ext string) (n int, err error) {
	rest := strings.TrimPrefix(name, basename+".")
	if rest == name {
		return 0, derr.E(derr.Data, "sar: slice name "+name+" does not start with "+basename+".")
	}
	if ext != "" {
		suffix := "." + ext
		if !strings.HasSuffix(rest, suffix) {
			return 0, derr.E(derr.Data, "sar: slice name "+name+" does not end with "+suffix)
		}
		rest = strings.TrimSuffix(rest, suffix)
	}
	n, err = strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, derr.E(derr.Data, "sar: invalid slice number in "+name)
	}
	return n, nil
}
