package sar

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dar-go/dar/derr"
)

// Hook is an inter-slice external command, run after closing a
// just-written slice and before the operator pause (write mode), or
// before opening each slice (read mode).
type Hook struct {
	Command string
}

// Context tags passed to a Hook's %c macro.
const (
	HookInit      = "init"
	HookOperation = "operation"
	HookLastSlice = "last_slice"
)

// expand substitutes a Hook's macros: %p slice directory, %b basename,
// %n slice number zero-padded to minDigits, %N unpadded, %e extension,
// %c context tag, %% literal percent.
func (h *Hook) expand(dir, basename, ext string, n, minDigits int, ctxTag string) string {
	var b strings.Builder
	s := h.Command
	for i := 0; i < len(s); i++ {
		if s[i] != '%' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'p':
			b.WriteString(dir)
		case 'b':
			b.WriteString(basename)
		case 'n':
			num := strconv.Itoa(n)
			if len(num) < minDigits {
				num = strings.Repeat("0", minDigits-len(num)) + num
			}
			b.WriteString(num)
		case 'N':
			b.WriteString(strconv.Itoa(n))
		case 'e':
			b.WriteString(ext)
		case 'c':
			b.WriteString(ctxTag)
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Run executes the hook if non-nil, returning a recoverable Script-kind
// error on a non-zero exit for the caller's user-interaction layer to
// decide retry/abort.
func (h *Hook) Run(ctx context.Context, dir, basename, ext string, n, minDigits int, ctxTag string) error {
	if h == nil || h.Command == "" {
		return nil
	}
	cmd := h.expand(dir, basename, ext, n, minDigits, ctxTag)
	c := exec.CommandContext(ctx, "/bin/sh", "-c", cmd)
	out, err := c.CombinedOutput()
	if err != nil {
		return derr.E(derr.Script, err, "sar: hook exited non-zero: "+string(out))
	}
	return nil
}
