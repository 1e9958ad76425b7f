//go:build unix

package viz

import (
	"os"

	"golang.org/x/sys/unix"
)

// TerminalWidth returns the controlling terminal's column count, or 0 if
// stdout is not a TTY or the ioctl fails, in which case the caller should
// fall back to DefaultWidth.
func TerminalWidth() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 0
	}
	return int(ws.Col)
}
