//go:build !unix

package viz

// TerminalWidth has no portable ioctl-based implementation outside
// unix-family platforms; callers fall back to DefaultWidth.
func TerminalWidth() int {
	return 0
}
