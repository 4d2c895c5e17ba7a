//go:build windows
// +build windows

package commands

import (
	"os"
)

// getStdinFD returns the file descriptor for stdin on Windows systems
func getStdinFD() int {
	// On Windows, syscall.Stdin is a Handle, not an int
	return int(os.Stdin.Fd())
}
