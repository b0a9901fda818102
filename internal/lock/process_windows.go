//go:build windows

package lock

import (
	"os"
)

// processAlive on Windows opens the process handle; failure to find it
// means the process is gone. There is no direct signal-0 equivalent, so we
// fall back to os.FindProcess, which on Windows actually checks existence
// (unlike on Unix, where it always succeeds).
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	_, err := os.FindProcess(pid)
	return err == nil
}
