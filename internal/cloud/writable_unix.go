//go:build !windows

package cloud

import (
	"golang.org/x/sys/unix"
)

// writable checks if the current user can create entries in the directory.
func writable(dir string) error {
	return unix.Access(dir, unix.W_OK|unix.X_OK)
}
