//go:build windows

package cloud

import (
	"fmt"
	"os"
)

// writable checks if the directory is not flagged as read-only. Windows ACLs
// aren't inspected.
func writable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}

	if info.Mode().Perm()&0200 == 0 {
		return fmt.Errorf("directory “%s” is read-only", dir)
	}

	return nil
}
