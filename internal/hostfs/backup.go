package hostfs

import (
	cp "github.com/otiai10/copy"
)

// Backup copies src to dst, preserving mode and timestamps. An existing
// dst is replaced.
func Backup(src, dst string) error {
	m := muFor(dst)
	m.Lock()
	defer m.Unlock()
	return cp.Copy(src, dst, cp.Options{
		PreserveTimes: true,
		Sync:          true,
	})
}
