package pgs

import "path/filepath"

// Database file locations relative to the directory prefix.
const (
	loginDefsRel = "etc/login.defs"
	passwdRel    = "etc/passwd"
	groupRel     = "etc/group"
	shadowRel    = "etc/shadow"
	gshadowRel   = "etc/gshadow"
	subUIDRel    = "etc/subuid"
	subGIDRel    = "etc/subgid"
	lockRel      = "etc/.pwd.lock"
)

// backupPath is the sibling a file is copied to before a rewrite,
// matching the vipw/vigr convention.
func backupPath(path string) string {
	return path + "-"
}

func (db *DB) path(rel string) string {
	return filepath.Join(db.prefix, rel)
}
