package pgs

import (
	"fmt"
	"os"
	"strings"

	"github.com/strictpgs/strictpgs/internal/hostfs"
)

// File modes enforced on rewrite. The hash-bearing files stay private.
const (
	worldReadableMode os.FileMode = 0644
	shadowMode        os.FileMode = 0600
)

func (db *DB) writeAll() error {
	if err := db.writePasswd(); err != nil {
		return fmt.Errorf("write passwd: %w", err)
	}
	if err := db.writeGroup(); err != nil {
		return fmt.Errorf("write group: %w", err)
	}
	if err := db.writeShadow(); err != nil {
		return fmt.Errorf("write shadow: %w", err)
	}
	if err := db.writeGShadow(); err != nil {
		return fmt.Errorf("write gshadow: %w", err)
	}
	if err := db.writeSubIDs(subUIDRel, db.subUID, db.subUIDOrder); err != nil {
		return fmt.Errorf("write subuid: %w", err)
	}
	if err := db.writeSubIDs(subGIDRel, db.subGID, db.subGIDOrder); err != nil {
		return fmt.Errorf("write subgid: %w", err)
	}
	return nil
}

// writeManaged backs the target up to its "-" sibling, then replaces it
// atomically.
func (db *DB) writeManaged(rel string, body []byte, perm os.FileMode) error {
	path := db.path(rel)
	if hostfs.Exists(path) {
		if err := hostfs.Backup(path, backupPath(path)); err != nil {
			return fmt.Errorf("back up %s: %w", path, err)
		}
	}
	return hostfs.WriteFileAtomic(path, body, perm)
}

func (db *DB) marker() string {
	return "# managed by " + db.source + "\n"
}

func (db *DB) writePasswd() error {
	var b strings.Builder
	b.WriteString(db.marker())
	blocks := [][]string{db.systemUsers, db.normalUsers, db.softwareUsers, db.deprecatedUsers}
	for _, block := range blocks {
		b.WriteString("\n")
		for _, name := range block {
			e := db.users[name]
			fmt.Fprintf(&b, "%s:%s:%d:%d:%s:%s:%s\n", e.Name, "x", e.UID, e.GID, e.Gecos, e.Home, e.Shell)
		}
	}
	return db.writeManaged(passwdRel, []byte(b.String()), worldReadableMode)
}

func (db *DB) writeGroup() error {
	var b strings.Builder
	b.WriteString(db.marker())
	blocks := [][]string{
		db.systemGroups, db.perUserGroups, db.standAloneGroups,
		db.deviceGroups, db.softwareGroups, db.deprecatedGroups,
	}
	for _, block := range blocks {
		b.WriteString("\n")
		for _, name := range block {
			e := db.groups[name]
			fmt.Fprintf(&b, "%s:%s:%d:%s\n", e.Name, "x", e.GID, strings.Join(e.Members, ","))
		}
	}
	return db.writeManaged(groupRel, []byte(b.String()), worldReadableMode)
}

func (db *DB) writeShadow() error {
	var b strings.Builder
	b.WriteString(db.marker())
	b.WriteString("\n")
	for _, name := range db.shadowOrder {
		e := db.shadow[name]
		fmt.Fprintf(&b, "%s:%s:::::::\n", e.Name, e.Hash)
	}
	return db.writeManaged(shadowRel, []byte(b.String()), shadowMode)
}

// writeGShadow empties the file. Group passwords are not part of the
// policy, so the file carries no marker either.
func (db *DB) writeGShadow() error {
	return db.writeManaged(gshadowRel, nil, shadowMode)
}

func (db *DB) writeSubIDs(rel string, entries map[string]*SubIDEntry, order []string) error {
	var b strings.Builder
	b.WriteString(db.marker())
	b.WriteString("\n")
	for _, name := range order {
		e := entries[name]
		fmt.Fprintf(&b, "%s:%d:%d\n", e.Name, e.Start, e.Count)
	}
	return db.writeManaged(rel, []byte(b.String()), worldReadableMode)
}
