package pgs

import "sort"

// Fixed name lists, in canonical order. Sets AND order are pinned for
// system users and groups; for device and deprecated entries only the
// membership matters.
var (
	stdSystemUsers     = []string{"root", "nobody"}
	stdDeprecatedUsers = []string{"bin", "daemon", "adm", "shutdown", "halt", "operator", "lp"}

	stdSystemGroups = []string{"root", "nobody", "nogroup", "wheel", "users"}
	stdDeviceGroups = []string{
		"tty", "disk", "lp", "mem", "kmem", "floppy", "console", "audio",
		"cdrom", "tape", "video", "cdrw", "usb", "plugdev", "input", "kvm",
	}
	stdDeprecatedGroups = []string{"bin", "daemon", "sys", "adm"}
)

// classifyUser files the record into one of the db's user category
// lists. Fixed-name lists are tested before the uid range so a known
// name is never misfiled as a normal user just because its uid lands
// in the range.
func (db *DB) classifyUser(e *PasswdEntry) {
	switch {
	case contains(stdSystemUsers, e.Name):
		db.systemUsers = append(db.systemUsers, e.Name)
	case contains(stdDeprecatedUsers, e.Name):
		db.deprecatedUsers = append(db.deprecatedUsers, e.Name)
	case db.rc.UIDMin <= e.UID && e.UID < db.rc.UIDMax:
		db.normalUsers = append(db.normalUsers, e.Name)
	default:
		db.softwareUsers = append(db.softwareUsers, e.Name)
	}
}

// classifyGroup files the record into one of the db's group category
// lists and feeds the secondary membership index. Requires the user
// categories to be complete, since per-user groups are recognized by
// a name match against the normal users.
func (db *DB) classifyGroup(e *GroupEntry) {
	switch {
	case contains(stdSystemGroups, e.Name):
		db.systemGroups = append(db.systemGroups, e.Name)
	case contains(db.normalUsers, e.Name):
		db.perUserGroups = append(db.perUserGroups, e.Name)
	case contains(stdDeviceGroups, e.Name):
		db.deviceGroups = append(db.deviceGroups, e.Name)
	case contains(stdDeprecatedGroups, e.Name):
		db.deprecatedGroups = append(db.deprecatedGroups, e.Name)
	case db.rc.GIDMin <= e.GID && e.GID < db.rc.GIDMax:
		db.standAloneGroups = append(db.standAloneGroups, e.Name)
	default:
		db.softwareGroups = append(db.softwareGroups, e.Name)
	}

	for _, u := range nonEmptyTokens(e.Members) {
		db.secondary[u] = append(db.secondary[u], e.Name)
	}
}

// allGroupNames returns every group name, one category at a time. The
// categories are a disjoint covering partition, so each group appears
// exactly once.
func (db *DB) allGroupNames() []string {
	var all []string
	all = append(all, db.systemGroups...)
	all = append(all, db.perUserGroups...)
	all = append(all, db.deviceGroups...)
	all = append(all, db.standAloneGroups...)
	all = append(all, db.softwareGroups...)
	all = append(all, db.deprecatedGroups...)
	return all
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameNameSet(a, b []string) bool {
	as := cloneStrings(a)
	bs := cloneStrings(b)
	sort.Strings(as)
	sort.Strings(bs)
	return equalStrings(as, bs)
}

func cloneStrings(list []string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
